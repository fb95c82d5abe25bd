package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	handlersystem "github.com/wippyai/handler-system"
	"github.com/wippyai/handler-system/registry"
	"github.com/wippyai/handler-system/system"
	"github.com/wippyai/handler-system/wasmobject"
)

func main() {
	cfg := defaultConfig()

	var (
		configFile  = flag.String("config", "", "TOML configuration file")
		logLevel    = flag.String("log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
		logFormat   = flag.String("log-format", cfg.LogFormat, "Log format (console, json)")
		wasmFile    = flag.String("wasm", "", "Core wasm module to load as an extra object")
		wasmName    = flag.String("wasm-name", "", "Name of the wasm object (default: file name)")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *configFile != "" {
		if err := loadConfig(*configFile, &cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(2)
		}
	}

	// Flags given on the command line win over the config file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "log-level":
			cfg.LogLevel = *logLevel
		case "log-format":
			cfg.LogFormat = *logFormat
		case "wasm":
			cfg.WasmFile = *wasmFile
		case "wasm-name":
			cfg.WasmName = *wasmName
		}
	})

	log, err := newLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	defer log.Sync()
	installLogger(log)

	if *interactive {
		if err := runInteractive(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(context.Background(), os.Stdout, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, out io.Writer, cfg config) error {
	def := demoSystem()

	sys, err := system.New(def, cfg.registryOptions())
	if err != nil {
		return fmt.Errorf("create system: %w", err)
	}

	var extra []handlersystem.Object
	if cfg.WasmFile != "" {
		rt := wasmobject.NewRuntimeWithConfig(ctx, def, cfg.wasmConfig())
		defer rt.Close(ctx)

		obj, err := loadWasm(ctx, rt, cfg.WasmFile, cfg.WasmName)
		if err != nil {
			return err
		}
		extra = append(extra, obj)
	}

	return runScenario(ctx, sys, out, extra...)
}

func loadWasm(ctx context.Context, rt *wasmobject.Runtime, file, name string) (*wasmobject.Object, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	}
	obj, err := rt.Load(ctx, name, data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", file, err)
	}
	return obj, nil
}

// newLogger builds a zap logger writing to w.
func newLogger(level, format string, w io.Writer) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	switch format {
	case "console":
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	case "json":
		enc = zapcore.NewJSONEncoder(encCfg)
	default:
		return nil, fmt.Errorf("log format %q: want console or json", format)
	}

	core := zapcore.NewCore(enc, zapcore.AddSync(w), lvl)
	return zap.New(core), nil
}

// installLogger routes every package logger to log.
func installLogger(log *zap.Logger) {
	registry.SetLogger(log.Named("registry"))
	system.SetLogger(log.Named("system"))
	wasmobject.SetLogger(log.Named("wasmobject"))
}
