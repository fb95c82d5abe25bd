package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/wippyai/handler-system/registry"
	"github.com/wippyai/handler-system/wasmobject"
)

// config is the resolved handlerctl configuration.
type config struct {
	LogLevel         string
	LogFormat        string
	WasmFile         string
	WasmName         string
	Capacity         int
	MemoryLimitPages uint32
}

func defaultConfig() config {
	return config{
		LogLevel:  "warn",
		LogFormat: "console",
		Capacity:  registry.DefaultOptions().Capacity,
	}
}

type fileConfig struct {
	LogLevel         string `toml:"log_level"`
	LogFormat        string `toml:"log_format"`
	Wasm             string `toml:"wasm"`
	WasmName         string `toml:"wasm_name"`
	Capacity         int    `toml:"capacity"`
	MemoryLimitPages uint32 `toml:"memory_limit_pages"`
}

// loadConfig overlays the keys defined in the TOML file at path onto cfg.
func loadConfig(path string, cfg *config) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("load config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}
	if meta.IsDefined("log_format") {
		cfg.LogFormat = strings.TrimSpace(raw.LogFormat)
	}
	if meta.IsDefined("wasm") {
		cfg.WasmFile = strings.TrimSpace(raw.Wasm)
	}
	if meta.IsDefined("wasm_name") {
		cfg.WasmName = strings.TrimSpace(raw.WasmName)
	}
	if meta.IsDefined("capacity") {
		if raw.Capacity < 0 {
			return fmt.Errorf("load config: capacity must not be negative, got %d", raw.Capacity)
		}
		cfg.Capacity = raw.Capacity
	}
	if meta.IsDefined("memory_limit_pages") {
		cfg.MemoryLimitPages = raw.MemoryLimitPages
	}
	return nil
}

func (c config) registryOptions() registry.Options {
	opts := registry.DefaultOptions()
	opts.Capacity = c.Capacity
	return opts
}

func (c config) wasmConfig() *wasmobject.Config {
	return &wasmobject.Config{MemoryLimitPages: c.MemoryLimitPages}
}
