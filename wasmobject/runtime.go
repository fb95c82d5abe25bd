package wasmobject

import (
	"context"
	"fmt"
	"strings"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.bytecodealliance.org/wit"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/handler-system/errors"
	"github.com/wippyai/handler-system/schema"
)

// ExportSeparator joins a capability name and a slot name in export names.
const ExportSeparator = "#"

// ExportName returns the export that implements slot for capability.
func ExportName(capability, slot string) string {
	return capability + ExportSeparator + slot
}

// Config holds runtime configuration.
type Config struct {
	// MemoryLimitPages caps the memory of every module in 64KiB pages.
	// 0 keeps the wazero default.
	MemoryLimitPages uint32
}

// Runtime loads wasm objects for one handler system.
type Runtime struct {
	runtime wazero.Runtime
	def     *schema.System
}

// NewRuntime creates a runtime with default configuration.
func NewRuntime(ctx context.Context, def *schema.System) *Runtime {
	return NewRuntimeWithConfig(ctx, def, nil)
}

// NewRuntimeWithConfig creates a runtime with custom configuration.
func NewRuntimeWithConfig(ctx context.Context, def *schema.System, cfg *Config) *Runtime {
	runtimeCfg := wazero.NewRuntimeConfig()
	if cfg != nil && cfg.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}
	return &Runtime{
		runtime: wazero.NewRuntimeWithConfig(ctx, runtimeCfg),
		def:     def,
	}
}

// Close releases the runtime and every module loaded through it.
func (r *Runtime) Close(ctx context.Context) error {
	return r.runtime.Close(ctx)
}

// Load compiles and instantiates a core module as an object.
//
// The object supports a capability when the module exports every slot of it
// as "<Capability>#<slot>" with parameters matching the signal arguments.
// Exporting only some slots of a capability is an error.
func (r *Runtime) Load(ctx context.Context, name string, wasm []byte) (*Object, error) {
	compiled, err := r.runtime.CompileModule(ctx, wasm)
	if err != nil {
		return nil, errors.Load("compile module "+name, err)
	}
	defer compiled.Close(ctx)

	exports := compiled.ExportedFunctions()
	caps := make(map[string]*capability)
	var loadErr error
	for _, c := range r.def.Capabilities {
		cp, cerr := matchCapability(name, c, exports)
		if cerr != nil {
			loadErr = multierr.Append(loadErr, cerr)
			continue
		}
		if cp != nil {
			caps[c.Name] = cp
		}
	}
	if loadErr != nil {
		return nil, loadErr
	}

	mod, err := r.runtime.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName(""))
	if err != nil {
		return nil, errors.Load("instantiate module "+name, err)
	}

	obj := &Object{name: name, module: mod, caps: caps}
	for capName, cp := range caps {
		cp.object = obj
		for slotName, s := range cp.slots {
			s.fn = mod.ExportedFunction(ExportName(capName, slotName))
		}
	}

	Logger().Debug("wasm object loaded",
		zap.String("name", name),
		zap.Strings("capabilities", obj.Capabilities()),
	)
	return obj, nil
}

// matchCapability returns nil when the module exports no slot of c.
func matchCapability(module string, c *schema.Capability, exports map[string]api.FunctionDefinition) (*capability, error) {
	cp := &capability{name: c.Name, slots: make(map[string]*slot, len(c.Signals))}
	var missing []string
	var err error

	for _, sig := range c.Signals {
		export := ExportName(c.Name, sig.Slot)
		fd, ok := exports[export]
		if !ok {
			missing = append(missing, export)
			continue
		}
		if serr := checkParams(module, export, sig, fd); serr != nil {
			err = multierr.Append(err, serr)
			continue
		}
		cp.slots[sig.Slot] = &slot{export: export, args: sig.Args}
	}

	if len(missing) == len(c.Signals) {
		return nil, nil
	}
	if len(missing) > 0 {
		err = multierr.Append(err, errors.New(errors.PhaseLoad, errors.KindNotFound).
			Path(module, c.Name).
			Detail("capability partially exported, missing %s", strings.Join(missing, ", ")).
			Build())
	}
	if err != nil {
		return nil, err
	}
	return cp, nil
}

func checkParams(module, export string, sig *schema.Signal, fd api.FunctionDefinition) error {
	params := fd.ParamTypes()
	if len(params) != len(sig.Args) {
		return errors.Arity(errors.PhaseLoad, []string{module, export}, len(sig.Args), len(params))
	}
	for i, arg := range sig.Args {
		want, ok := coreType(arg.Type)
		if !ok {
			return errors.Unsupported(errors.PhaseLoad, []string{module, export, arg.Name},
				fmt.Sprintf("%s arguments have no core wasm representation", arg.TypeName))
		}
		if params[i] != want {
			return errors.New(errors.PhaseLoad, errors.KindTypeMismatch).
				Path(module, export, arg.Name).
				WitType(arg.TypeName).
				Detail("export takes %s, want %s", api.ValueTypeName(params[i]), api.ValueTypeName(want)).
				Build()
		}
	}
	return nil
}

// coreType returns the core wasm value type a WIT primitive is passed as.
func coreType(t wit.Type) (api.ValueType, bool) {
	switch t.(type) {
	case wit.Bool, wit.U8, wit.U16, wit.U32, wit.S8, wit.S16, wit.S32, wit.Char:
		return api.ValueTypeI32, true
	case wit.U64, wit.S64:
		return api.ValueTypeI64, true
	case wit.F32:
		return api.ValueTypeF32, true
	case wit.F64:
		return api.ValueTypeF64, true
	default:
		return 0, false
	}
}
