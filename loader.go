package vstbridge

import (
	"fmt"
	"plugin"

	"gosuda.org/vstbridge/abi"
)

// EntryPointSymbol is the symbol GoPluginLoader looks up
const EntryPointSymbol = "PluginMain"

// EntryPoint instantiates a plugin bound to the given host. The host may be
// called before EntryPoint returns.
type EntryPoint func(host abi.Host) (abi.Effect, error)

// Loader resolves the entry point of a plugin binary
type Loader interface {
	Load(path string) (EntryPoint, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(path string) (EntryPoint, error)

func (f LoaderFunc) Load(path string) (EntryPoint, error) { return f(path) }

// GoPluginLoader opens Go plugin shared objects exporting
// func PluginMain(abi.Host) (abi.Effect, error).
type GoPluginLoader struct{}

func (GoPluginLoader) Load(path string) (EntryPoint, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return nil, fmt.Errorf("vstbridge: open %s: %w", path, err)
	}

	sym, err := p.Lookup(EntryPointSymbol)
	if err != nil {
		return nil, fmt.Errorf("%w: %s in %s", ErrEntryPointNotFound, EntryPointSymbol, path)
	}

	switch fn := sym.(type) {
	case func(abi.Host) (abi.Effect, error):
		return fn, nil
	case *EntryPoint:
		return *fn, nil
	}
	return nil, fmt.Errorf("%w: %s in %s has type %T", ErrEntryPointNotFound, EntryPointSymbol, path, sym)
}
