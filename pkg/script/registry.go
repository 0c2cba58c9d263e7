package script

import "github.com/aretw0/pressline/pkg/driver"

// Register compiles defs into reg under their ids.
func Register(reg *driver.Registry, defs ...Definition) error {
	for _, def := range defs {
		flow, err := New(def)
		if err != nil {
			return err
		}
		reg.Register(def.ID, flow)
	}
	return nil
}

// DefaultRegistry returns a registry holding the builtin flows.
func DefaultRegistry() *driver.Registry {
	reg := driver.NewRegistry()
	if err := Register(reg, Builtin()...); err != nil {
		panic(err)
	}
	return reg
}
