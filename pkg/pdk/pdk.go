// Package pdk loads process design kit layer stack definitions: the
// mapping from GDSII layer/datatype pairs to physical layer position,
// thickness, and display color.
package pdk

import (
	"errors"
	"fmt"
)

// ErrConfig indicates a malformed layer stack definition. All
// validation failures wrap it, so errors.Is(err, ErrConfig) detects
// any config problem.
var ErrConfig = errors.New("invalid layer stack config")

// LayerSpec describes a single physical layer of the stack.
type LayerSpec struct {
	Name     string     // Layer name from the PDK, e.g. "Metal1"
	Index    uint16     // GDS layer number
	Datatype uint16     // GDS datatype number
	Z        float64    // Bottom of the layer in µm above substrate
	Height   float64    // Layer thickness in µm
	Color    [4]float64 // Display color RGBA, each in [0,1]
}

// GDSPair returns the (layer, datatype) pair as a printable "8/0"
// style string.
func (s LayerSpec) GDSPair() string {
	return fmt.Sprintf("%d/%d", s.Index, s.Datatype)
}

// Top returns the z coordinate of the layer's upper face in µm.
func (s LayerSpec) Top() float64 {
	return s.Z + s.Height
}

// Stack is an ordered sequence of layer specs, bottom-up in the order
// the PDK config lists them.
type Stack []LayerSpec

// FindByName returns the layer with the given name, or nil.
func (st Stack) FindByName(name string) *LayerSpec {
	for i := range st {
		if st[i].Name == name {
			return &st[i]
		}
	}
	return nil
}

// FindByGDS returns the layer mapped to the (index, datatype) pair,
// or nil.
func (st Stack) FindByGDS(index, datatype uint16) *LayerSpec {
	for i := range st {
		if st[i].Index == index && st[i].Datatype == datatype {
			return &st[i]
		}
	}
	return nil
}

// Names returns the layer names in stack order.
func (st Stack) Names() []string {
	names := make([]string, len(st))
	for i, s := range st {
		names[i] = s.Name
	}
	return names
}

// MaxTop returns the z coordinate of the highest layer top in µm.
func (st Stack) MaxTop() float64 {
	var top float64
	for _, s := range st {
		if s.Top() > top {
			top = s.Top()
		}
	}
	return top
}

// validate checks stack-wide invariants beyond per-layer field checks.
func (st Stack) validate() error {
	seen := make(map[[2]uint16]string, len(st))
	for _, s := range st {
		key := [2]uint16{s.Index, s.Datatype}
		if prev, dup := seen[key]; dup {
			return fmt.Errorf("%w: layers %q and %q share GDS pair %s",
				ErrConfig, prev, s.Name, s.GDSPair())
		}
		seen[key] = s.Name
	}
	return nil
}
