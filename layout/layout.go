// Package layout builds view trees from YAML descriptions.
//
//	kind: vstack
//	props:
//	  spacing: 8
//	children:
//	  - kind: label
//	    bind:
//	      text: count
//	  - kind: button
//	    props:
//	      text: reset
//	    on:
//	      click: reset
//
// Event handlers and bound observables are looked up by name in a Registry.
package layout

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/AnatoleLucet/sigui"
)

var (
	ErrUnknownHandler    = errors.New("layout: unknown handler")
	ErrUnknownObservable = errors.New("layout: unknown observable")
	ErrMissingKind       = errors.New("layout: node without kind")
)

// Node is one view of a layout file.
type Node struct {
	Kind     string            `yaml:"kind"`
	Name     string            `yaml:"name,omitempty"`
	Props    map[string]any    `yaml:"props,omitempty"`
	Bind     map[string]string `yaml:"bind,omitempty"`
	On       map[string]string `yaml:"on,omitempty"`
	Children []*Node           `yaml:"children,omitempty"`
}

// Parse decodes a layout.
func Parse(data []byte) (*Node, error) {
	var root Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse layout: %w", err)
	}

	return &root, nil
}

// Load reads and decodes the layout file at path.
func Load(path string) (*Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	return Parse(data)
}

// Registry holds what a layout can refer to by name.
type Registry struct {
	handlers map[string]func()
	binders  map[string]func(v *sigui.View, key string)
}

func NewRegistry() *Registry {
	return &Registry{
		handlers: map[string]func(){},
		binders:  map[string]func(*sigui.View, string){},
	}
}

// Handle registers fn as the event handler called name.
func (r *Registry) Handle(name string, fn func()) *Registry {
	r.handlers[name] = fn
	return r
}

// Observe registers obs under name, for use in bind sections.
func Observe[T comparable](r *Registry, name string, obs *sigui.Observable[T]) *Registry {
	r.binders[name] = func(v *sigui.View, key string) {
		sigui.Bind(v, key, obs)
	}
	return r
}

// Build creates the view tree described by n. Properties, bindings and
// handlers are applied in key order.
func (n *Node) Build(r *Registry, opts ...sigui.ViewOption) (*sigui.View, error) {
	if n.Kind == "" {
		return nil, fmt.Errorf("%w (name %q)", ErrMissingKind, n.Name)
	}

	v := sigui.NewView(n.Kind, opts...)
	if n.Name != "" {
		v.Named(n.Name)
	}

	for _, key := range slices.Sorted(maps.Keys(n.Props)) {
		v.Set(key, n.Props[key])
	}

	for _, key := range slices.Sorted(maps.Keys(n.Bind)) {
		bind, ok := r.binders[n.Bind[key]]
		if !ok {
			return nil, fmt.Errorf("%w %q in %s", ErrUnknownObservable, n.Bind[key], n.Kind)
		}
		bind(v, key)
	}

	for _, event := range slices.Sorted(maps.Keys(n.On)) {
		fn, ok := r.handlers[n.On[event]]
		if !ok {
			return nil, fmt.Errorf("%w %q in %s", ErrUnknownHandler, n.On[event], n.Kind)
		}
		v.On(event, fn)
	}

	for _, child := range n.Children {
		c, err := child.Build(r)
		if err != nil {
			return nil, err
		}
		v.Add(c)
	}

	return v, nil
}
