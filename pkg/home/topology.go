package home

import (
	"fmt"
	"os"
	"sync"

	"github.com/pion/logging"
	"gopkg.in/yaml.v3"
)

// Topology is the YAML description of a home:
//
//	name: Apartment
//	children:
//	  - name: Office
//	    children:
//	      - name: Motion sensor
//	        type: aqarafp2
//	        id: "AA:BB:CC:DD:EE:FF"
//	      - name: Office light
//	        type: dummy
//	        properties:
//	          device_type: Ceiling Light
type Topology struct {
	Name     string     `yaml:"name"`
	Children []NodeSpec `yaml:"children"`
}

// NodeSpec describes one space or device. A spec without a type, or with
// type "space", is a space.
type NodeSpec struct {
	Name       string            `yaml:"name"`
	Type       string            `yaml:"type,omitempty"`
	ID         string            `yaml:"id,omitempty"`
	Properties map[string]string `yaml:"properties,omitempty"`
	Children   []NodeSpec        `yaml:"children,omitempty"`
}

// TypeSpace and TypeDummy are the node types every Builder knows.
const (
	TypeSpace = "space"
	TypeDummy = "dummy"
)

// IsSpace reports whether the spec describes a space.
func (n *NodeSpec) IsSpace() bool {
	return n.Type == TypeSpace || n.Type == ""
}

// ParseTopology decodes a topology from YAML.
func ParseTopology(data []byte) (*Topology, error) {
	var t Topology
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTopology, err)
	}
	if t.Name == "" {
		return nil, fmt.Errorf("%w: missing name", ErrInvalidTopology)
	}
	return &t, nil
}

// LoadTopology reads and decodes the topology file at path.
func LoadTopology(path string) (*Topology, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("home: %w", err)
	}
	t, err := ParseTopology(data)
	if err != nil {
		return nil, fmt.Errorf("%w (%s)", err, path)
	}
	return t, nil
}

// DeviceFactory creates a device node from its spec.
type DeviceFactory func(spec NodeSpec) (Node, error)

// Builder turns a Topology into a tree of nodes.
type Builder struct {
	lf logging.LoggerFactory

	mu        sync.RWMutex
	factories map[string]DeviceFactory
}

// NewBuilder creates a builder that knows the dummy device type.
func NewBuilder(lf logging.LoggerFactory) *Builder {
	b := &Builder{
		lf:        lf,
		factories: make(map[string]DeviceFactory),
	}
	b.Register(TypeDummy, func(spec NodeSpec) (Node, error) {
		deviceType := spec.Properties["device_type"]
		if deviceType == "" {
			deviceType = "Dummy"
		}
		return NewDummyDevice(deviceType, spec.Name, lf), nil
	})
	return b
}

// Register installs the factory for a device type, replacing any previous one.
func (b *Builder) Register(deviceType string, f DeviceFactory) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.factories[deviceType] = f
}

// Build creates the root space for t.
func (b *Builder) Build(t *Topology) (*Space, error) {
	root := NewSpace(t.Name, b.lf)
	if err := b.addChildren(root, t.Children); err != nil {
		return nil, err
	}
	return root, nil
}

func (b *Builder) addChildren(parent *Space, specs []NodeSpec) error {
	for _, spec := range specs {
		if spec.Name == "" {
			return fmt.Errorf("%w: unnamed node in %s", ErrInvalidTopology, parent.Name())
		}

		var node Node
		if spec.IsSpace() {
			sp := NewSpace(spec.Name, b.lf)
			if err := b.addChildren(sp, spec.Children); err != nil {
				return err
			}
			node = sp
		} else {
			b.mu.RLock()
			f, ok := b.factories[spec.Type]
			b.mu.RUnlock()
			if !ok {
				return fmt.Errorf("%w: %q for %s/%s", ErrUnknownDeviceType, spec.Type, parent.Name(), spec.Name)
			}
			n, err := f(spec)
			if err != nil {
				return fmt.Errorf("home: build %s/%s: %w", parent.Name(), spec.Name, err)
			}
			node = n
		}

		if err := parent.Add(node); err != nil {
			return err
		}
	}
	return nil
}
