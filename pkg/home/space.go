// Package home models a dwelling as a tree of spaces and devices with a
// shared lifecycle.
//
// A Space holds named children in insertion order. Init walks the tree
// depth-first in that order and stops at the first failure; Dispose walks
// it in reverse and visits every node, joining the errors.
package home

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/pion/logging"
)

var (
	// ErrChildExists is returned when adding a child whose name is taken.
	ErrChildExists = errors.New("home: child already exists")

	// ErrChildNotFound is returned when no child has the requested name.
	ErrChildNotFound = errors.New("home: child not found")

	// ErrUnknownDeviceType is returned for a topology device type without a
	// registered factory.
	ErrUnknownDeviceType = errors.New("home: unknown device type")

	// ErrInvalidTopology is returned for a malformed topology file.
	ErrInvalidTopology = errors.New("home: invalid topology")
)

// Node is anything placed in the home: a space or a device.
type Node interface {
	Name() string
	Init(ctx context.Context) error
	Dispose(ctx context.Context) error
}

// Space is a named container of nodes.
type Space struct {
	name string
	log  logging.LeveledLogger

	mu       sync.RWMutex
	children map[string]Node
	order    []string
}

// NewSpace creates an empty space. A nil factory disables logging.
func NewSpace(name string, lf logging.LoggerFactory) *Space {
	s := &Space{
		name:     name,
		children: make(map[string]Node),
	}
	if lf != nil {
		s.log = lf.NewLogger("home")
	}
	return s
}

// Name returns the display name.
func (s *Space) Name() string { return s.name }

// Add appends a child. Names are unique among siblings.
func (s *Space) Add(n Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := n.Name()
	if _, exists := s.children[name]; exists {
		return fmt.Errorf("%w: %s/%s", ErrChildExists, s.name, name)
	}
	s.children[name] = n
	s.order = append(s.order, name)
	return nil
}

// Child returns the direct child with the given name.
func (s *Space) Child(name string) (Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.children[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrChildNotFound, s.name, name)
	}
	return n, nil
}

// Lookup resolves a path of child names below s.
func (s *Space) Lookup(path ...string) (Node, error) {
	var n Node = s
	for _, name := range path {
		sp, ok := n.(*Space)
		if !ok {
			return nil, fmt.Errorf("%w: %s is not a space", ErrChildNotFound, n.Name())
		}
		child, err := sp.Child(name)
		if err != nil {
			return nil, err
		}
		n = child
	}
	return n, nil
}

// Children returns the children in insertion order.
func (s *Space) Children() []Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Node, 0, len(s.order))
	for _, name := range s.order {
		result = append(result, s.children[name])
	}
	return result
}

// Walk calls fn for s and every descendant, parents first. path holds the
// names from s down to the node.
func (s *Space) Walk(fn func(path []string, n Node)) {
	s.walk(nil, fn)
}

func (s *Space) walk(prefix []string, fn func([]string, Node)) {
	path := append(append([]string{}, prefix...), s.name)
	fn(path, s)
	for _, child := range s.Children() {
		if sp, ok := child.(*Space); ok {
			sp.walk(path, fn)
			continue
		}
		fn(append(append([]string{}, path...), child.Name()), child)
	}
}

// Init initializes the children in order and stops at the first error.
func (s *Space) Init(ctx context.Context) error {
	if s.log != nil {
		s.log.Infof("initializing %s", s.name)
	}
	for _, child := range s.Children() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := child.Init(ctx); err != nil {
			return fmt.Errorf("home: init %s/%s: %w", s.name, child.Name(), err)
		}
	}
	return nil
}

// Dispose disposes every child in reverse order and returns the joined
// errors.
func (s *Space) Dispose(ctx context.Context) error {
	if s.log != nil {
		s.log.Infof("disposing %s", s.name)
	}
	children := s.Children()

	var errs []error
	for i := len(children) - 1; i >= 0; i-- {
		if err := children[i].Dispose(ctx); err != nil {
			errs = append(errs, fmt.Errorf("home: dispose %s/%s: %w", s.name, children[i].Name(), err))
		}
	}
	return errors.Join(errs...)
}

var _ Node = (*Space)(nil)
