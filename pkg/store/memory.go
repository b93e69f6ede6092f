package store

import (
	"sort"
	"sync"
)

// MemoryStorage is an in-memory Storage implementation.
// Useful for testing and development. Data is lost when the process exits.
//
// All methods are safe for concurrent use.
type MemoryStorage struct {
	mu sync.RWMutex

	controller *Controller
	pairings   map[string]*Pairing
}

// NewMemoryStorage creates a new in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		pairings: make(map[string]*Pairing),
	}
}

// LoadController returns the stored controller identity.
func (m *MemoryStorage) LoadController() (*Controller, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.controller == nil {
		return nil, ErrNotFound
	}
	return m.controller.Clone(), nil
}

// SaveController stores the controller identity.
func (m *MemoryStorage) SaveController(c *Controller) error {
	if c == nil || c.ID == "" {
		return ErrInvalidRecord
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.controller = c.Clone()
	return nil
}

// LoadPairings returns all pairings sorted by accessory ID.
func (m *MemoryStorage) LoadPairings() ([]*Pairing, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return sortedPairings(m.pairings), nil
}

// LoadPairing returns the pairing for accessoryID.
func (m *MemoryStorage) LoadPairing(accessoryID string) (*Pairing, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.pairings[accessoryID]
	if !ok {
		return nil, ErrNotFound
	}
	return p.Clone(), nil
}

// SavePairing stores or replaces a pairing.
func (m *MemoryStorage) SavePairing(p *Pairing) error {
	if p == nil || p.AccessoryID == "" {
		return ErrInvalidRecord
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.pairings[p.AccessoryID] = p.Clone()
	return nil
}

// DeletePairing removes a pairing. Deleting an unknown ID returns ErrNotFound.
func (m *MemoryStorage) DeletePairing(accessoryID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.pairings[accessoryID]; !ok {
		return ErrNotFound
	}
	delete(m.pairings, accessoryID)
	return nil
}

func sortedPairings(pairings map[string]*Pairing) []*Pairing {
	result := make([]*Pairing, 0, len(pairings))
	for _, p := range pairings {
		result = append(result, p.Clone())
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].AccessoryID < result[j].AccessoryID
	})
	return result
}
