package entity

import (
	"errors"
	"fmt"

	"github.com/Faultbox/midgard-stage/internal/engine/device"
)

// ErrAlreadyAdded is returned when a root is added twice.
var ErrAlreadyAdded = errors.New("entity: already managed")

// Manager owns the scene roots in insertion order.
type Manager struct {
	roots  []*Entity
	byID   map[uint32]*Entity
	nextID uint32
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{
		byID: make(map[uint32]*Entity),
	}
}

// Add appends a root and assigns IDs to its whole subtree. Children
// attached after Add are drawn but not indexed by Get.
func (m *Manager) Add(e *Entity) error {
	if e.parent != nil {
		return fmt.Errorf("%w: %s", ErrHasParent, e)
	}
	if e.ID != 0 && m.byID[e.ID] == e {
		return fmt.Errorf("%w: %s", ErrAlreadyAdded, e)
	}
	m.roots = append(m.roots, e)
	walk(e, func(n *Entity) {
		m.nextID++
		n.ID = m.nextID
		m.byID[n.ID] = n
	})
	return nil
}

// Spawn spawns desc and adds it as a root.
func (m *Manager) Spawn(dev device.Device, desc Descriptor) (*Entity, error) {
	e, err := Spawn(dev, desc)
	if err != nil {
		return nil, err
	}
	if err := m.Add(e); err != nil {
		e.Release(dev)
		return nil, err
	}
	return e, nil
}

// Roots returns the root entities in insertion order. Callers must not
// modify the slice.
func (m *Manager) Roots() []*Entity {
	return m.roots
}

// All returns every entity, depth-first, parents before children.
func (m *Manager) All() []*Entity {
	result := make([]*Entity, 0, len(m.byID))
	for _, r := range m.roots {
		walk(r, func(n *Entity) { result = append(result, n) })
	}
	return result
}

// Pickables returns every entity with a pick volume, in All order.
func (m *Manager) Pickables() []*Entity {
	result := make([]*Entity, 0, len(m.byID))
	for _, r := range m.roots {
		walk(r, func(n *Entity) {
			if n.Bounds != nil {
				result = append(result, n)
			}
		})
	}
	return result
}

// Get returns an entity by ID.
func (m *Manager) Get(id uint32) *Entity {
	return m.byID[id]
}

// Count returns the number of indexed entities.
func (m *Manager) Count() int {
	return len(m.byID)
}

// Release frees every mesh and empties the manager.
func (m *Manager) Release(dev device.Device) {
	for _, r := range m.roots {
		r.Release(dev)
	}
	m.roots = nil
	m.byID = make(map[uint32]*Entity)
}

func walk(e *Entity, fn func(*Entity)) {
	fn(e)
	for _, c := range e.children {
		walk(c, fn)
	}
}
