package devserver

import (
	"errors"
	"sync"
)

var errNotFound = errors.New("course not found")

// Record is the backend's view of a course, in wire field names.
type Record struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Image       string  `json:"image"`
}

// memStore keeps records in insertion order.
type memStore struct {
	mu      sync.RWMutex
	nextID  int
	records []Record
}

func newMemStore() *memStore {
	return &memStore{nextID: 1}
}

func (m *memStore) list() []Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Record, len(m.records))
	copy(out, m.records)
	return out
}

func (m *memStore) create(r Record) Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID = m.nextID
	m.nextID++
	m.records = append(m.records, r)
	return r
}

func (m *memStore) update(id int, r Record) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.records {
		if m.records[i].ID == id {
			r.ID = id
			m.records[i] = r
			return r, nil
		}
	}
	return Record{}, errNotFound
}

func (m *memStore) delete(id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.records {
		if m.records[i].ID == id {
			m.records = append(m.records[:i], m.records[i+1:]...)
			return nil
		}
	}
	return errNotFound
}
