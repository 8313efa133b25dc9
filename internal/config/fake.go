package config

import "sync"

// Memory is an in-memory Store for tests and the simulator.
type Memory struct {
	mu      sync.Mutex
	value   uint8
	present bool

	// Writes counts WriteByte calls.
	Writes int

	// ReadError and WriteError, if set, are returned by the accessors.
	ReadError  error
	WriteError error
}

func NewMemory() *Memory {
	return &Memory{}
}

// Seed places a value in the store without counting as a write.
func (m *Memory) Seed(b uint8) {
	m.mu.Lock()
	m.value = b
	m.present = true
	m.mu.Unlock()
}

func (m *Memory) ReadByte() (byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ReadError != nil {
		return 0, m.ReadError
	}
	if !m.present {
		return 0, ErrNotFound
	}
	return m.value, nil
}

func (m *Memory) WriteByte(b byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteError != nil {
		return m.WriteError
	}
	m.value = b
	m.present = true
	m.Writes++
	return nil
}

// Value returns the stored byte and whether one is present.
func (m *Memory) Value() (uint8, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.value, m.present
}
