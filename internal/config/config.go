// Package config persists the stay-on wait duration, a single byte of
// non-volatile state.
package config

import "errors"

// DefaultWaitMinutes is used when the store has never been written.
const DefaultWaitMinutes = 30

// ErrNotFound is returned by a Store that holds no value yet.
var ErrNotFound = errors.New("config: no stored value")

// Store is a single-byte non-volatile store. It is read once at boot and
// written once per successful programming sequence.
type Store interface {
	ReadByte() (byte, error)
	WriteByte(b byte) error
}

// Load returns the persisted wait minutes, or DefaultWaitMinutes from an
// empty store. The byte is used as stored, without range checks; the
// programming protocol clamps values before they are written, and
// whatever is found at boot is honored as-is.
func Load(s Store) (uint8, error) {
	b, err := s.ReadByte()
	if errors.Is(err, ErrNotFound) {
		return DefaultWaitMinutes, nil
	}
	if err != nil {
		return 0, err
	}
	return b, nil
}

// Save persists the wait minutes.
func Save(s Store, minutes uint8) error {
	return s.WriteByte(minutes)
}
