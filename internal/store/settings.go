package store

import (
	"fmt"
	"strconv"

	"ble-dial.klederson.com/internal/logger"
)

// MigrateDivisions maps a legacy division count to a usable-slot count.
// Unknown values return -1.
func MigrateDivisions(divisions int) int {
	switch divisions {
	case 12:
		return 10
	case 24:
		return 22
	case 36:
		return 32
	default:
		return -1
	}
}

// Capacity returns the saved usable-slot count. A legacy division count
// is migrated and rewritten on first read. ok is false when nothing
// usable is stored.
func (s *Store) Capacity() (capacity int, ok bool, err error) {
	if n, found, err := s.getInt(keyUsableSlots); err != nil || found {
		return n, found, err
	}

	legacy, found, err := s.getInt(keyNumDivisions)
	if err != nil || !found {
		return 0, false, err
	}
	migrated := MigrateDivisions(legacy)
	if migrated < 0 {
		logger.Warn("legacy_divisions_unknown", "divisions", legacy)
		return 0, false, nil
	}
	if err := s.SetCapacity(migrated); err != nil {
		return 0, false, err
	}
	if err := s.db.Delete([]byte(keyNumDivisions), nil); err != nil {
		return 0, false, err
	}
	logger.Info("legacy_divisions_migrated", "divisions", legacy, "capacity", migrated)
	return migrated, true, nil
}

// SetCapacity saves the usable-slot count.
func (s *Store) SetCapacity(capacity int) error {
	if err := s.set(keyUsableSlots, []byte(strconv.Itoa(capacity))); err != nil {
		return fmt.Errorf("save capacity: %w", err)
	}
	return nil
}

// SetLegacyDivisions writes the pre-migration divisions key, standing in
// for a store written by an older release.
func (s *Store) SetLegacyDivisions(divisions int) error {
	return s.set(keyNumDivisions, []byte(strconv.Itoa(divisions)))
}

// Chime returns the saved chime preference.
func (s *Store) Chime() (on bool, ok bool, err error) {
	v, found, err := s.get(keyChime)
	if err != nil || !found {
		return false, false, err
	}
	on, err = strconv.ParseBool(string(v))
	if err != nil {
		return false, false, fmt.Errorf("corrupt chime setting %q: %w", v, err)
	}
	return on, true, nil
}

// SetChime saves the chime preference.
func (s *Store) SetChime(on bool) error {
	if err := s.set(keyChime, []byte(strconv.FormatBool(on))); err != nil {
		return fmt.Errorf("save chime: %w", err)
	}
	return nil
}

func (s *Store) getInt(key string) (int, bool, error) {
	v, found, err := s.get(key)
	if err != nil || !found {
		return 0, false, err
	}
	n, err := strconv.Atoi(string(v))
	if err != nil {
		return 0, false, fmt.Errorf("corrupt setting %s=%q: %w", key, v, err)
	}
	return n, true, nil
}
