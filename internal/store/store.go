// Package store persists user preferences and the blocklist in a Pebble
// database under the data directory.
package store

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	"ble-dial.klederson.com/internal/logger"
	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
)

const (
	blockedPrefix = "blocked/"

	keyUsableSlots  = "settings/usable_slots"
	keyNumDivisions = "settings/num_divisions" // legacy
	keyChime        = "settings/chime"
)

// ErrClosed is returned when the store has been closed.
var ErrClosed = errors.New("store closed")

// BlockedDevice is an address the user asked to hide from the dial.
type BlockedDevice struct {
	Address string `json:"address"`
	Name    string `json:"name"`
}

// Store wraps a Pebble handle. Methods are safe for concurrent use; Pebble
// serializes writes internally.
type Store struct {
	db *pebble.DB
}

// Open opens (or creates) the database at path.
func Open(path string) (*Store, error) {
	return open(path, &pebble.Options{})
}

// OpenInMemory opens a volatile database. Used by tests and demo runs
// that should not touch the disk.
func OpenInMemory() (*Store, error) {
	return open("", &pebble.Options{FS: vfs.NewMem()})
}

func open(path string, opts *pebble.Options) (*Store, error) {
	logger.Info("opening_pebble_db", "path", path)
	db, err := pebble.Open(path, opts)
	if err != nil {
		logger.Error("pebble_open_failed", "path", path, "error", err)
		return nil, fmt.Errorf("open preferences db: %w", err)
	}
	return &Store{db: db}, nil
}

// Close flushes and closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	logger.Info("pebble_closed")
	return err
}

func (s *Store) get(key string) ([]byte, bool, error) {
	if s.db == nil {
		return nil, false, ErrClosed
	}
	v, closer, err := s.db.Get([]byte(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	defer closer.Close()
	return append([]byte(nil), v...), true, nil
}

func (s *Store) set(key string, val []byte) error {
	if s.db == nil {
		return ErrClosed
	}
	return s.db.Set([]byte(key), val, pebble.Sync)
}

// Block hides address from the dial. The name is kept for display only.
func (s *Store) Block(address, name string) error {
	if address == "" {
		return fmt.Errorf("block: empty address")
	}
	if err := s.set(blockedPrefix+address, []byte(name)); err != nil {
		return fmt.Errorf("block %s: %w", address, err)
	}
	logger.Info("device_blocked", "address", address)
	return nil
}

// Unblock removes address from the blocklist. It reports whether the
// address was blocked.
func (s *Store) Unblock(address string) (bool, error) {
	_, ok, err := s.get(blockedPrefix + address)
	if err != nil || !ok {
		return false, err
	}
	if err := s.db.Delete([]byte(blockedPrefix+address), pebble.Sync); err != nil {
		return false, fmt.Errorf("unblock %s: %w", address, err)
	}
	logger.Info("device_unblocked", "address", address)
	return true, nil
}

// IsBlocked reports whether address is on the blocklist.
func (s *Store) IsBlocked(address string) (bool, error) {
	_, ok, err := s.get(blockedPrefix + address)
	return ok, err
}

// Blocked returns the blocklist ordered by address.
func (s *Store) Blocked() ([]BlockedDevice, error) {
	if s.db == nil {
		return nil, ErrClosed
	}
	prefix := []byte(blockedPrefix)
	iter, err := s.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out []BlockedDevice
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		out = append(out, BlockedDevice{
			Address: string(iter.Key()[len(prefix):]),
			Name:    string(iter.Value()),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out, iter.Error()
}

// BlockedSet returns the blocked addresses as a lookup set.
func (s *Store) BlockedSet() (map[string]bool, error) {
	list, err := s.Blocked()
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(list))
	for _, b := range list {
		set[b.Address] = true
	}
	return set, nil
}

// ClearBlocked empties the blocklist and returns how many entries it held.
func (s *Store) ClearBlocked() (int, error) {
	list, err := s.Blocked()
	if err != nil {
		return 0, err
	}
	if len(list) == 0 {
		return 0, nil
	}
	batch := s.db.NewBatch()
	defer batch.Close()
	for _, b := range list {
		if err := batch.Delete([]byte(blockedPrefix+b.Address), nil); err != nil {
			return 0, err
		}
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return 0, fmt.Errorf("clear blocklist: %w", err)
	}
	logger.Info("blocklist_cleared", "count", len(list))
	return len(list), nil
}
