package state

import (
	"errors"
	"fmt"
)

// StateVersion is the schema layout this binary reads and writes. Bump it on
// any incompatible change to the stored records.
const StateVersion uint32 = 1

// ErrStateVersionMismatch is returned when the database was written by an
// incompatible schema.
var ErrStateVersionMismatch = errors.New("state: schema version mismatch")

var errNoManager = errors.New("state: manager unavailable")

// SetStateVersion stages version as the stored schema marker.
func (m *Manager) SetStateVersion(version uint32) error {
	if m == nil {
		return errNoManager
	}
	return m.KVPut(stateVersionKey, version)
}

// StateVersion returns the stored schema marker. ok is false on a fresh
// database.
func (m *Manager) StateVersion() (version uint32, ok bool, err error) {
	if m == nil {
		return 0, false, errNoManager
	}
	ok, err = m.KVGet(stateVersionKey, &version)
	return version, ok, err
}

// EnsureStateVersion stamps a fresh database with StateVersion and rejects a
// database stamped with anything else unless allowMigrate is set.
func EnsureStateVersion(m *Manager, allowMigrate bool) error {
	stored, ok, err := m.StateVersion()
	switch {
	case err != nil:
		return err
	case !ok:
		if err := m.SetStateVersion(StateVersion); err != nil {
			return err
		}
		return m.Commit()
	case stored != StateVersion && !allowMigrate:
		return fmt.Errorf("%w: stored %d, binary %d", ErrStateVersionMismatch, stored, StateVersion)
	}
	return nil
}
