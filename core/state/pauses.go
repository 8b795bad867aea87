package state

import "strings"

// IsPaused reports whether module has been paused by an operator. Read
// failures are reported as not paused.
func (m *Manager) IsPaused(module string) bool {
	if m == nil {
		return false
	}
	var paused bool
	ok, err := m.KVGet(prefixed(pausePrefix, []byte(strings.ToLower(strings.TrimSpace(module)))), &paused)
	if err != nil || !ok {
		return false
	}
	return paused
}

// SetPaused toggles the pause flag for module.
func (m *Manager) SetPaused(module string, paused bool) error {
	key := prefixed(pausePrefix, []byte(strings.ToLower(strings.TrimSpace(module))))
	if !paused {
		return m.KVDelete(key)
	}
	return m.KVPut(key, true)
}
