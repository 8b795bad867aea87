package rpc

import (
	"errors"
	"sync"
	"time"
)

var errReplayedSignature = errors.New("signature already used")

// replayCache remembers signed requests until their timestamp leaves the skew
// window, so a captured request cannot be submitted twice.
type replayCache struct {
	mu   sync.Mutex
	seen map[string]time.Time
}

// replayKey identifies a request by signer and signed digest, independent of
// how the signature header was encoded.
func replayKey(signer [20]byte, digest []byte) string {
	key := make([]byte, 0, len(signer)+len(digest))
	key = append(key, signer[:]...)
	key = append(key, digest...)
	return string(key)
}

func newReplayCache() *replayCache {
	return &replayCache{seen: make(map[string]time.Time)}
}

func (c *replayCache) remember(key string, expires, now time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for seen, expiry := range c.seen {
		if !expiry.After(now) {
			delete(c.seen, seen)
		}
	}
	if _, ok := c.seen[key]; ok {
		return errReplayedSignature
	}
	c.seen[key] = expires
	return nil
}

func (c *replayCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.seen)
}
