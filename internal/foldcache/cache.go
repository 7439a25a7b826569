// Package foldcache persists computed folding regions on disk so repeated
// runs over unchanged files skip re-parsing. Entries are keyed by content
// hash plus a policy fingerprint; any change to either misses cleanly.
package foldcache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"crease/internal/folding"
)

// Increment when the Payload format changes.
const schemaVersion uint16 = 1

// Key addresses one cache entry.
type Key [32]byte

// Cache stores folding payloads under a key on disk.
// Thread-safe for concurrent access.
type Cache struct {
	mu  sync.RWMutex
	dir string
}

// Payload is the cached result of one extraction.
type Payload struct {
	Schema uint16

	// Provenance, rechecked on read so a stale schema or mismatched
	// binding never serves wrong folds.
	Flavor      string
	Fingerprint string

	// Regions sorted by start offset.
	Regions     []folding.Region
	BadMappings int
}

// Open initializes a cache at the standard XDG location for app.
func Open(app string) (*Cache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	return OpenAt(filepath.Join(base, app))
}

// OpenAt initializes a cache rooted at dir. Tests use this directly.
func OpenAt(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{dir: dir}, nil
}

// NewKey derives the entry key from the file content hash and the policy
// provenance.
func NewKey(contentHash [32]byte, flavor, fingerprint string) Key {
	h := sha256.New()
	h.Write(contentHash[:])
	h.Write([]byte(flavor))
	h.Write([]byte{0})
	h.Write([]byte(fingerprint))
	var key Key
	copy(key[:], h.Sum(nil))
	return key
}

func (c *Cache) pathFor(key Key) string {
	// A "regions" subdirectory keeps the cache dir legible and easy to clear.
	return filepath.Join(c.dir, "regions", hex.EncodeToString(key[:])+".mp")
}

// Put serializes and writes a payload. The write is atomic: encode to a
// temp file, then rename into place.
func (c *Cache) Put(key Key, payload *Payload) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	payload.Schema = schemaVersion
	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		_ = os.Remove(f.Name())
	}()

	if err := msgpack.NewEncoder(f).Encode(payload); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), p)
}

// Get reads a payload. A missing entry or a schema/provenance mismatch is a
// miss, not an error.
func (c *Cache) Get(key Key, flavor, fingerprint string, out *Payload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer func() {
		_ = f.Close()
	}()

	if err := msgpack.NewDecoder(f).Decode(out); err != nil {
		return false, fmt.Errorf("decode cached folds: %w", err)
	}
	if out.Schema != schemaVersion || out.Flavor != flavor || out.Fingerprint != fingerprint {
		return false, nil
	}
	return true, nil
}

// DropAll invalidates the whole cache, useful after format changes.
func (c *Cache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		return err
	}
	return os.RemoveAll(old)
}
