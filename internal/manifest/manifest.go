// Package manifest records partitioned writes so they can be found and
// reassembled later. The master key is never stored.
package manifest

import (
	"errors"
	"fmt"
	"time"

	"github.com/rzbill/multipart/internal/codec"
	pebblestore "github.com/rzbill/multipart/internal/storage/pebble"
	"github.com/rzbill/multipart/pkg/keys"
)

var (
	ErrNotFound    = errors.New("manifest: not found")
	ErrInvalidName = errors.New("manifest: name must not be empty")
)

// Manifest describes one paged stream.
type Manifest struct {
	Name       string `json:"name"`
	Namespace  string `json:"namespace"`
	PageSize   uint64 `json:"pageSize"`
	BufferSize int    `json:"bufferSize"`
	// Size is the source size when it was known.
	Size      uint64 `json:"size"`
	SizeKnown bool   `json:"sizeKnown"`
	// Offset is the resume checkpoint: every byte before it is in a page log.
	Offset     uint64   `json:"offset"`
	Pages      uint64   `json:"pages"`
	PublicKeys []string `json:"publicKeys"`
	SessionID  string   `json:"sessionId"`
	Complete   bool     `json:"complete"`

	CreatedAtMs int64 `json:"createdAtMs"`
	UpdatedAtMs int64 `json:"updatedAtMs"`
}

// Defaults returns a manifest with the default paging parameters.
func Defaults() Manifest {
	return Manifest{
		Namespace:  keys.DefaultNamespace,
		PageSize:   10 * 1024 * 1024,
		BufferSize: 4096,
	}
}

var manifestPrefix = []byte("manifest/")

func manifestKey(name string) []byte {
	k := make([]byte, 0, len(manifestPrefix)+len(name))
	k = append(k, manifestPrefix...)
	k = append(k, name...)
	return k
}

// SetKeys records the page public keys in page order.
func (m *Manifest) SetKeys(pubs []keys.PublicKey) {
	m.PublicKeys = make([]string, len(pubs))
	for i, p := range pubs {
		m.PublicKeys[i] = p.String()
	}
	m.Pages = uint64(len(pubs))
}

// Keys parses PublicKeys.
func (m Manifest) Keys() ([]keys.PublicKey, error) {
	out := make([]keys.PublicKey, len(m.PublicKeys))
	for i, s := range m.PublicKeys {
		p, err := keys.ParsePublicKey(s)
		if err != nil {
			return nil, fmt.Errorf("manifest %s: page %d: %w", m.Name, i+1, err)
		}
		out[i] = p
	}
	return out, nil
}

// Ensure returns the manifest for name, creating it from Defaults if absent.
// Idempotent.
func Ensure(db *pebblestore.DB, name string) (Manifest, error) {
	m, err := Load(db, name)
	if err == nil || !errors.Is(err, ErrNotFound) {
		return m, err
	}
	m = Defaults()
	m.Name = name
	m.CreatedAtMs = time.Now().UnixMilli()
	if err := Save(db, &m); err != nil {
		return Manifest{}, err
	}
	return m, nil
}

// Save writes m and stamps UpdatedAtMs.
func Save(db *pebblestore.DB, m *Manifest) error {
	if m.Name == "" {
		return ErrInvalidName
	}
	now := time.Now().UnixMilli()
	if m.CreatedAtMs == 0 {
		m.CreatedAtMs = now
	}
	m.UpdatedAtMs = now
	b, err := codec.Marshal(m)
	if err != nil {
		return fmt.Errorf("manifest %s: encode: %w", m.Name, err)
	}
	return db.Set(manifestKey(m.Name), b)
}

// Load reads the manifest for name.
func Load(db *pebblestore.DB, name string) (Manifest, error) {
	if name == "" {
		return Manifest{}, ErrInvalidName
	}
	b, err := db.Get(manifestKey(name))
	if err != nil {
		if errors.Is(err, pebblestore.ErrNotFound) {
			return Manifest{}, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return Manifest{}, err
	}
	var m Manifest
	if err := codec.Unmarshal(b, &m); err != nil {
		return Manifest{}, fmt.Errorf("manifest %s: decode: %w", name, err)
	}
	return m, nil
}

// List returns every manifest ordered by name.
func List(db *pebblestore.DB) ([]Manifest, error) {
	var (
		out     []Manifest
		scanErr error
	)
	err := db.ScanPrefix(manifestPrefix, func(k, v []byte) bool {
		var m Manifest
		if err := codec.Unmarshal(v, &m); err != nil {
			scanErr = fmt.Errorf("manifest %s: decode: %w", k[len(manifestPrefix):], err)
			return false
		}
		out = append(out, m)
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, scanErr
}

// Delete removes the manifest for name. The page logs are left untouched.
func Delete(db *pebblestore.DB, name string) error {
	if _, err := Load(db, name); err != nil {
		return err
	}
	return db.Delete(manifestKey(name))
}
