package keys

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"

	"github.com/zeebo/blake3"
)

// MasterKeySize is the required master key length in bytes.
const MasterKeySize = 32

// DefaultNamespace is the namespace used when none is configured.
const DefaultNamespace = "multipart"

// MasterKey is the secret all page keypairs are derived from.
type MasterKey [MasterKeySize]byte

// String returns the hex form. Callers must not log it.
func (k MasterKey) String() string { return hex.EncodeToString(k[:]) }

// ErrInvalidMasterKey is returned for master keys of the wrong length.
var ErrInvalidMasterKey = errors.New("keys: master key must be 32 bytes")

// GenerateMasterKey returns a fresh random master key.
func GenerateMasterKey() (MasterKey, error) {
	var k MasterKey
	if _, err := rand.Read(k[:]); err != nil {
		return MasterKey{}, fmt.Errorf("keys: generating master key: %w", err)
	}
	return k, nil
}

// MasterKeyFromBytes copies b into a MasterKey.
func MasterKeyFromBytes(b []byte) (MasterKey, error) {
	var k MasterKey
	if len(b) != MasterKeySize {
		return k, fmt.Errorf("%w: got %d", ErrInvalidMasterKey, len(b))
	}
	copy(k[:], b)
	return k, nil
}

// ParseMasterKey parses a 64-character hex master key.
func ParseMasterKey(s string) (MasterKey, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return MasterKey{}, fmt.Errorf("keys: parsing master key: %w", err)
	}
	return MasterKeyFromBytes(b)
}

// PublicKey is a 32-byte ed25519 public key; it addresses a page log.
type PublicKey [ed25519.PublicKeySize]byte

func (p PublicKey) String() string { return hex.EncodeToString(p[:]) }

// Short returns the first 12 hex characters, for log output.
func (p PublicKey) Short() string { return hex.EncodeToString(p[:6]) }

// Verify reports whether sig is a valid signature of msg by p.
func (p PublicKey) Verify(msg, sig []byte) bool {
	return ed25519.Verify(ed25519.PublicKey(p[:]), msg, sig)
}

// ParsePublicKey parses a 64-character hex public key.
func ParsePublicKey(s string) (PublicKey, error) {
	var p PublicKey
	b, err := hex.DecodeString(s)
	if err != nil {
		return p, fmt.Errorf("keys: parsing public key: %w", err)
	}
	if len(b) != len(p) {
		return p, fmt.Errorf("keys: public key is %d bytes, want %d", len(b), len(p))
	}
	copy(p[:], b)
	return p, nil
}

// KeyPair is a page's signing keypair. SecretKey is nil for a pair that
// only carries a public key.
type KeyPair struct {
	PublicKey PublicKey
	SecretKey ed25519.PrivateKey
}

// CanSign reports whether the pair holds a secret key.
func (kp KeyPair) CanSign() bool { return len(kp.SecretKey) == ed25519.PrivateKeySize }

// Sign signs msg. It panics if the pair has no secret key.
func (kp KeyPair) Sign(msg []byte) []byte {
	return ed25519.Sign(kp.SecretKey, msg)
}

// PublicOnly returns a copy of kp without the secret key.
func (kp KeyPair) PublicOnly() KeyPair { return KeyPair{PublicKey: kp.PublicKey} }

// FromSeed expands a 32-byte seed into an ed25519 keypair.
func FromSeed(seed [32]byte) KeyPair {
	sk := ed25519.NewKeyFromSeed(seed[:])
	var kp KeyPair
	copy(kp.PublicKey[:], sk.Public().(ed25519.PublicKey))
	kp.SecretKey = sk
	return kp
}

// DeriveSeed computes the seed for (namespace, master, context).
func DeriveSeed(namespace string, master MasterKey, context string) [32]byte {
	hasher, err := blake3.NewKeyed(master[:])
	if err != nil {
		// NewKeyed only fails on key length, which MasterKey fixes.
		panic("keys: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	writeField(hasher, namespace)
	writeField(hasher, context)

	var seed [32]byte
	copy(seed[:], hasher.Sum(nil))
	return seed
}

func writeField(h *blake3.Hasher, s string) {
	var n [4]byte
	binary.BigEndian.PutUint32(n[:], uint32(len(s)))
	_, _ = h.Write(n[:])
	_, _ = h.Write([]byte(s))
}

// PageContext returns the derivation context for a page.
func PageContext(pageSize, page uint64) string {
	return strconv.FormatUint(pageSize, 10) + "/" + strconv.FormatUint(page, 10)
}

// Derive returns the keypair for a 1-based page of a stream paged with
// pageSize under namespace and master.
func Derive(namespace string, master MasterKey, pageSize, page uint64) KeyPair {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return FromSeed(DeriveSeed(namespace, master, PageContext(pageSize, page)))
}

// DerivePages returns the keypairs for pages 1..pages.
func DerivePages(namespace string, master MasterKey, pageSize, pages uint64) []KeyPair {
	out := make([]KeyPair, 0, pages)
	for page := uint64(1); page <= pages; page++ {
		out = append(out, Derive(namespace, master, pageSize, page))
	}
	return out
}
