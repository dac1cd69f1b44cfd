package paging

import (
	"errors"
	"fmt"

	"github.com/rzbill/multipart/pkg/keys"
	logpkg "github.com/rzbill/multipart/pkg/log"
)

const (
	DefaultBufferSize = 4096
	DefaultPageSize   = 10 * 1024 * 1024
)

// ErrInvalidConfig is wrapped by every configuration error.
var ErrInvalidConfig = errors.New("paging: invalid config")

// Config configures a Session.
type Config struct {
	// BufferSize is the most bytes requested per source read.
	BufferSize int
	// PageSize is the most bytes per page.
	PageSize uint64
	// Offset is where reading starts; pages before it are never touched.
	Offset uint64
	// MasterKey must be 32 bytes when set; a random key is generated otherwise.
	MasterKey []byte
	// Namespace separates key derivations of unrelated uses of one master key.
	Namespace string

	Source Source
	// Stat reports the source size. When nil and Source implements Stater,
	// Source is used. When neither, the size is unknown.
	Stat Stater
	// Stats skips the stat call when the size is already known.
	Stats *Stats
	Store Store

	// AllowPageOverflow disables clamping reads to the end of the current
	// page. A chunk that crosses a boundary then lands entirely in the page
	// it started in, so pages stay within PageSize only when BufferSize
	// divides PageSize.
	AllowPageOverflow bool

	// OnPage is called once for each page entered, after its log is ready.
	OnPage func(page uint64, log Log)
	// OnSettle is called once when a page is no longer active.
	OnSettle func(page uint64, log Log)

	Logger logpkg.Logger
}

// DefaultConfig returns a Config with default sizes and namespace. Source
// and Store must still be set.
func DefaultConfig() Config {
	return Config{
		BufferSize: DefaultBufferSize,
		PageSize:   DefaultPageSize,
		Namespace:  keys.DefaultNamespace,
	}
}

// Validate checks the config without side effects.
func (c Config) Validate() error {
	if c.BufferSize <= 0 {
		return fmt.Errorf("%w: bufferSize must be > 0, got %d", ErrInvalidConfig, c.BufferSize)
	}
	if c.PageSize == 0 {
		return fmt.Errorf("%w: pageSize must be > 0", ErrInvalidConfig)
	}
	if c.MasterKey != nil && len(c.MasterKey) != keys.MasterKeySize {
		return fmt.Errorf("%w: masterKey must be %d bytes, got %d", ErrInvalidConfig, keys.MasterKeySize, len(c.MasterKey))
	}
	if c.Namespace == "" {
		return fmt.Errorf("%w: namespace must not be empty", ErrInvalidConfig)
	}
	if c.Source == nil {
		return fmt.Errorf("%w: source is required", ErrInvalidConfig)
	}
	if c.Store == nil {
		return fmt.Errorf("%w: store is required", ErrInvalidConfig)
	}
	return nil
}

// stater resolves the stat capability.
func (c Config) stater() Stater {
	if c.Stat != nil {
		return c.Stat
	}
	if s, ok := c.Source.(Stater); ok {
		return s
	}
	return nil
}

// requestLength returns how many bytes to ask for at offset.
func (c Config) requestLength(offset uint64, stats *Stats) int {
	length := uint64(c.BufferSize)
	if c.PageSize < length {
		length = c.PageSize
	}
	if !c.AllowPageOverflow {
		if rest := c.PageSize - offset%c.PageSize; rest < length {
			length = rest
		}
	}
	if stats != nil && offset+length > stats.Size {
		length = stats.Size - offset
	}
	return int(length)
}
