package log

import (
	"fmt"
	"time"
)

// Field is a single structured key/value pair.
type Field struct {
	Key   string
	Value interface{}
}

func Str(key, value string) Field             { return Field{Key: key, Value: value} }
func Int(key string, value int) Field         { return Field{Key: key, Value: value} }
func Int64(key string, value int64) Field     { return Field{Key: key, Value: value} }
func Uint64(key string, value uint64) Field   { return Field{Key: key, Value: value} }
func Bool(key string, value bool) Field       { return Field{Key: key, Value: value} }
func Any(key string, value interface{}) Field { return Field{Key: key, Value: value} }

// Duration records d in its String form so text and JSON output agree.
func Duration(key string, d time.Duration) Field { return Field{Key: key, Value: d.String()} }

// Hex renders b as lowercase hex.
func Hex(key string, b []byte) Field { return Field{Key: key, Value: fmt.Sprintf("%x", b)} }

// Err attaches an error under the "error" key.
func Err(err error) Field { return Field{Key: ErrorKey, Value: err} }

// Component tags the entry with a component name.
func Component(name string) Field { return Field{Key: ComponentKey, Value: name} }
