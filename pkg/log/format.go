package log

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

const timeFormat = "2006-01-02T15:04:05.000Z07:00"

// JSONFormatter renders one JSON object per entry.
type JSONFormatter struct {
	// IncludeCaller adds the caller file:line under "caller".
	IncludeCaller bool
}

// Format implements Formatter.
func (f *JSONFormatter) Format(entry *Entry) ([]byte, error) {
	m := make(map[string]interface{}, len(entry.Fields)+4)
	for k, v := range entry.Fields {
		m[k] = v
	}
	m["time"] = entry.Timestamp.Format(timeFormat)
	m["level"] = entry.Level.String()
	m["msg"] = entry.Message
	if f.IncludeCaller && entry.Caller != "" {
		m["caller"] = entry.Caller
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("log: json format: %w", err)
	}
	return append(b, '\n'), nil
}

// TextFormatter renders "time LEVEL message key=value ..." lines with keys
// sorted for stable output.
type TextFormatter struct {
	// DisableTimestamp drops the leading timestamp, mostly for tests.
	DisableTimestamp bool
}

// Format implements Formatter.
func (f *TextFormatter) Format(entry *Entry) ([]byte, error) {
	var buf bytes.Buffer
	if !f.DisableTimestamp {
		ts := entry.Timestamp
		if ts.IsZero() {
			ts = time.Now()
		}
		buf.WriteString(ts.Format(timeFormat))
		buf.WriteByte(' ')
	}
	fmt.Fprintf(&buf, "%-5s %s", entry.Level.String(), entry.Message)

	keys := make([]string, 0, len(entry.Fields))
	for k := range entry.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		buf.WriteByte(' ')
		buf.WriteString(k)
		buf.WriteByte('=')
		fmt.Fprint(&buf, entry.Fields[k])
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
