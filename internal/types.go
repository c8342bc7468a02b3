package internal

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// AbsentValue is how an identifier missing from its descriptor is rendered.
const AbsentValue = "undefined"

// ChainID holds a descriptor's chainId token exactly as it appeared in the
// source file. The zero value means the field was absent.
type ChainID struct {
	raw json.RawMessage
}

// NewChainID wraps a raw JSON token. A nil token yields an absent id.
func NewChainID(raw json.RawMessage) ChainID {
	if raw == nil {
		return ChainID{}
	}
	trimmed := bytes.TrimSpace(raw)
	cp := make(json.RawMessage, len(trimmed))
	copy(cp, trimmed)
	return ChainID{raw: cp}
}

// IntChainID is a convenience for well-formed numeric ids.
func IntChainID(id int64) ChainID {
	return ChainID{raw: json.RawMessage(strconv.FormatInt(id, 10))}
}

func (c ChainID) IsAbsent() bool {
	return c.raw == nil
}

// Raw returns the token bytes, nil when absent.
func (c ChainID) Raw() json.RawMessage {
	return c.raw
}

// Int64 reports the id as an integer when the token is a plain JSON integer.
func (c ChainID) Int64() (int64, bool) {
	if c.raw == nil {
		return 0, false
	}
	v, err := strconv.ParseInt(string(c.raw), 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func (c ChainID) String() string {
	if c.raw == nil {
		return AbsentValue
	}
	if len(c.raw) > 0 && c.raw[0] == '"' {
		var s string
		if err := json.Unmarshal(c.raw, &s); err == nil {
			return s
		}
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, c.raw); err == nil {
		return buf.String()
	}
	return string(c.raw)
}

// Descriptor is the part of one network descriptor file the pipeline consumes.
type Descriptor struct {
	ChainID ChainID
	Name    *string
}

// ChainEntry is one output pair. Name is always non-empty.
type ChainEntry struct {
	Name string
	ID   ChainID
}

type RunRecord struct {
	ID         int64
	TraceID    string
	SourceDir  string
	Revision   string
	EntryCount int
	DurationMs int64
	CreatedAt  string
}
