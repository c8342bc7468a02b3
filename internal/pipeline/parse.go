package pipeline

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"chainlist/internal"
	"chainlist/internal/util"
)

// ParseDescriptor reads dir/name and extracts its chainId and name fields.
// Missing or mistyped fields come back absent; only unreadable files and
// invalid JSON are errors.
func ParseDescriptor(dir, name string) (internal.Descriptor, error) {
	path := filepath.Join(dir, name)
	blob, err := os.ReadFile(path)
	if err != nil {
		return internal.Descriptor{}, &IOError{Op: "read", Path: path, Err: err}
	}
	return decodeDescriptor(path, blob)
}

func decodeDescriptor(path string, blob []byte) (internal.Descriptor, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(blob, &fields); err != nil {
		// Syntax is checked before decoding, so a type error means the
		// document is valid but not an object.
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return internal.Descriptor{}, nil
		}
		return internal.Descriptor{}, &ParseError{Path: path, Err: err}
	}

	var d internal.Descriptor
	if raw, ok := fields["chainId"]; ok {
		d.ChainID = internal.NewChainID(raw)
	}
	if raw, ok := fields["name"]; ok {
		d.Name = stringField(raw)
	}
	return d, nil
}

func stringField(raw json.RawMessage) *string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '"' {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	return util.StringPtr(s)
}
