// Package hujsonx contains github.com/tailscale/hujson extensions.
package hujsonx

import (
	"bytes"
	"encoding/json"

	"github.com/tailscale/hujson"
)

// Unmarshal is like json.Unmarshal except that it accepts the human JSON
// extensions (comments and trailing commas) and rejects unknown fields.
func Unmarshal(data []byte, v any) error {
	value, err := hujson.Parse(data)
	if err != nil {
		return err
	}
	value.Standardize()
	decoder := json.NewDecoder(bytes.NewReader(value.Pack()))
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}
