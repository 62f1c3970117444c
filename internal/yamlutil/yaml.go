// Package yamlutil decodes YAML configuration files behind a small API so the
// rest of the module does not import the YAML library directly.
package yamlutil

import (
	"errors"
	"fmt"

	"github.com/goccy/go-yaml"
)

// MaxInputSize bounds the accepted document size (256KB).
var MaxInputSize = 256 << 10

var (
	ErrEmptyInput  = errors.New("yamlutil: empty document")
	ErrNilTarget   = errors.New("yamlutil: nil decode target")
	ErrInputTooBig = errors.New("yamlutil: document too large")
	ErrDecode      = errors.New("yamlutil: invalid document")
)

// DecodeStrict decodes data into v, rejecting keys v does not declare.
// Decode errors carry the offending source lines.
func DecodeStrict(data []byte, v any) error {
	switch {
	case len(data) == 0:
		return ErrEmptyInput
	case v == nil:
		return ErrNilTarget
	case len(data) > MaxInputSize:
		return fmt.Errorf("%w: %d bytes (max %d)", ErrInputTooBig, len(data), MaxInputSize)
	}

	if err := yaml.UnmarshalWithOptions(data, v, yaml.Strict()); err != nil {
		return fmt.Errorf("%w:\n%s", ErrDecode, yaml.FormatError(err, false, true))
	}
	return nil
}
