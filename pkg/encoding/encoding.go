// Package encoding picks a serialisation format by name.
package encoding

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

var ErrUnknownFormat = errors.New("unknown encoding format")

// Format names a supported encoding.
type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
)

// Formats lists every supported format.
var Formats = []Format{JSON, YAML}

// ParseFormat accepts json, yaml or yml in any case.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// ContentType returns the HTTP media type of f.
func (f Format) ContentType() string {
	if f == YAML {
		return "application/yaml"
	}
	return "application/json"
}

// Encoder writes values in one format.
type Encoder interface {
	Encode(w io.Writer, v any) error
	Format() Format
}

// Decoder reads values in one format.
type Decoder interface {
	Decode(r io.Reader, v any) error
}

// Codec is both.
type Codec interface {
	Encoder
	Decoder
}

// For returns the codec of f.
func For(f Format) (Codec, error) {
	switch f {
	case JSON:
		return jsonCodec{}, nil
	case YAML:
		return yamlCodec{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

// Marshal encodes v in f.
func Marshal(f Format, v any) ([]byte, error) {
	c, err := For(f)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err = c.Encode(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type jsonCodec struct{}

func (jsonCodec) Format() Format { return JSON }

func (jsonCodec) Encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (jsonCodec) Decode(r io.Reader, v any) error {
	return json.NewDecoder(r).Decode(v)
}

type yamlCodec struct{}

func (yamlCodec) Format() Format { return YAML }

func (yamlCodec) Encode(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func (yamlCodec) Decode(r io.Reader, v any) error {
	return yaml.NewDecoder(r).Decode(v)
}
