// Package codec encodes parameter artifacts. Every artifact is a versioned
// envelope carrying the model kind, the set name, the save time and the
// values; values are decoded lazily so the caller can pick the Go type from
// the schema.
package codec

import (
	"time"

	"github.com/pkg/errors"

	"github.com/mesh-intelligence/modelkit/pkg/types"
)

// Version is the envelope version written by this package.
const Version = 1

// Envelope is the persisted form of one parameter set.
type Envelope struct {
	Version int            `json:"version" msgpack:"version"`
	Kind    string         `json:"kind" msgpack:"kind"`
	Set     string         `json:"set" msgpack:"set"`
	SavedAt time.Time      `json:"saved_at" msgpack:"saved_at"`
	Values  map[string]any `json:"values" msgpack:"values"`
}

// Header is the envelope without its values.
type Header struct {
	Version int
	Kind    string
	Set     string
	SavedAt time.Time
}

// Raw decodes one stored value into ptr.
type Raw func(ptr any) error

// Decoded is an envelope whose values have not been typed yet.
type Decoded struct {
	Header
	Values map[string]Raw
}

// Codec marshals envelopes in one format.
type Codec interface {
	// Name is the format name used in configuration.
	Name() string
	// Ext is the file extension without the dot.
	Ext() string
	Encode(env Envelope) ([]byte, error)
	Decode(data []byte) (Decoded, error)
}

// ErrUnsupportedVersion is returned for envelopes newer than Version.
var ErrUnsupportedVersion = errors.New("unsupported artifact version")

var registry = map[string]Codec{
	types.FormatJSON:    JSON{},
	types.FormatMsgpack: Msgpack{},
}

// ByName returns the codec for a configured format.
func ByName(name string) (Codec, error) {
	c, ok := registry[name]
	if !ok {
		return nil, errors.Wrapf(types.ErrFormatUnknown, "format %q", name)
	}
	return c, nil
}

// ByExt returns the codec whose extension is ext, without the dot.
func ByExt(ext string) (Codec, bool) {
	for _, c := range registry {
		if c.Ext() == ext {
			return c, true
		}
	}
	return nil, false
}

func checkVersion(v int) error {
	if v < 1 || v > Version {
		return errors.Wrapf(ErrUnsupportedVersion, "version %d", v)
	}
	return nil
}
