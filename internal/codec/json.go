package codec

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/mesh-intelligence/modelkit/pkg/types"
)

// JSON writes indented JSON envelopes.
type JSON struct{}

func (JSON) Name() string { return types.FormatJSON }
func (JSON) Ext() string  { return "json" }

func (JSON) Encode(env Envelope) ([]byte, error) {
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "encode json envelope")
	}
	return append(data, '\n'), nil
}

type jsonEnvelope struct {
	Version int                        `json:"version"`
	Kind    string                     `json:"kind"`
	Set     string                     `json:"set"`
	SavedAt time.Time                  `json:"saved_at"`
	Values  map[string]json.RawMessage `json:"values"`
}

func (JSON) Decode(data []byte) (Decoded, error) {
	var env jsonEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Decoded{}, errors.Wrap(err, "decode json envelope")
	}
	if err := checkVersion(env.Version); err != nil {
		return Decoded{}, err
	}
	d := Decoded{
		Header: Header{Version: env.Version, Kind: env.Kind, Set: env.Set, SavedAt: env.SavedAt},
		Values: make(map[string]Raw, len(env.Values)),
	}
	for name, raw := range env.Values {
		d.Values[name] = func(ptr any) error {
			return json.Unmarshal(raw, ptr)
		}
	}
	return d, nil
}
