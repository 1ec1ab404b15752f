package codec

import (
	"time"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/mesh-intelligence/modelkit/pkg/types"
)

// Msgpack writes MessagePack envelopes.
type Msgpack struct{}

func (Msgpack) Name() string { return types.FormatMsgpack }
func (Msgpack) Ext() string  { return "msgpack" }

func (Msgpack) Encode(env Envelope) ([]byte, error) {
	data, err := msgpack.Marshal(&env)
	if err != nil {
		return nil, errors.Wrap(err, "encode msgpack envelope")
	}
	return data, nil
}

type msgpackEnvelope struct {
	Version int                           `msgpack:"version"`
	Kind    string                        `msgpack:"kind"`
	Set     string                        `msgpack:"set"`
	SavedAt time.Time                     `msgpack:"saved_at"`
	Values  map[string]msgpack.RawMessage `msgpack:"values"`
}

func (Msgpack) Decode(data []byte) (Decoded, error) {
	var env msgpackEnvelope
	if err := msgpack.Unmarshal(data, &env); err != nil {
		return Decoded{}, errors.Wrap(err, "decode msgpack envelope")
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
			return msgpack.Unmarshal(raw, ptr)
		}
	}
	return d, nil
}
