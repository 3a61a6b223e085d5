package codec

import "github.com/fxamacker/cbor/v2"

// encMode uses Core Deterministic Encoding so identical collections yield identical bytes.
// Timestamps are written as tagged RFC 3339 strings to keep nanoseconds.
var encMode cbor.EncMode

var decMode cbor.DecMode

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	encOptions.Time = cbor.TimeRFC3339Nano
	encOptions.TimeTag = cbor.EncTagRequired
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
}

// CBOR is a compact binary snapshot codec.
type CBOR struct{}

func (CBOR) Name() string { return FormatCBOR }

func (CBOR) Marshal(v any) ([]byte, error) { return encMode.Marshal(v) }

func (CBOR) Unmarshal(data []byte, v any) error { return decMode.Unmarshal(data, v) }
