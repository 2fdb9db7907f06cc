package events

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	opts := cbor.CoreDetEncOptions()
	opts.Time = cbor.TimeRFC3339Nano
	var err error
	if encMode, err = opts.EncMode(); err != nil {
		panic(err)
	}
	if decMode, err = (cbor.DecOptions{}).DecMode(); err != nil {
		panic(err)
	}
}

// Encode serializes ev deterministically: equal events give equal bytes.
func Encode(ev CompanyEvent) ([]byte, error) {
	b, err := encMode.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", ev.Kind, err)
	}
	return b, nil
}

// Decode parses a payload produced by Encode.
func Decode(b []byte) (CompanyEvent, error) {
	var ev CompanyEvent
	if err := decMode.Unmarshal(b, &ev); err != nil {
		return CompanyEvent{}, fmt.Errorf("decode company event: %w", err)
	}
	return ev, nil
}
