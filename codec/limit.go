package codec

import "github.com/cockroachdb/errors"

// ErrPayloadTooLarge is returned by LimitCodec when a payload exceeds its bound.
var ErrPayloadTooLarge = errors.New("codec: payload too large")

// LimitCodec wraps another codec and bounds payload sizes in both directions.
// MaxEncode guards writes into a shared store, MaxDecode guards reads from it.
// A bound <= 0 disables that check.
type LimitCodec[V any] struct {
	Inner     Codec[V]
	MaxEncode int
	MaxDecode int
}

func (c LimitCodec[V]) Encode(v V) ([]byte, error) {
	b, err := c.Inner.Encode(v)
	if err != nil {
		return nil, err
	}
	if c.MaxEncode > 0 && len(b) > c.MaxEncode {
		return nil, errors.Wrapf(ErrPayloadTooLarge, "encode: %d > %d", len(b), c.MaxEncode)
	}
	return b, nil
}

func (c LimitCodec[V]) Decode(b []byte) (V, error) {
	if c.MaxDecode > 0 && len(b) > c.MaxDecode {
		var zero V
		return zero, errors.Wrapf(ErrPayloadTooLarge, "decode: %d > %d", len(b), c.MaxDecode)
	}
	return c.Inner.Decode(b)
}

// Textual forwards to Inner so wrapping does not change storage format.
func (c LimitCodec[V]) Textual() bool { return IsTextual(c.Inner) }
