package cachekit

import (
	"context"
	"encoding/base64"

	"github.com/cockroachdb/errors"

	"github.com/unkn0wn-root/cachekit/codec"
)

// Typed stores values of type V in a Cache through a codec.
// Binary codec output is base64 encoded so it fits text value columns.
type Typed[V any] struct {
	c       Cache
	codec   codec.Codec[V]
	textual bool
}

func NewTyped[V any](c Cache, cd codec.Codec[V]) *Typed[V] {
	return &Typed[V]{c: c, codec: cd, textual: codec.IsTextual(cd)}
}

func (t *Typed[V]) Get(ctx context.Context, key string) (V, bool, error) {
	var zero V
	s, ok, err := t.c.Get(ctx, key)
	if err != nil || !ok {
		return zero, false, err
	}
	v, err := t.decode(s)
	if err != nil {
		return zero, false, errors.Wrapf(err, "decode value of %q", key)
	}
	return v, true, nil
}

func (t *Typed[V]) Set(ctx context.Context, key string, v V, expireInSeconds int) error {
	s, err := t.encode(v)
	if err != nil {
		return errors.Wrapf(err, "encode value of %q", key)
	}
	_, err = t.c.Set(ctx, key, s, expireInSeconds, true)
	return err
}

func (t *Typed[V]) SetIfNotExists(ctx context.Context, key string, v V, expireInSeconds int) (bool, error) {
	s, err := t.encode(v)
	if err != nil {
		return false, errors.Wrapf(err, "encode value of %q", key)
	}
	return t.c.SetIfNotExists(ctx, key, s, expireInSeconds)
}

func (t *Typed[V]) encode(v V) (string, error) {
	b, err := t.codec.Encode(v)
	if err != nil {
		return "", err
	}
	if t.textual {
		return string(b), nil
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

func (t *Typed[V]) decode(s string) (V, error) {
	if t.textual {
		return t.codec.Decode([]byte(s))
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		var zero V
		return zero, err
	}
	return t.codec.Decode(b)
}
