// Package codec converts typed values to and from the string payloads
// stored by cachekit providers.
package codec

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}

// Textual is implemented by codecs whose output is always valid UTF-8 text.
// Their payloads are stored verbatim; other payloads are base64 wrapped so
// they survive text columns.
type Textual interface {
	Textual() bool
}

// IsTextual reports whether c declares text-safe output.
func IsTextual(c any) bool {
	t, ok := c.(Textual)
	return ok && t.Textual()
}
