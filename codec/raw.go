package codec

// Bytes is an identity codec for []byte values. Payloads are binary, so the
// Typed wrapper base64 encodes them before they reach a provider.
type Bytes struct{}

func (Bytes) Encode(b []byte) ([]byte, error) { return b, nil }
func (Bytes) Decode(b []byte) ([]byte, error) { return b, nil }

// String stores Go strings as-is. Assumes UTF-8, performs no validation.
type String struct{}

func (String) Encode(s string) ([]byte, error) { return []byte(s), nil }
func (String) Decode(b []byte) (string, error) { return string(b), nil }
func (String) Textual() bool                   { return true }
