// Package codec implements the tagged wire format used to store cache
// values: a single prefix byte identifying how the remainder of the
// payload was produced, followed by the payload itself.
//
// Tags:
//
//	J - JSON
//	Z - zlib-compressed JSON
//	P - MessagePack (binary object encoding)
//	z - zlib-compressed MessagePack
//
// Bytes with no recognised tag prefix (including legacy unprefixed
// values written before this format existed) decode as an opaque
// UTF-8 string, matching redis_client.py's fallback behaviour.
package codec

import (
	"bytes"
	"compress/zlib"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/YaCodeDev/GoCacheService/yaerrors"
	"github.com/vmihailenco/msgpack/v5"
)

// Tag identifies how a Value's payload was produced.
type Tag byte

const (
	TagJSON             Tag = 'J'
	TagJSONCompressed   Tag = 'Z'
	TagBinary           Tag = 'P'
	TagBinaryCompressed Tag = 'z'

	// TagOpaque is not written to the wire; it marks a Value decoded from
	// bytes that carried no recognised tag prefix.
	TagOpaque Tag = 0
)

// Value is the sum-type cache payload: a tag plus the raw bytes that go
// on the wire (including the leading tag byte, for Raw()). It is
// constructed via Encode and consumed via Decode/As.
type Value struct {
	tag     Tag
	payload []byte // wire bytes, tag byte included when tag != TagOpaque
}

// Tag reports how the value was encoded.
func (v Value) Tag() Tag {
	return v.tag
}

// Raw returns the exact bytes that should be written to storage.
func (v Value) Raw() []byte {
	return v.payload
}

// Options controls compression behaviour. Matches
// redis_client.py's serializer: compression is applied only when
// enabled, the compressed form is strictly smaller than the
// uncompressed form, and the uncompressed form exceeds the threshold.
type Options struct {
	CompressionEnabled   bool
	CompressionThreshold int
	CompressionLevel     int
}

// DefaultOptions mirrors the service's documented defaults.
func DefaultOptions() Options {
	return Options{
		CompressionEnabled:   true,
		CompressionThreshold: 256,
		CompressionLevel:     zlib.DefaultCompression,
	}
}

// Codec encodes/decodes Values according to the configured Options.
type Codec struct {
	opts Options
}

// New returns a Codec bound to opts.
func New(opts Options) *Codec {
	return &Codec{opts: opts}
}

// Encode serializes v as JSON when possible, falling back to
// MessagePack when v cannot be marshaled as JSON (matches the
// original's "JSON-first, binary-fallback" policy). Compression is
// then applied per Options.
func (c *Codec) Encode(v any) (Value, yaerrors.Error) {
	jsonBytes, jsonErr := json.Marshal(v)
	if jsonErr == nil {
		return c.finish(TagJSON, TagJSONCompressed, jsonBytes)
	}

	packed, packErr := msgpack.Marshal(v)
	if packErr != nil {
		return Value{}, yaerrors.FromError(
			http.StatusUnprocessableEntity,
			packErr,
			fmt.Sprintf("[CODEC] failed to encode %T as JSON (%v) or MessagePack", v, jsonErr),
		)
	}

	return c.finish(TagBinary, TagBinaryCompressed, packed)
}

func (c *Codec) finish(plain, compressed Tag, raw []byte) (Value, yaerrors.Error) {
	if !c.opts.CompressionEnabled || len(raw) <= c.opts.CompressionThreshold {
		return Value{tag: plain, payload: append([]byte{byte(plain)}, raw...)}, nil
	}

	zipped, err := c.compress(raw)
	if err != nil {
		return Value{}, yaerrors.FromError(
			http.StatusInternalServerError,
			err,
			"[CODEC] failed to compress payload",
		)
	}

	if len(zipped) >= len(raw) {
		return Value{tag: plain, payload: append([]byte{byte(plain)}, raw...)}, nil
	}

	return Value{tag: compressed, payload: append([]byte{byte(compressed)}, zipped...)}, nil
}

func (c *Codec) compress(raw []byte) ([]byte, error) {
	var buf bytes.Buffer

	level := c.opts.CompressionLevel
	if level == 0 {
		level = zlib.DefaultCompression
	}

	w, err := zlib.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, err
	}

	if _, err := w.Write(raw); err != nil {
		_ = w.Close()

		return nil, err
	}

	if err := w.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Decode parses raw wire bytes into a Value without yet unmarshaling
// the concrete Go value; use As to materialize it.
func Decode(raw []byte) Value {
	if len(raw) == 0 {
		return Value{tag: TagOpaque, payload: raw}
	}

	switch Tag(raw[0]) {
	case TagJSON, TagJSONCompressed, TagBinary, TagBinaryCompressed:
		return Value{tag: Tag(raw[0]), payload: raw}
	default:
		return Value{tag: TagOpaque, payload: raw}
	}
}

// As unmarshals the Value's payload into out. Opaque values can only be
// read into a *string, *[]byte or *any; any other target yields DECODE_FAIL.
func As(v Value, out any) yaerrors.Error {
	switch v.tag {
	case TagJSON:
		return unmarshalJSON(v.payload[1:], out)
	case TagJSONCompressed:
		data, err := decompress(v.payload[1:])
		if err != nil {
			return err
		}

		return unmarshalJSON(data, out)
	case TagBinary:
		return unmarshalPack(v.payload[1:], out)
	case TagBinaryCompressed:
		data, err := decompress(v.payload[1:])
		if err != nil {
			return err
		}

		return unmarshalPack(data, out)
	case TagOpaque:
		switch dst := out.(type) {
		case *string:
			*dst = string(v.payload)

			return nil
		case *[]byte:
			*dst = append([]byte(nil), v.payload...)

			return nil
		case *any:
			*dst = string(v.payload)

			return nil
		default:
			return yaerrors.FromString(
				http.StatusUnprocessableEntity,
				fmt.Sprintf("[CODEC] cannot decode opaque legacy value into %T", out),
			)
		}
	default:
		return yaerrors.FromString(http.StatusUnprocessableEntity, "[CODEC] unknown value tag")
	}
}

func unmarshalJSON(data []byte, out any) yaerrors.Error {
	if err := json.Unmarshal(data, out); err != nil {
		return yaerrors.FromError(http.StatusUnprocessableEntity, err, "[CODEC] failed to decode JSON payload")
	}

	return nil
}

func unmarshalPack(data []byte, out any) yaerrors.Error {
	if err := msgpack.Unmarshal(data, out); err != nil {
		return yaerrors.FromError(http.StatusUnprocessableEntity, err, "[CODEC] failed to decode MessagePack payload")
	}

	return nil
}

func decompress(data []byte) ([]byte, yaerrors.Error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, yaerrors.FromError(http.StatusUnprocessableEntity, err, "[CODEC] failed to open zlib reader")
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, yaerrors.FromError(http.StatusUnprocessableEntity, err, "[CODEC] failed to read zlib stream")
	}

	return out, nil
}
