package codec_test

import (
	"strings"
	"testing"

	"github.com/YaCodeDev/GoCacheService/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string
	Count int
}

func TestRoundTripJSON(t *testing.T) {
	c := codec.New(codec.Options{CompressionEnabled: false})

	v, err := c.Encode(sample{Name: "a", Count: 1})
	require.Nil(t, err)
	assert.Equal(t, codec.TagJSON, v.Tag())

	decoded := codec.Decode(v.Raw())

	var out sample
	require.Nil(t, codec.As(decoded, &out))
	assert.Equal(t, sample{Name: "a", Count: 1}, out)
}

func TestCompressionOnlyWhenBeneficial(t *testing.T) {
	c := codec.New(codec.Options{
		CompressionEnabled:   true,
		CompressionThreshold: 16,
		CompressionLevel:     6,
	})

	small, err := c.Encode(sample{Name: "a", Count: 1})
	require.Nil(t, err)
	assert.Equal(t, codec.TagJSON, small.Tag(), "payload that zlib does not shrink must not be compressed")

	big, err := c.Encode(sample{Name: strings.Repeat("x", 4096), Count: 1})
	require.Nil(t, err)
	assert.Equal(t, codec.TagJSONCompressed, big.Tag(), "large, compressible payload must be compressed")

	decoded := codec.Decode(big.Raw())

	var out sample
	require.Nil(t, codec.As(decoded, &out))
	assert.Equal(t, 4096, len(out.Name))
}

func TestOpaqueLegacyValue(t *testing.T) {
	legacy := []byte("plain-unprefixed-string")

	v := codec.Decode(legacy)
	assert.Equal(t, codec.TagOpaque, v.Tag())

	var out string
	require.Nil(t, codec.As(v, &out))
	assert.Equal(t, string(legacy), out)
}

func TestOpaqueValueRejectsStructDecode(t *testing.T) {
	v := codec.Decode([]byte("not-json"))

	var out sample
	err := codec.As(v, &out)
	require.NotNil(t, err)
}

func TestOpaqueValueDecodesIntoAny(t *testing.T) {
	legacy := []byte("plain-unprefixed-string")

	v := codec.Decode(legacy)

	var out any
	require.Nil(t, codec.As(v, &out))
	assert.Equal(t, string(legacy), out)
}
