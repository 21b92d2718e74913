package codec

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/converter"
)

type placementInput struct {
	Bearer  string
	OrderID string
}

func TestSealedPayloadHidesBearerAndRoundTrips(t *testing.T) {
	codec, err := NewAESGCM("s3cret")
	require.NoError(t, err)
	dc := codec.DataConverter()

	in := placementInput{Bearer: "eyJhbGciOiJIUzI1NiJ9.secret-claims", OrderID: "o-1"}
	payload, err := dc.ToPayload(in)
	require.NoError(t, err)
	require.Equal(t, Encoding, string(payload.Metadata[converter.MetadataEncoding]))
	require.False(t, bytes.Contains(payload.Data, []byte("secret-claims")))

	var out placementInput
	require.NoError(t, dc.FromPayload(payload, &out))
	require.Equal(t, in, out)
}

func TestDecodeRejectsOtherSecretAndPassesPlainThrough(t *testing.T) {
	sealer, err := NewAESGCM("one")
	require.NoError(t, err)
	other, err := NewAESGCM("two")
	require.NoError(t, err)

	payload, err := sealer.DataConverter().ToPayload("hello")
	require.NoError(t, err)
	var s string
	require.Error(t, other.DataConverter().FromPayload(payload, &s))

	plain, err := converter.GetDefaultDataConverter().ToPayload("plain")
	require.NoError(t, err)
	require.NoError(t, other.DataConverter().FromPayload(plain, &s))
	require.Equal(t, "plain", s)
}

func TestNewAESGCMRejectsBlankSecret(t *testing.T) {
	_, err := NewAESGCM("  ")
	require.ErrorIs(t, err, ErrEmptySecret)
}
