// Package codec seals Temporal payloads so workflow and activity inputs,
// which carry the shopper's bearer token, are not stored readable in history.
package codec

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"strings"

	commonpb "go.temporal.io/api/common/v1"
	"go.temporal.io/sdk/converter"
	"google.golang.org/protobuf/proto"
)

// Encoding marks payloads sealed by AESGCM.
const Encoding = "binary/storefront-aes-gcm"

// ErrEmptySecret rejects a blank payload secret.
var ErrEmptySecret = errors.New("payload secret is empty")

// AESGCM is a converter.PayloadCodec sealing each payload with AES-256-GCM.
type AESGCM struct {
	aead cipher.AEAD
}

// NewAESGCM derives a 256-bit key from secret.
func NewAESGCM(secret string) (*AESGCM, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, ErrEmptySecret
	}
	key := sha256.Sum256([]byte(secret))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &AESGCM{aead: aead}, nil
}

// DataConverter wraps the SDK default converter with the codec.
func (c *AESGCM) DataConverter() converter.DataConverter {
	return converter.NewCodecDataConverter(converter.GetDefaultDataConverter(), c)
}

func (c *AESGCM) Encode(payloads []*commonpb.Payload) ([]*commonpb.Payload, error) {
	result := make([]*commonpb.Payload, len(payloads))
	for i, p := range payloads {
		plain, err := proto.Marshal(p)
		if err != nil {
			return payloads, err
		}
		nonce := make([]byte, c.aead.NonceSize())
		if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
			return payloads, fmt.Errorf("payload nonce: %w", err)
		}
		result[i] = &commonpb.Payload{
			Metadata: map[string][]byte{converter.MetadataEncoding: []byte(Encoding)},
			Data:     c.aead.Seal(nonce, nonce, plain, nil),
		}
	}
	return result, nil
}

// Decode opens sealed payloads and passes any other encoding through.
func (c *AESGCM) Decode(payloads []*commonpb.Payload) ([]*commonpb.Payload, error) {
	result := make([]*commonpb.Payload, len(payloads))
	for i, p := range payloads {
		if string(p.Metadata[converter.MetadataEncoding]) != Encoding {
			result[i] = p
			continue
		}
		size := c.aead.NonceSize()
		if len(p.Data) < size {
			return payloads, errors.New("sealed payload shorter than nonce")
		}
		plain, err := c.aead.Open(nil, p.Data[:size], p.Data[size:], nil)
		if err != nil {
			return payloads, fmt.Errorf("open payload: %w", err)
		}
		result[i] = &commonpb.Payload{}
		if err := proto.Unmarshal(plain, result[i]); err != nil {
			return payloads, err
		}
	}
	return result, nil
}

var _ converter.PayloadCodec = (*AESGCM)(nil)
