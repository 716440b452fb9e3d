package offload

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Payload encodings recorded alongside each stored row.
const (
	EncodingIdentity = "identity"
	EncodingZstd     = "zstd"
)

// codec compresses payloads at rest. A nil codec stores payloads as is.
// zstd encoders and decoders are safe for concurrent EncodeAll/DecodeAll.
type codec struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

func newCodec() (*codec, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	return &codec{enc: enc, dec: dec}, nil
}

func (c *codec) encode(data []byte) ([]byte, string) {
	if c == nil {
		return data, EncodingIdentity
	}
	return c.enc.EncodeAll(data, make([]byte, 0, len(data)/2)), EncodingZstd
}

// decode reverses encode. Rows written with compression disabled still decode
// when it is later enabled, and the other way around.
func (c *codec) decode(data []byte, encoding string) ([]byte, error) {
	switch encoding {
	case "", EncodingIdentity:
		return data, nil
	case EncodingZstd:
		dec := c
		if dec == nil {
			var err error
			if dec, err = newCodec(); err != nil {
				return nil, err
			}
			defer dec.close()
		}
		return dec.dec.DecodeAll(data, nil)
	default:
		return nil, fmt.Errorf("unknown payload encoding %q", encoding)
	}
}

func (c *codec) close() {
	if c == nil {
		return
	}
	c.dec.Close()
	c.enc.Close()
}
