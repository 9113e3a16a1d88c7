// internal/archive/codec.go
package archive

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Codec compresses archive bodies. Ext is appended to the object key so the
// encoding is visible without reading the object back.
type Codec interface {
	Encode(data []byte) ([]byte, error)
	Ext() string
}

// NewCodec returns the codec for a configured name. The empty name means
// gzip; "none" stores bodies as-is.
func NewCodec(name string) (Codec, error) {
	switch name {
	case "", "gzip":
		return gzipCodec{}, nil
	case "zstd":
		return newZstdCodec()
	case "snappy":
		return snappyCodec{}, nil
	case "none":
		return noneCodec{}, nil
	default:
		return nil, fmt.Errorf("archive: unknown compression %q", name)
	}
}

type noneCodec struct{}

func (noneCodec) Encode(data []byte) ([]byte, error) { return data, nil }
func (noneCodec) Ext() string                        { return "" }

type gzipCodec struct{}

func (gzipCodec) Encode(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write(data); err != nil {
		return nil, fmt.Errorf("gzip: %w", err)
	}
	if err := gw.Close(); err != nil {
		return nil, fmt.Errorf("close gzip writer: %w", err)
	}
	return buf.Bytes(), nil
}

func (gzipCodec) Ext() string { return ".gz" }

type zstdCodec struct {
	once    sync.Once
	encoder *zstd.Encoder
	err     error
}

func newZstdCodec() (*zstdCodec, error) {
	return &zstdCodec{}, nil
}

func (c *zstdCodec) Encode(data []byte) ([]byte, error) {
	c.once.Do(func() {
		c.encoder, c.err = zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1))
	})
	if c.err != nil {
		return nil, fmt.Errorf("zstd: %w", c.err)
	}
	return c.encoder.EncodeAll(data, nil), nil
}

func (c *zstdCodec) Ext() string { return ".zst" }

type snappyCodec struct{}

func (snappyCodec) Encode(data []byte) ([]byte, error) {
	return snappy.Encode(nil, data), nil
}

func (snappyCodec) Ext() string { return ".snappy" }
