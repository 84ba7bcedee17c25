package lake

import (
	"fmt"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Codec names the compression applied to batch objects.
type Codec string

const (
	CodecNone   Codec = "none"
	CodecLZ4    Codec = "lz4"
	CodecZstd   Codec = "zstd"
	CodecSnappy Codec = "snappy"
)

func (c *Codec) Set(s string) error {
	switch Codec(s) {
	case CodecNone, CodecLZ4, CodecZstd, CodecSnappy:
		*c = Codec(s)
	case "":
		*c = CodecLZ4
	default:
		return fmt.Errorf("unknown codec: %q", s)
	}
	return nil
}

func (c Codec) String() string {
	return string(c)
}

func (c *Codec) UnmarshalText(b []byte) error {
	return c.Set(string(b))
}

var (
	zstdEncoder, _ = zstd.NewWriter(nil)
	zstdDecoder, _ = zstd.NewReader(nil)
)

// compress returns the encoded bytes and the codec actually used, which
// is CodecNone when compression would not shrink the payload.
func compress(c Codec, b []byte) ([]byte, Codec, error) {
	var out []byte
	switch c {
	case CodecNone:
		return b, CodecNone, nil
	case CodecLZ4:
		var compressor lz4.Compressor
		buf := make([]byte, lz4.CompressBlockBound(len(b)))
		n, err := compressor.CompressBlock(b, buf)
		if err != nil {
			return nil, c, err
		}
		out = buf[:n]
		if n == 0 {
			out = nil
		}
	case CodecZstd:
		out = zstdEncoder.EncodeAll(b, nil)
	case CodecSnappy:
		out = snappy.Encode(nil, b)
	default:
		return nil, c, fmt.Errorf("unknown codec: %q", c)
	}
	if out == nil || len(out) >= len(b) {
		return b, CodecNone, nil
	}
	return out, c, nil
}

func decompress(c Codec, b []byte, rawSize int) ([]byte, error) {
	switch c {
	case CodecNone:
		return b, nil
	case CodecLZ4:
		out := make([]byte, rawSize)
		n, err := lz4.UncompressBlock(b, out)
		if err != nil {
			return nil, err
		}
		if n != rawSize {
			return nil, fmt.Errorf("got %d uncompressed bytes, expected %d", n, rawSize)
		}
		return out, nil
	case CodecZstd:
		return zstdDecoder.DecodeAll(b, make([]byte, 0, rawSize))
	case CodecSnappy:
		return snappy.Decode(nil, b)
	}
	return nil, fmt.Errorf("unknown codec: %q", c)
}
