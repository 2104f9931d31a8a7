package changefeed

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/annel0/mudmap/internal/eventbus"
	"github.com/klauspost/compress/zstd"
)

// Compressor кодирует пакет событий в компактный вид и обратно
type Compressor interface {
	Compress(events []*eventbus.Envelope) ([]byte, error)
	Decompress(payload []byte) ([]*eventbus.Envelope, error)
}

// jsonCompressor это JSON-массив конвертов без сжатия
type jsonCompressor struct{}

// NewJSONCompressor возвращает несжимающий кодек (удобен для отладки)
func NewJSONCompressor() Compressor { return jsonCompressor{} }

func (jsonCompressor) Compress(events []*eventbus.Envelope) ([]byte, error) {
	return json.Marshal(events)
}

func (jsonCompressor) Decompress(payload []byte) ([]*eventbus.Envelope, error) {
	var events []*eventbus.Envelope
	if err := json.Unmarshal(payload, &events); err != nil {
		return nil, fmt.Errorf("decode batch: %w", err)
	}
	return events, nil
}

// zstdCompressor сжимает JSON пакета zstd
type zstdCompressor struct {
	once sync.Once
	enc  *zstd.Encoder
	dec  *zstd.Decoder
	err  error
}

func NewZstdCompressor() Compressor { return &zstdCompressor{} }

func (z *zstdCompressor) init() error {
	z.once.Do(func() {
		z.enc, z.err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
		if z.err != nil {
			return
		}
		z.dec, z.err = zstd.NewReader(nil)
	})
	return z.err
}

func (z *zstdCompressor) Compress(events []*eventbus.Envelope) ([]byte, error) {
	if err := z.init(); err != nil {
		return nil, err
	}
	raw, err := json.Marshal(events)
	if err != nil {
		return nil, err
	}
	return z.enc.EncodeAll(raw, nil), nil
}

func (z *zstdCompressor) Decompress(payload []byte) ([]*eventbus.Envelope, error) {
	if err := z.init(); err != nil {
		return nil, err
	}
	raw, err := z.dec.DecodeAll(payload, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd: %w", err)
	}
	return jsonCompressor{}.Decompress(raw)
}
