package storage

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

var (
	encoderOnce sync.Once
	encoder     *zstd.Encoder
	decoder     *zstd.Decoder
)

func codecs() (*zstd.Encoder, *zstd.Decoder) {
	encoderOnce.Do(func() {
		// nil writer/reader: используем только EncodeAll/DecodeAll
		encoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		decoder, _ = zstd.NewReader(nil)
	})
	return encoder, decoder
}

// EncodeSnapshot сериализует снимок в JSON и сжимает zstd
func EncodeSnapshot(s *Snapshot) ([]byte, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации снимка: %w", err)
	}
	enc, _ := codecs()
	return enc.EncodeAll(raw, make([]byte, 0, len(raw)/2)), nil
}

// DecodeSnapshot распаковывает и десериализует снимок
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	_, dec := codecs()
	raw, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: zstd: %v", ErrCorruptSnapshot, err)
	}
	var s Snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("%w: json: %v", ErrCorruptSnapshot, err)
	}
	if s.Version > SnapshotVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorruptSnapshot, s.Version)
	}
	return &s, nil
}
