package stt

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/satriahrh/juru/server/domain/repositories"
)

// WAV format tags
const (
	wavFormatPCM   uint16 = 1
	wavFormatMulaw uint16 = 7
)

const wavHeaderSize = 44

// wavHeader is the canonical 44-byte RIFF/WAVE header
type wavHeader struct {
	ChunkID       [4]byte
	ChunkSize     uint32
	Format        [4]byte
	Subchunk1ID   [4]byte
	Subchunk1Size uint32
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Subchunk2ID   [4]byte
	Subchunk2Size uint32
}

// EncodeWAV wraps raw mono audio in a WAV container without touching the samples.
// MULAW audio is labelled as 8-bit G.711, LINEAR16 as 16-bit little-endian PCM.
func EncodeWAV(audio []byte, config repositories.AudioConfig) ([]byte, error) {
	if len(audio) == 0 {
		return nil, fmt.Errorf("cannot encode empty audio")
	}
	if config.SampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", config.SampleRate)
	}

	var format, bitsPerSample uint16
	switch config.Encoding {
	case repositories.EncodingMulaw:
		format, bitsPerSample = wavFormatMulaw, 8
	case repositories.EncodingLinear16, "":
		format, bitsPerSample = wavFormatPCM, 16
	default:
		return nil, fmt.Errorf("unsupported encoding: %s", config.Encoding)
	}

	const numChannels = 1
	blockAlign := uint16(numChannels) * bitsPerSample / 8
	dataSize := uint32(len(audio))

	header := wavHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     36 + dataSize,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   format,
		NumChannels:   numChannels,
		SampleRate:    uint32(config.SampleRate),
		ByteRate:      uint32(config.SampleRate) * uint32(blockAlign),
		BlockAlign:    blockAlign,
		BitsPerSample: bitsPerSample,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: dataSize,
	}

	buf := bytes.NewBuffer(make([]byte, 0, wavHeaderSize+len(audio)))
	if err := binary.Write(buf, binary.LittleEndian, header); err != nil {
		return nil, fmt.Errorf("failed to write WAV header: %w", err)
	}
	buf.Write(audio)
	return buf.Bytes(), nil
}
