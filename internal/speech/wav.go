package speech

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// wavInfo describes the PCM payload of a WAV file
type wavInfo struct {
	SampleRate    float64
	Channels      int
	BitsPerSample int
	Data          []byte
}

// IsWAV reports whether data starts with a RIFF/WAVE header
func IsWAV(data []byte) bool {
	return len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WAVE"))
}

// parseWAV walks the RIFF chunks and returns the format and PCM data
func parseWAV(data []byte) (wavInfo, error) {
	if len(data) < 44 {
		return wavInfo{}, fmt.Errorf("file too small to be a valid WAV")
	}
	if !IsWAV(data) {
		return wavInfo{}, fmt.Errorf("not a valid WAVE file")
	}

	var info wavInfo
	var dataStart, dataSize int

	pos := 12
	for pos <= len(data)-8 {
		chunkID := string(data[pos : pos+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))

		switch chunkID {
		case "fmt ":
			if chunkSize >= 16 && pos+24 <= len(data) {
				info.Channels = int(binary.LittleEndian.Uint16(data[pos+10 : pos+12]))
				info.SampleRate = float64(binary.LittleEndian.Uint32(data[pos+12 : pos+16]))
				info.BitsPerSample = int(binary.LittleEndian.Uint16(data[pos+22 : pos+24]))
			}
		case "data":
			dataStart = pos + 8
			dataSize = chunkSize
		}

		pos += 8 + chunkSize
		if pos%2 != 0 {
			pos++
		}
	}

	if info.SampleRate == 0 || dataStart == 0 {
		return wavInfo{}, fmt.Errorf("missing required WAV chunks")
	}
	if info.BitsPerSample != 16 {
		return wavInfo{}, fmt.Errorf("unsupported sample size %d bits", info.BitsPerSample)
	}
	if info.Channels < 1 {
		info.Channels = 1
	}
	if dataStart+dataSize > len(data) {
		dataSize = len(data) - dataStart
	}

	info.Data = data[dataStart : dataStart+dataSize]
	return info, nil
}

// pcmToFloat32 converts little-endian 16-bit samples
func pcmToFloat32(pcm []byte) []float32 {
	out := make([]float32, len(pcm)/2)
	for i := range out {
		s := int16(binary.LittleEndian.Uint16(pcm[2*i:]))
		out[i] = float32(s) / 32768.0
	}
	return out
}

// EncodeWAV wraps 16-bit PCM in a minimal WAV container
func EncodeWAV(pcm []byte, sampleRate, channels int) []byte {
	var buf bytes.Buffer
	blockAlign := channels * 2

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint16(channels))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*blockAlign))
	binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)
	return buf.Bytes()
}
