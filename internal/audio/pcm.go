// Package audio converts the provider's synthesized-speech payloads into
// playable audio: base64 PCM16 decoding, float normalization, and WAV framing.
package audio

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
)

// SampleRate is the fixed rate of the provider's speech payloads.
const SampleRate = 24000

// DecodeBase64PCM16 decodes a base64 payload into raw PCM-16 bytes. A
// trailing odd byte is an incomplete sample and is truncated.
func DecodeBase64PCM16(s string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode base64 audio: %w", err)
	}
	if len(data)%2 != 0 {
		data = data[:len(data)-1]
	}
	return data, nil
}

// PCM16ToFloat32 reinterprets data as little-endian signed 16-bit mono samples
// and normalizes each to amplitude s/32768. A trailing odd byte is truncated.
func PCM16ToFloat32(data []byte) []float32 {
	n := len(data) / 2
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		s := int16(binary.LittleEndian.Uint16(data[2*i:]))
		out[i] = float32(s) / 32768.0
	}
	return out
}
