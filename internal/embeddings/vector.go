package embeddings

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// Encode serializes an embedding vector as a little-endian float64 array
func Encode(vec []float64) ([]byte, error) {
	if err := Validate(vec); err != nil {
		return nil, err
	}

	buf := bytes.NewBuffer(make([]byte, 0, Size(len(vec))))
	if err := binary.Write(buf, binary.LittleEndian, vec); err != nil {
		return nil, fmt.Errorf("failed to encode embedding: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses a vector written by Encode
func Decode(raw []byte) ([]float64, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("embedding is empty")
	}
	// Each float64 is 8 bytes
	if len(raw)%8 != 0 {
		return nil, fmt.Errorf("invalid embedding size: %d (not a multiple of 8)", len(raw))
	}

	vec := make([]float64, len(raw)/8)
	if err := binary.Read(bytes.NewReader(raw), binary.LittleEndian, vec); err != nil {
		return nil, fmt.Errorf("failed to decode embedding: %w", err)
	}
	return vec, nil
}

// Size returns the encoded size in bytes of a vector with the given dimensions
func Size(dimensions int) int {
	return dimensions * 8
}

// Validate checks that a vector is non-empty and holds only finite values
func Validate(vec []float64) error {
	if len(vec) == 0 {
		return fmt.Errorf("embedding vector is empty")
	}
	for i, val := range vec {
		if math.IsNaN(val) {
			return fmt.Errorf("embedding contains NaN at index %d", i)
		}
		if math.IsInf(val, 0) {
			return fmt.Errorf("embedding contains invalid value at index %d: %v", i, val)
		}
	}
	return nil
}
