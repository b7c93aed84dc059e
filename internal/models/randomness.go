package models

import (
	"encoding/hex"
	"fmt"
)

// RandomnessSize is the size of a fulfilled oracle value
const RandomnessSize = 64

// Randomness is a fulfilled value returned by the randomness oracle
type Randomness [RandomnessSize]byte

// ParseRandomness decodes a 128 character hex string
func ParseRandomness(s string) (Randomness, error) {
	var r Randomness
	raw, err := hex.DecodeString(s)
	if err != nil {
		return r, fmt.Errorf("invalid randomness: %w", err)
	}
	if len(raw) != RandomnessSize {
		return r, fmt.Errorf("invalid randomness: expected %d bytes, got %d", RandomnessSize, len(raw))
	}
	copy(r[:], raw)
	return r, nil
}

func (r Randomness) String() string {
	return hex.EncodeToString(r[:])
}

// MarshalText implements encoding.TextMarshaler
func (r Randomness) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (r *Randomness) UnmarshalText(text []byte) error {
	parsed, err := ParseRandomness(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
