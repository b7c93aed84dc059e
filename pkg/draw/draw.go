// Package draw maps a fulfilled oracle value onto a winning entry number.
//
// The mapping is part of the public audit contract: the first eight bytes of
// the value are read as an unsigned little-endian integer and reduced modulo
// the number of sold tickets. Any observer holding the value and the sold
// count can recompute the winner.
package draw

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	// ErrNoTickets is returned when no ticket was sold
	ErrNoTickets = errors.New("no tickets sold")
	// ErrShortValue is returned when the value is shorter than eight bytes
	ErrShortValue = errors.New("random value shorter than 8 bytes")
	// ErrMismatch is returned by Verify when the claim is not the winner
	ErrMismatch = errors.New("claimed entry does not match winning index")
)

// Seed returns the little-endian integer carried by the first eight bytes
func Seed(value []byte) (uint64, error) {
	if len(value) < 8 {
		return 0, ErrShortValue
	}
	return binary.LittleEndian.Uint64(value[:8]), nil
}

// DeriveIndex returns the winning entry number for value and ticketsSold
func DeriveIndex(value []byte, ticketsSold uint64) (uint64, error) {
	if ticketsSold == 0 {
		return 0, ErrNoTickets
	}
	seed, err := Seed(value)
	if err != nil {
		return 0, err
	}
	return seed % ticketsSold, nil
}

// Verify checks that claimed is the entry number selected by value
func Verify(value []byte, ticketsSold, claimed uint64) error {
	index, err := DeriveIndex(value, ticketsSold)
	if err != nil {
		return err
	}
	if claimed != index {
		return fmt.Errorf("%w: claimed %d, winning %d", ErrMismatch, claimed, index)
	}
	return nil
}
