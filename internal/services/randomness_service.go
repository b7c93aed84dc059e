package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/ArowuTest/raffle-backend/internal/models"
	"github.com/ArowuTest/raffle-backend/pkg/draw"
	"github.com/ArowuTest/raffle-backend/pkg/vrf"
)

// Compile-time check to ensure RandomnessServiceImpl implements RandomnessService
var _ RandomnessService = (*RandomnessServiceImpl)(nil)

// RandomnessServiceImpl wraps the oracle and the public winner mapping
type RandomnessServiceImpl struct {
	oracle Oracle
}

// NewRandomnessService creates a new RandomnessServiceImpl
func NewRandomnessService(oracle Oracle) *RandomnessServiceImpl {
	return &RandomnessServiceImpl{oracle: oracle}
}

// SubmitRequest asks the oracle for a value bound to tag
func (s *RandomnessServiceImpl) SubmitRequest(ctx context.Context, tag models.CorrelationTag) error {
	if err := s.oracle.SubmitRequest(ctx, tag); err != nil {
		if errors.Is(err, vrf.ErrRequestExists) {
			return ErrRandomnessAlreadyExists
		}
		return fmt.Errorf("failed to submit randomness request: %w", err)
	}
	return nil
}

// ReadFulfilled returns the value for tag, or nil while it is pending
func (s *RandomnessServiceImpl) ReadFulfilled(ctx context.Context, tag models.CorrelationTag) (*models.Randomness, error) {
	value, err := s.oracle.ReadFulfilled(ctx, tag)
	if err != nil {
		return nil, fmt.Errorf("failed to read randomness: %w", err)
	}
	return value, nil
}

// WinningIndex maps value onto an entry number
func (s *RandomnessServiceImpl) WinningIndex(value models.Randomness, ticketsSold uint64) (uint64, error) {
	index, err := draw.DeriveIndex(value[:], ticketsSold)
	if errors.Is(err, draw.ErrNoTickets) {
		return 0, ErrTicketsNotSold
	}
	return index, err
}

// VerifyClaim checks that claimed is the entry number value selects
func (s *RandomnessServiceImpl) VerifyClaim(value models.Randomness, ticketsSold, claimed uint64) error {
	err := draw.Verify(value[:], ticketsSold, claimed)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, draw.ErrNoTickets):
		return ErrTicketsNotSold
	case errors.Is(err, draw.ErrMismatch):
		return ErrInvalidWinningTicket
	default:
		return err
	}
}
