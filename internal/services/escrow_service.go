package services

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/exp/slog"

	"github.com/ArowuTest/raffle-backend/internal/models"
	"github.com/ArowuTest/raffle-backend/internal/repositories"
	"github.com/ArowuTest/raffle-backend/internal/utils"
)

// Compile-time check to ensure EscrowServiceImpl implements EscrowService
var _ EscrowService = (*EscrowServiceImpl)(nil)

// EscrowServiceImpl moves prizes in and out of lottery custody. The custody
// account id and its authority are both the content key derived from the
// lottery id.
type EscrowServiceImpl struct {
	tx        repositories.Transactor
	lotteries repositories.LotteryRepository
	ledger    Ledger
}

// NewEscrowService creates a new EscrowServiceImpl
func NewEscrowService(tx repositories.Transactor, lotteries repositories.LotteryRepository, ledger Ledger) *EscrowServiceImpl {
	return &EscrowServiceImpl{tx: tx, lotteries: lotteries, ledger: ledger}
}

// TakeCustody moves the prize from the creator into the lottery's custody
func (s *EscrowServiceImpl) TakeCustody(ctx context.Context, lottery *models.Lottery) error {
	custody := utils.CustodyAuthority(lottery.ID)
	controller, err := s.ledger.ControllerOf(ctx, custody)
	if err != nil {
		return fmt.Errorf("failed to resolve custody account: %w", err)
	}
	if controller != custody {
		return ErrCustodyUnavailable
	}
	if err := s.ledger.TransferAsset(ctx, lottery.PrizeReference, lottery.Creator, custody, lottery.Creator); err != nil {
		return fmt.Errorf("failed to take custody of prize: %w", err)
	}
	return nil
}

// Release hands the prize to the winner. destination defaults to the
// caller's own account and must be controlled by the caller.
func (s *EscrowServiceImpl) Release(ctx context.Context, caller, lotteryID, destination string) (*models.Lottery, error) {
	if destination == "" {
		destination = caller
	}

	var released *models.Lottery
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		lottery, err := s.lotteries.FindByID(ctx, lotteryID)
		if err != nil {
			return lotteryLookupError(err)
		}
		if !lottery.HasWinner() {
			return ErrWinnerNotPicked
		}
		if lottery.Status != models.LotteryStatusCompleted {
			return ErrLotteryStillActive
		}
		if caller != *lottery.Winner {
			return ErrAccessDenied
		}

		controller, err := s.ledger.ControllerOf(ctx, destination)
		if err != nil {
			return fmt.Errorf("failed to resolve destination: %w", err)
		}
		if controller != caller {
			return ErrAccessDenied
		}

		custody := utils.CustodyAuthority(lottery.ID)
		if err := s.ledger.TransferAsset(ctx, lottery.PrizeReference, custody, destination, custody); err != nil {
			return fmt.Errorf("failed to release prize: %w", err)
		}
		released = lottery
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Prize released", "lottery", lotteryID, "winner", utils.MaskIdentity(caller), "destination", utils.MaskIdentity(destination))
	return released, nil
}

// ReturnToCreator moves the prize from custody back to the creator
func (s *EscrowServiceImpl) ReturnToCreator(ctx context.Context, lottery *models.Lottery) error {
	custody := utils.CustodyAuthority(lottery.ID)
	if err := s.ledger.TransferAsset(ctx, lottery.PrizeReference, custody, lottery.Creator, custody); err != nil {
		return fmt.Errorf("failed to return prize: %w", err)
	}
	return nil
}

func lotteryLookupError(err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrLotteryNotFound
	}
	return fmt.Errorf("failed to load lottery: %w", err)
}
