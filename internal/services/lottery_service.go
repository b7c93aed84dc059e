package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"golang.org/x/exp/slog"

	"github.com/ArowuTest/raffle-backend/internal/models"
	"github.com/ArowuTest/raffle-backend/internal/repositories"
	"github.com/ArowuTest/raffle-backend/internal/utils"
	"github.com/ArowuTest/raffle-backend/pkg/notifier"
)

// Compile-time check to ensure LotteryServiceImpl implements LotteryService
var _ LotteryService = (*LotteryServiceImpl)(nil)

// LotteryServiceImpl sequences escrow, ticket sales and the draw.
//
//	ACTIVE --ResolveDraw--> COMPLETED
//	ACTIVE --CancelLottery--> CANCELLED
type LotteryServiceImpl struct {
	tx         repositories.Transactor
	lotteries  repositories.LotteryRepository
	entries    repositories.EntryRepository
	escrow     EscrowService
	randomness RandomnessService
	notifier   notifier.Notifier
	clock      Clock
}

// NewLotteryService creates a new LotteryServiceImpl
func NewLotteryService(
	tx repositories.Transactor,
	lotteries repositories.LotteryRepository,
	entries repositories.EntryRepository,
	escrow EscrowService,
	randomness RandomnessService,
	n notifier.Notifier,
	clock Clock,
) *LotteryServiceImpl {
	return &LotteryServiceImpl{
		tx:         tx,
		lotteries:  lotteries,
		entries:    entries,
		escrow:     escrow,
		randomness: randomness,
		notifier:   n,
		clock:      clock,
	}
}

// CreateLottery opens a lottery for (creator, prize) and escrows the prize
func (s *LotteryServiceImpl) CreateLottery(ctx context.Context, creator string, params CreateLotteryParams) (lottery *models.Lottery, err error) {
	defer func() { track("create_lottery", err) }()

	if creator == "" || strings.TrimSpace(params.PrizeReference) == "" {
		return nil, ErrInvalidRequest
	}
	// Stored as signed 64-bit integers
	for _, v := range []uint64{params.TicketPrice, params.StartTime, params.EndTime} {
		if v > math.MaxInt64 {
			return nil, ErrInvalidRequest
		}
	}
	if params.EndTime < params.StartTime {
		return nil, ErrInvalidSchedule
	}

	id := utils.LotteryID(creator, params.PrizeReference)
	lottery = &models.Lottery{
		ID:               id,
		Creator:          creator,
		TicketPrice:      params.TicketPrice,
		StartTime:        params.StartTime,
		EndTime:          params.EndTime,
		CorrelationTag:   params.CorrelationTag,
		PrizeReference:   params.PrizeReference,
		Status:           models.LotteryStatusActive,
		CustodyAuthority: utils.CustodyAuthority(id),
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.lotteries.Create(ctx, lottery); err != nil {
			if errors.Is(err, repositories.ErrDuplicate) {
				return ErrLotteryExists
			}
			return fmt.Errorf("failed to create lottery: %w", err)
		}
		return s.escrow.TakeCustody(ctx, lottery)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Lottery created", "lottery", id, "creator", utils.MaskIdentity(creator), "price", params.TicketPrice, "endTime", params.EndTime)
	announce(ctx, s.notifier, notifier.Event{
		Type:      notifier.EventLotteryCreated,
		LotteryID: id,
		Payload: map[string]any{
			"ticketPrice": params.TicketPrice,
			"startTime":   params.StartTime,
			"endTime":     params.EndTime,
		},
	})
	return lottery, nil
}

// RequestDraw submits the oracle request for a finished lottery. Only the
// creator may request, and only once the sale window closed with tickets sold.
func (s *LotteryServiceImpl) RequestDraw(ctx context.Context, caller, lotteryID string) (err error) {
	defer func() { track("request_randomness", err) }()

	lottery, err := s.loadLottery(ctx, lotteryID)
	if err != nil {
		return err
	}
	if caller != lottery.Creator {
		return ErrAccessDenied
	}
	if !pastEnd(s.clock(), lottery.EndTime) {
		return ErrLotteryStillActive
	}
	if lottery.TicketsSold == 0 {
		return ErrTicketsNotSold
	}
	if lottery.HasWinner() {
		return ErrWinnerAlreadyPicked
	}

	if err := s.randomness.SubmitRequest(ctx, lottery.CorrelationTag); err != nil {
		return err
	}

	slog.Info("Randomness requested", "lottery", lotteryID, "tag", lottery.CorrelationTag.String())
	announce(ctx, s.notifier, notifier.Event{
		Type:      notifier.EventRandomnessRequest,
		LotteryID: lotteryID,
		Payload:   map[string]any{"correlationTag": lottery.CorrelationTag.String()},
	})
	return nil
}

// ResolveDraw finalizes the winner from a claimed entry. Any caller may
// submit the claim; the fulfilled value decides whether it stands.
func (s *LotteryServiceImpl) ResolveDraw(ctx context.Context, caller, lotteryID, entryID string) (resolved *models.Lottery, err error) {
	defer func() { track("pick_winner", err) }()

	lottery, err := s.loadLottery(ctx, lotteryID)
	if err != nil {
		return nil, err
	}
	if lottery.HasWinner() {
		return nil, ErrWinnerAlreadyPicked
	}

	// The tag never changes, so the oracle is read before the transaction.
	value, err := s.randomness.ReadFulfilled(ctx, lottery.CorrelationTag)
	if err != nil {
		return nil, err
	}
	if value == nil {
		return nil, ErrRandomnessNotFulfilled
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		current, err := s.lotteries.FindByID(ctx, lotteryID)
		if err != nil {
			return lotteryLookupError(err)
		}
		if current.HasWinner() {
			return ErrWinnerAlreadyPicked
		}
		if current.Status.IsTerminal() {
			return ErrLotteryNotActive
		}
		if current.TicketsSold == 0 {
			return ErrTicketsNotSold
		}

		entry, err := s.entries.FindByID(ctx, entryID)
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrInvalidWinningTicket
		}
		if err != nil {
			return fmt.Errorf("failed to load entry: %w", err)
		}
		if entry.LotteryID != current.ID {
			return ErrInvalidWinningTicket
		}
		if err := s.randomness.VerifyClaim(*value, current.TicketsSold, entry.EntryNumber); err != nil {
			return err
		}

		if err := s.lotteries.SetWinner(ctx, current.ID, entry.Owner); err != nil {
			if errors.Is(err, repositories.ErrConflict) {
				return ErrWinnerAlreadyPicked
			}
			return fmt.Errorf("failed to record winner: %w", err)
		}

		resolved, err = s.lotteries.FindByID(ctx, current.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Winner picked", "lottery", lotteryID, "entry", entryID, "winner", utils.MaskIdentity(*resolved.Winner), "submittedBy", utils.MaskIdentity(caller))
	announce(ctx, s.notifier, notifier.Event{
		Type:      notifier.EventWinnerPicked,
		LotteryID: lotteryID,
		Payload:   map[string]any{"entryId": entryID, "winner": *resolved.Winner},
	})
	return resolved, nil
}

// RewardWinner releases the escrowed prize to the winner
func (s *LotteryServiceImpl) RewardWinner(ctx context.Context, caller, lotteryID, destination string) (lottery *models.Lottery, err error) {
	defer func() { track("reward_winner", err) }()

	lottery, err = s.escrow.Release(ctx, caller, lotteryID, destination)
	if err != nil {
		return nil, err
	}
	announce(ctx, s.notifier, notifier.Event{
		Type:      notifier.EventPrizeReleased,
		LotteryID: lotteryID,
		Payload:   map[string]any{"prizeReference": lottery.PrizeReference},
	})
	return lottery, nil
}

// CancelLottery closes an active lottery with no tickets sold and returns
// the prize to its creator
func (s *LotteryServiceImpl) CancelLottery(ctx context.Context, caller, lotteryID string) (cancelled *models.Lottery, err error) {
	defer func() { track("cancel_lottery", err) }()

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		lottery, err := s.lotteries.FindByID(ctx, lotteryID)
		if err != nil {
			return lotteryLookupError(err)
		}
		if caller != lottery.Creator {
			return ErrAccessDenied
		}
		if lottery.Status != models.LotteryStatusActive {
			return ErrLotteryNotActive
		}
		if lottery.TicketsSold > 0 {
			return ErrTicketsAlreadySold
		}

		if err := s.lotteries.SetStatus(ctx, lottery.ID, models.LotteryStatusActive, models.LotteryStatusCancelled); err != nil {
			if errors.Is(err, repositories.ErrConflict) {
				return ErrLotteryNotActive
			}
			return fmt.Errorf("failed to cancel lottery: %w", err)
		}
		if err := s.escrow.ReturnToCreator(ctx, lottery); err != nil {
			return err
		}

		cancelled, err = s.lotteries.FindByID(ctx, lottery.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Lottery cancelled", "lottery", lotteryID)
	announce(ctx, s.notifier, notifier.Event{Type: notifier.EventLotteryCancelled, LotteryID: lotteryID})
	return cancelled, nil
}

// GetLottery returns one lottery
func (s *LotteryServiceImpl) GetLottery(ctx context.Context, lotteryID string) (*models.Lottery, error) {
	return s.loadLottery(ctx, lotteryID)
}

// ListLotteries lists lotteries, optionally filtered by status
func (s *LotteryServiceImpl) ListLotteries(ctx context.Context, status models.LotteryStatus, page, limit int) ([]*models.Lottery, error) {
	lotteries, err := s.lotteries.FindAll(ctx, status, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list lotteries: %w", err)
	}
	return lotteries, nil
}

// GetEntry returns one entry
func (s *LotteryServiceImpl) GetEntry(ctx context.Context, entryID string) (*models.Entry, error) {
	entry, err := s.entries.FindByID(ctx, entryID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load entry: %w", err)
	}
	return entry, nil
}

// ListEntries lists the entries of a lottery in entry number order
func (s *LotteryServiceImpl) ListEntries(ctx context.Context, lotteryID string, page, limit int) ([]*models.Entry, error) {
	if _, err := s.loadLottery(ctx, lotteryID); err != nil {
		return nil, err
	}
	entries, err := s.entries.FindByLottery(ctx, lotteryID, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	return entries, nil
}

// ListEntriesByOwner lists the entries bought by owner
func (s *LotteryServiceImpl) ListEntriesByOwner(ctx context.Context, owner string, page, limit int) ([]*models.Entry, error) {
	entries, err := s.entries.FindByOwner(ctx, owner, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	return entries, nil
}

// FindWinningEntry recomputes the winning entry from the fulfilled value.
// It changes nothing and lets anyone prepare the ResolveDraw claim.
func (s *LotteryServiceImpl) FindWinningEntry(ctx context.Context, lotteryID string) (*WinningEntry, error) {
	lottery, err := s.loadLottery(ctx, lotteryID)
	if err != nil {
		return nil, err
	}
	if lottery.TicketsSold == 0 {
		return nil, ErrTicketsNotSold
	}

	value, err := s.randomness.ReadFulfilled(ctx, lottery.CorrelationTag)
	if err != nil {
		return nil, err
	}
	if value == nil {
		return nil, ErrRandomnessNotFulfilled
	}

	index, err := s.randomness.WinningIndex(*value, lottery.TicketsSold)
	if err != nil {
		return nil, err
	}
	entry, err := s.entries.FindByLotteryAndNumber(ctx, lottery.ID, index)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrEntryNotFound
		}
		return nil, fmt.Errorf("failed to load winning entry: %w", err)
	}
	return &WinningEntry{Entry: entry, Index: index, Randomness: *value}, nil
}

func (s *LotteryServiceImpl) loadLottery(ctx context.Context, lotteryID string) (*models.Lottery, error) {
	lottery, err := s.lotteries.FindByID(ctx, lotteryID)
	if err != nil {
		return nil, lotteryLookupError(err)
	}
	return lottery, nil
}
