package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/exp/slog"

	"github.com/ArowuTest/raffle-backend/internal/locker"
	"github.com/ArowuTest/raffle-backend/internal/models"
	"github.com/ArowuTest/raffle-backend/internal/monitoring"
	"github.com/ArowuTest/raffle-backend/internal/repositories"
	"github.com/ArowuTest/raffle-backend/internal/utils"
	"github.com/ArowuTest/raffle-backend/pkg/notifier"
)

// Compile-time check to ensure TicketServiceImpl implements TicketService
var _ TicketService = (*TicketServiceImpl)(nil)

// ErrSaleConflict is returned when a concurrent sale took the entry number
var ErrSaleConflict = errors.New("concurrent ticket sale, retry")

// TicketServiceImpl sells sequentially numbered entries
type TicketServiceImpl struct {
	tx        repositories.Transactor
	lotteries repositories.LotteryRepository
	entries   repositories.EntryRepository
	ledger    Ledger
	locker    locker.Locker
	notifier  notifier.Notifier
	clock     Clock
}

// NewTicketService creates a new TicketServiceImpl
func NewTicketService(
	tx repositories.Transactor,
	lotteries repositories.LotteryRepository,
	entries repositories.EntryRepository,
	ledger Ledger,
	lk locker.Locker,
	n notifier.Notifier,
	clock Clock,
) *TicketServiceImpl {
	return &TicketServiceImpl{
		tx:        tx,
		lotteries: lotteries,
		entries:   entries,
		ledger:    ledger,
		locker:    lk,
		notifier:  n,
		clock:     clock,
	}
}

func saleLockKey(lotteryID string) string {
	return fmt.Sprintf("lottery:%s:sale", lotteryID)
}

// BuyTicket charges the ticket price to buyer and issues the next entry.
// Payment, entry and counter commit together or not at all.
func (s *TicketServiceImpl) BuyTicket(ctx context.Context, buyer, lotteryID string) (entry *models.Entry, err error) {
	defer func() { track("buy_ticket", err) }()

	waitStart := time.Now()
	release, err := s.locker.Acquire(ctx, saleLockKey(lotteryID))
	if err != nil {
		return nil, fmt.Errorf("failed to lock lottery sale: %w", err)
	}
	defer release()
	monitoring.TrackSaleLockWait(time.Since(waitStart))

	var price uint64
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		lottery, err := s.lotteries.FindByID(ctx, lotteryID)
		if err != nil {
			return lotteryLookupError(err)
		}

		now := s.clock()
		if pastEnd(now, lottery.EndTime) {
			return ErrLotteryExpired
		}
		if lottery.Status != models.LotteryStatusActive {
			return ErrEntryDisabled
		}

		if lottery.TicketPrice > 0 {
			custody := utils.CustodyAuthority(lottery.ID)
			if err := s.ledger.TransferFunds(ctx, buyer, custody, lottery.TicketPrice, buyer); err != nil {
				return fmt.Errorf("failed to pay for ticket: %w", err)
			}
		}

		number := lottery.TicketsSold
		entry = &models.Entry{
			ID:          utils.EntryID(lottery.ID, number),
			Owner:       buyer,
			LotteryID:   lottery.ID,
			EntryNumber: number,
			PurchasedAt: now,
		}
		if err := s.entries.Create(ctx, entry); err != nil {
			if errors.Is(err, repositories.ErrDuplicate) {
				return ErrSaleConflict
			}
			return fmt.Errorf("failed to record entry: %w", err)
		}
		if err := s.lotteries.IncrementTicketsSold(ctx, lottery.ID, number); err != nil {
			if errors.Is(err, repositories.ErrConflict) {
				return ErrSaleConflict
			}
			return fmt.Errorf("failed to update ticket count: %w", err)
		}
		price = lottery.TicketPrice
		return nil
	})
	if err != nil {
		return nil, err
	}

	monitoring.TrackTicketSale(price)
	slog.Info("Ticket sold", "lottery", lotteryID, "entry", entry.EntryNumber, "buyer", utils.MaskIdentity(buyer))
	announce(ctx, s.notifier, notifier.Event{
		Type:      notifier.EventTicketPurchased,
		LotteryID: lotteryID,
		Payload:   map[string]any{"entryNumber": entry.EntryNumber, "entryId": entry.ID},
	})
	return entry, nil
}
