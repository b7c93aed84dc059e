package services

import (
	"errors"

	"github.com/ArowuTest/raffle-backend/internal/monitoring"
)

// LotteryError is a domain failure with a stable code clients can match on
type LotteryError struct {
	Code    string
	Message string
}

func (e *LotteryError) Error() string {
	return e.Message
}

func newLotteryError(code, message string) *LotteryError {
	return &LotteryError{Code: code, Message: message}
}

var (
	ErrLotteryExpired          = newLotteryError("LotteryExpired", "user tried to buy ticket after the lottery has ended")
	ErrEntryDisabled           = newLotteryError("EntryDisabled", "tickets can no longer be bought for this lottery")
	ErrAccessDenied            = newLotteryError("AccessDenied", "caller is not allowed to perform this action")
	ErrLotteryStillActive      = newLotteryError("LotteryStillActive", "lottery has not ended yet")
	ErrTicketsNotSold          = newLotteryError("TicketsNotSold", "no tickets were sold for this lottery")
	ErrWinnerNotPicked         = newLotteryError("WinnerNotPicked", "winner has not been picked yet")
	ErrWinnerAlreadyPicked     = newLotteryError("WinnerAlreadyPicked", "winner has already been picked")
	ErrRandomnessNotFulfilled  = newLotteryError("RandomnessNotFulfilled", "randomness has not been fulfilled yet")
	ErrInvalidWinningTicket    = newLotteryError("InvalidWinningTicket", "entry is not the winning ticket")
	ErrLotteryExists           = newLotteryError("LotteryExists", "a lottery for this prize already exists")
	ErrLotteryNotActive        = newLotteryError("LotteryNotActive", "lottery is no longer active")
	ErrTicketsAlreadySold      = newLotteryError("TicketsAlreadySold", "tickets were already sold for this lottery")
	ErrInvalidSchedule         = newLotteryError("InvalidSchedule", "end time must not be before start time")
	ErrInvalidRequest          = newLotteryError("InvalidRequest", "request is missing required fields or has out of range values")
	ErrCustodyUnavailable      = newLotteryError("CustodyUnavailable", "custody account is controlled by another identity")
	ErrLotteryNotFound         = newLotteryError("LotteryNotFound", "lottery not found")
	ErrEntryNotFound           = newLotteryError("EntryNotFound", "entry not found")
	ErrRandomnessAlreadyExists = newLotteryError("RandomnessAlreadyRequested", "randomness was already requested for this lottery")
)

// ErrorCode returns the code of err, empty for nil and Internal for errors
// that carry no code
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var le *LotteryError
	if errors.As(err, &le) {
		return le.Code
	}
	return "Internal"
}

func track(operation string, err error) {
	monitoring.TrackOperation(operation, ErrorCode(err))
}
