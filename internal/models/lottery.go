package models

import (
	"encoding/hex"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// LotteryStatus represents the lifecycle status of a lottery
type LotteryStatus string

const (
	LotteryStatusActive    LotteryStatus = "ACTIVE"
	LotteryStatusCompleted LotteryStatus = "COMPLETED"
	LotteryStatusCancelled LotteryStatus = "CANCELLED"
)

// IsTerminal reports whether no further transition leaves this status
func (s LotteryStatus) IsTerminal() bool {
	return s == LotteryStatusCompleted || s == LotteryStatusCancelled
}

// CorrelationTag binds a randomness request to exactly one lottery.
// It is stored and rendered as lowercase hex.
type CorrelationTag [32]byte

// ParseCorrelationTag decodes a 64 character hex string
func ParseCorrelationTag(s string) (CorrelationTag, error) {
	var tag CorrelationTag
	raw, err := hex.DecodeString(s)
	if err != nil {
		return tag, fmt.Errorf("invalid correlation tag: %w", err)
	}
	if len(raw) != len(tag) {
		return tag, fmt.Errorf("invalid correlation tag: expected %d bytes, got %d", len(tag), len(raw))
	}
	copy(tag[:], raw)
	return tag, nil
}

func (t CorrelationTag) String() string {
	return hex.EncodeToString(t[:])
}

// MarshalText implements encoding.TextMarshaler
func (t CorrelationTag) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (t *CorrelationTag) UnmarshalText(text []byte) error {
	parsed, err := ParseCorrelationTag(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MarshalBSONValue stores the tag as a hex string
func (t CorrelationTag) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(t.String())
}

// UnmarshalBSONValue reads the hex string form written by MarshalBSONValue
func (t *CorrelationTag) UnmarshalBSONValue(bt bsontype.Type, data []byte) error {
	s, ok := bson.RawValue{Type: bt, Value: data}.StringValueOK()
	if !ok {
		return fmt.Errorf("invalid correlation tag: unexpected bson type %s", bt)
	}
	return t.UnmarshalText([]byte(s))
}

// Lottery is the authoritative record for one prize/creator raffle
type Lottery struct {
	ID               string         `bson:"_id" json:"id"` // Derived from (creator, prize)
	Creator          string         `bson:"creator" json:"creator"`
	TicketPrice      uint64         `bson:"ticketPrice" json:"ticketPrice"` // Smallest currency unit
	StartTime        uint64         `bson:"startTime" json:"startTime"`     // Epoch seconds
	EndTime          uint64         `bson:"endTime" json:"endTime"`         // Epoch seconds
	CorrelationTag   CorrelationTag `bson:"correlationTag" json:"correlationTag"`
	PrizeReference   string         `bson:"prizeReference" json:"prizeReference"`
	TicketsSold      uint64         `bson:"ticketsSold" json:"ticketsSold"`
	Status           LotteryStatus  `bson:"status" json:"status"`
	Winner           *string        `bson:"winner" json:"winner,omitempty"`
	CustodyAuthority string         `bson:"custodyAuthority" json:"custodyAuthority"`
	CreatedAt        time.Time      `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time      `bson:"updatedAt" json:"updatedAt"`
}

// HasWinner reports whether the draw has been resolved
func (l *Lottery) HasWinner() bool {
	return l.Winner != nil
}

// Clone returns a copy that shares no pointers with l
func (l *Lottery) Clone() *Lottery {
	c := *l
	if l.Winner != nil {
		w := *l.Winner
		c.Winner = &w
	}
	return &c
}
