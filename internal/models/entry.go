package models

import "time"

// Entry is one sold ticket. It is never modified after the sale.
type Entry struct {
	ID          string    `bson:"_id" json:"id"` // Derived from (lottery, entry number)
	Owner       string    `bson:"owner" json:"owner"`
	LotteryID   string    `bson:"lotteryId" json:"lotteryId"`
	EntryNumber uint64    `bson:"entryNumber" json:"entryNumber"`
	PurchasedAt time.Time `bson:"purchasedAt" json:"purchasedAt"`
}
