package models

import "time"

// Account holds a spendable balance. Controller is the identity allowed to
// debit it; for custody accounts it is the derived custody authority.
type Account struct {
	ID         string    `bson:"_id" json:"id"`
	Controller string    `bson:"controller" json:"controller"`
	Balance    uint64    `bson:"balance" json:"balance"`
	CreatedAt  time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time `bson:"updatedAt" json:"updatedAt"`
}

// AssetHolding records which account currently holds a unique asset
type AssetHolding struct {
	AssetID   string    `bson:"_id" json:"assetId"`
	Account   string    `bson:"account" json:"account"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}
