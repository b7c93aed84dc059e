package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
)

// Transactor runs units of work inside MongoDB multi-document transactions.
// Transactions need a replica set or sharded cluster.
type Transactor struct {
	client *mongo.Client
}

// NewTransactor creates a Transactor bound to the client behind db
func NewTransactor(db *mongo.Database) *Transactor {
	return &Transactor{client: db.Client()}
}

// WithTransaction runs fn in a session transaction. The driver retries fn on
// transient transaction errors. A ctx that already carries a session joins it.
func (t *Transactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if mongo.SessionFromContext(ctx) != nil {
		return fn(ctx)
	}

	session, err := t.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	})
	return err
}
