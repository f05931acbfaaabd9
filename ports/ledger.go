package ports

import (
	"context"

	"github.com/layer-3/playground/core"
)

// Ledger is the subset of the blockchain node API the challenge needs
type Ledger interface {
	// Coins returns a page of coins owned by owner, starting after cursor.
	Coins(ctx context.Context, owner string, cursor string) (*core.CoinPage, error)

	// Events returns an ascending page of events matching filter, starting after cursor.
	Events(ctx context.Context, filter core.EventFilter, cursor string) (*core.EventPage, error)

	// Publish signs and executes a package publish, returning the transaction digest.
	Publish(ctx context.Context, req core.PublishRequest) (string, error)
}
