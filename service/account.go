package service

import (
	"context"
	"fmt"

	"github.com/layer-3/playground/core"
	"github.com/layer-3/playground/ports"
)

// AccountProvisioner creates and recovers playground accounts
type AccountProvisioner struct{}

// CreateNew generates a fresh account
func (AccountProvisioner) CreateNew() (*core.Account, error) {
	return core.NewAccount()
}

// Recover rebuilds an account from its key string
func (AccountProvisioner) Recover(keyString string) (*core.Account, error) {
	return core.RecoverAccount(keyString)
}

// Balance sums the balance of every coin owned by address
func (AccountProvisioner) Balance(ctx context.Context, ledger ports.Ledger, address string) (uint64, error) {
	var total uint64
	cursor := ""
	for {
		page, err := ledger.Coins(ctx, address, cursor)
		if err != nil {
			return 0, err
		}
		for _, c := range page.Data {
			total += c.Balance
		}
		if !page.HasNext {
			return total, nil
		}
		if page.NextCursor == cursor {
			return 0, fmt.Errorf("coin pagination stalled at cursor %q", cursor)
		}
		cursor = page.NextCursor
	}
}
