package service

import (
	"context"
	"fmt"

	"github.com/layer-3/playground/core"
	"github.com/layer-3/playground/ports"
)

// DefaultGasBudget is the gas budget of the publish transaction
const DefaultGasBudget = 3000

// DeploymentResolver finds and creates challenge deployments.
// The ledger's event log is the only record of a deployment.
type DeploymentResolver struct {
	builder   ports.Builder
	gasBudget uint64
}

// NewDeploymentResolver creates a resolver publishing with builder
func NewDeploymentResolver(builder ports.Builder, gasBudget uint64) *DeploymentResolver {
	if gasBudget == 0 {
		gasBudget = DefaultGasBudget
	}
	return &DeploymentResolver{
		builder:   builder,
		gasBudget: gasBudget,
	}
}

// GetDeploymentAddress returns the first package published by address, or false
// when it has published nothing yet.
func (r *DeploymentResolver) GetDeploymentAddress(ctx context.Context, ledger ports.Ledger, address string) (core.Deployment, bool, error) {
	var found core.Deployment
	ok := false
	err := scanEvents(ctx, ledger, core.EventFilter{Sender: address}, func(e core.Event) bool {
		if e.Kind == core.EventPublish && e.Sender == address {
			found = core.Deployment{Address: e.PackageID, TxHash: e.TxDigest}
			ok = true
			return false
		}
		return true
	})
	if err != nil {
		return core.Deployment{}, false, err
	}
	return found, ok, nil
}

// Publish builds the package at sourcePath and publishes it from account, paying gas
// with any coin the account owns. The result is read back from the event log.
func (r *DeploymentResolver) Publish(ctx context.Context, ledger ports.Ledger, account *core.Account, sourcePath string) (core.Deployment, error) {
	coins, err := ledger.Coins(ctx, account.Address, "")
	if err != nil {
		return core.Deployment{}, err
	}
	if len(coins.Data) == 0 {
		return core.Deployment{}, core.ErrNoGasCoin
	}

	modules, err := r.builder.Build(ctx, sourcePath)
	if err != nil {
		return core.Deployment{}, err
	}

	digest, err := ledger.Publish(ctx, core.PublishRequest{
		Signer:    account,
		Modules:   modules,
		Gas:       coins.Data[0].ObjectID,
		GasBudget: r.gasBudget,
	})
	if err != nil {
		return core.Deployment{}, err
	}

	deployment, ok, err := r.GetDeploymentAddress(ctx, ledger, account.Address)
	if err != nil {
		return core.Deployment{}, err
	}
	if !ok {
		return core.Deployment{}, fmt.Errorf("%w: %s", core.ErrDeploymentNotIndexed, digest)
	}
	return deployment, nil
}

// scanEvents walks the log in ascending order until visit returns false or the
// log is exhausted.
func scanEvents(ctx context.Context, ledger ports.Ledger, filter core.EventFilter, visit func(core.Event) bool) error {
	cursor := ""
	for {
		page, err := ledger.Events(ctx, filter, cursor)
		if err != nil {
			return err
		}
		for _, e := range page.Data {
			if !visit(e) {
				return nil
			}
		}
		if !page.HasNext {
			return nil
		}
		if page.NextCursor == cursor {
			return fmt.Errorf("event pagination stalled at cursor %q", cursor)
		}
		cursor = page.NextCursor
	}
}
