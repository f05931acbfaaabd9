package service

import (
	"context"

	"github.com/layer-3/playground/core"
	"github.com/layer-3/playground/ports"
)

// SolvedVerifier checks transactions for the challenge's solved event
type SolvedVerifier struct {
	module string
}

// NewSolvedVerifier creates a verifier for events of module
func NewSolvedVerifier(module string) *SolvedVerifier {
	return &SolvedVerifier{module: module}
}

// EventType returns the fully-qualified type of event emitted by contract
func (v *SolvedVerifier) EventType(contract, event string) string {
	return contract + "::" + v.module + "::" + event
}

// IsSolved reports whether transaction txHash emitted solvedEvent from contract.
// Both the event type and the emitting package must match.
func (v *SolvedVerifier) IsSolved(ctx context.Context, ledger ports.Ledger, contract, solvedEvent, txHash string) (bool, error) {
	if solvedEvent == "" || txHash == "" {
		return false, nil
	}

	eventType := v.EventType(contract, solvedEvent)
	solved := false
	err := scanEvents(ctx, ledger, core.EventFilter{Transaction: txHash}, func(e core.Event) bool {
		if e.Kind == core.EventMove && e.Type == eventType && e.PackageID == contract {
			solved = true
			return false
		}
		return true
	})
	if err != nil {
		return false, err
	}
	return solved, nil
}
