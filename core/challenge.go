package core

import (
	"errors"
	"time"
)

// Challenge is the static definition of the running challenge
type Challenge struct {
	Description string      `koanf:"description"`
	Contract    string      `koanf:"contract"`     // Challenge id, also the token footer
	Module      string      `koanf:"module"`       // Move module emitting the solved event
	SolvedEvent string      `koanf:"solved_event"` // Event struct name proving the solve
	Flag        string      `koanf:"flag"`
	Constructor Constructor `koanf:"constructor"`
	ShowSource  bool        `koanf:"show_source"`
}

// Constructor describes the funding the challenge contract needs at deploy time
type Constructor struct {
	Value int64 `koanf:"value"` // Amount in MIST
}

// Validate checks that the challenge can be served.
func (c Challenge) Validate() error {
	switch {
	case c.Contract == "":
		return errors.New("challenge contract is required")
	case c.Module == "":
		return errors.New("challenge module is required")
	case c.SolvedEvent == "":
		return errors.New("to solve the challenge, the 'solved_event' parameter is required and cannot be left empty")
	case c.Flag == "":
		return errors.New("challenge flag is required")
	case c.Constructor.Value < 0:
		return errors.New("constructor value must not be negative")
	}
	return nil
}

// ChallengeInfo is the public part of a Challenge
type ChallengeInfo struct {
	Description string
	ShowSource  bool
	SolvedEvent string
}

// Playground is a freshly issued, unfunded account
type Playground struct {
	Address string
	Token   string
	Value   float64 // Suggested funding in SUI
}

// Deployment is the first package published by an account
type Deployment struct {
	Address string // Package id of the published contract
	TxHash  string
}

// EventKind distinguishes the event envelopes of the ledger's event log
type EventKind int

const (
	EventOther EventKind = iota
	EventPublish
	EventMove
)

// Event is one entry of the ledger's event log
type Event struct {
	TxDigest  string
	Seq       uint64 // Position of the event within its transaction
	Kind      EventKind
	Sender    string
	PackageID string
	Type      string // Fully-qualified Move type, only set for move events
	Timestamp time.Time
}

// EventFilter selects events by sender or by transaction. Exactly one field is set.
type EventFilter struct {
	Sender      string
	Transaction string
}

// EventPage is one ascending page of the event log. NextCursor is opaque to callers.
type EventPage struct {
	Data       []Event
	NextCursor string
	HasNext    bool
}

// Coin is a fungible-asset object owned by an address
type Coin struct {
	ObjectID string
	Balance  uint64
}

// CoinPage is one page of coins
type CoinPage struct {
	Data       []Coin
	NextCursor string
	HasNext    bool
}

// PublishRequest asks the ledger to publish a package signed by Signer
type PublishRequest struct {
	Signer    *Account
	Modules   []string // Base64 compiled modules
	Gas       string   // Coin object paying for gas
	GasBudget uint64
}
