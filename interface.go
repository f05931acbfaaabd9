package playground

import "context"

// Client represents the public interface of a challenge server
type Client interface {
	// ChallengeInfo returns the challenge description
	ChallengeInfo(ctx context.Context) (Info, error)

	// NewPlayground creates a new playground account and its token
	NewPlayground(ctx context.Context) (Playground, error)

	// DeployContract deploys the challenge contract from the token's account
	DeployContract(ctx context.Context, token string) (Contract, error)

	// Flag returns the flag once txHash solved the challenge
	Flag(ctx context.Context, token, txHash string) (string, error)

	// SourceCode returns the challenge sources, empty unless they are public
	SourceCode(ctx context.Context) (map[string]string, error)
}

// Info describes a challenge
type Info struct {
	Description string `json:"description"`
	ShowSource  bool   `json:"show_source"`
	SolvedEvent string `json:"solved_event"`
}

// Playground is a freshly issued account
type Playground struct {
	Address string  `json:"address"`
	Token   string  `json:"token"`
	Value   float64 `json:"value"`
}

// Contract is a deployed challenge contract
type Contract struct {
	Address string `json:"address"`
	TxHash  string `json:"tx_hash"`
}
