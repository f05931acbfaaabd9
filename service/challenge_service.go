package service

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/log"
	"github.com/shopspring/decimal"

	"github.com/layer-3/playground/core"
	"github.com/layer-3/playground/ports"
)

var (
	// mistPerSui converts constructor values to display units
	mistPerSui = decimal.New(1, 9)
	// fundingMargin covers the gas of the publish transaction
	fundingMargin = decimal.New(1, -3)
)

// ChallengeService handles the playground lifecycle:
// NoAccount -> PlaygroundIssued -> Deployed -> Solved.
// No state is kept between requests. Accounts are recovered from the token and
// deployment state is read from the ledger on every call.
type ChallengeService struct {
	challenge core.Challenge
	ledger    ports.Ledger
	tokenizer ports.Tokenizer
	eventPub  ports.EventPublisher
	logger    log.Logger

	accounts    AccountProvisioner
	deployments *DeploymentResolver
	verifier    *SolvedVerifier

	contractPath string
	source       map[string]string
}

// Option configures a ChallengeService
type Option func(*ChallengeService)

// WithLogger sets the service logger
func WithLogger(logger log.Logger) Option {
	return func(s *ChallengeService) {
		s.logger = logger
	}
}

// WithSource sets the source files served by GetSourceCode
func WithSource(source map[string]string) Option {
	return func(s *ChallengeService) {
		s.source = source
	}
}

// WithGasBudget sets the gas budget of the publish transaction
func WithGasBudget(budget uint64) Option {
	return func(s *ChallengeService) {
		s.deployments.gasBudget = budget
	}
}

// NewChallengeService creates a new challenge service. projectRoot holds the
// contracts/ package published on deployment.
func NewChallengeService(
	challenge core.Challenge,
	projectRoot string,
	ledger ports.Ledger,
	tokenizer ports.Tokenizer,
	builder ports.Builder,
	eventPub ports.EventPublisher,
	opts ...Option,
) (*ChallengeService, error) {
	if err := challenge.Validate(); err != nil {
		return nil, core.Wrap(core.KindPrecondition, err)
	}

	s := &ChallengeService{
		challenge:    challenge,
		ledger:       ledger,
		tokenizer:    tokenizer,
		eventPub:     eventPub,
		logger:       log.Root(),
		deployments:  NewDeploymentResolver(builder, DefaultGasBudget),
		verifier:     NewSolvedVerifier(challenge.Module),
		contractPath: filepath.Join(projectRoot, "contracts"),
		source:       map[string]string{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("challenge", challenge.Contract)
	return s, nil
}

// GetChallengeInfo returns the public challenge description
func (s *ChallengeService) GetChallengeInfo() core.ChallengeInfo {
	return core.ChallengeInfo{
		Description: s.challenge.Description,
		ShowSource:  s.challenge.ShowSource,
		SolvedEvent: s.challenge.SolvedEvent,
	}
}

// NewPlayground issues a fresh account and a token scoped to this challenge
func (s *ChallengeService) NewPlayground(ctx context.Context) (*core.Playground, error) {
	account, err := s.accounts.CreateNew()
	if err != nil {
		return nil, core.Wrap(core.KindInfrastructure, err)
	}

	token, err := s.tokenizer.Encode(account.KeyString(), s.challenge.Contract)
	if err != nil {
		return nil, core.Wrap(core.KindInfrastructure, err)
	}

	s.logger.Info("Playground account was created", "address", account.Address)
	if err := s.eventPub.PublishPlayground(ctx, s.challenge.Contract, account.Address); err != nil {
		s.logger.Warn("Failed to publish playground event", "address", account.Address, "err", err)
	}

	return &core.Playground{
		Address: account.Address,
		Token:   token,
		Value:   FundingValue(s.challenge.Constructor.Value),
	}, nil
}

// FundingValue converts a constructor value in MIST to the suggested SUI amount,
// adding a margin for gas and rounding half to even at 3 decimals
func FundingValue(mist int64) float64 {
	return decimal.NewFromInt(mist).
		Div(mistPerSui).
		Add(fundingMargin).
		RoundBank(3).
		InexactFloat64()
}

// DeployContract publishes the challenge contract from the token's account
func (s *ChallengeService) DeployContract(ctx context.Context, token string) (*core.Deployment, error) {
	account, err := s.Authenticate(token)
	if err != nil {
		return nil, err
	}

	balance, err := s.accounts.Balance(ctx, s.ledger, account.Address)
	if err != nil {
		return nil, core.Wrap(core.KindInfrastructure, err)
	}
	if balance == 0 {
		return nil, core.Errorf(core.KindPrecondition, "send test SUI to %s first", account.Address)
	}

	existing, deployed, err := s.deployments.GetDeploymentAddress(ctx, s.ledger, account.Address)
	if err != nil {
		return nil, core.Wrap(core.KindInfrastructure, err)
	}
	if deployed {
		return nil, core.Errorf(core.KindPrecondition, "contract %s has already deployed", existing.Address)
	}

	deployment, err := s.deployments.Publish(ctx, s.ledger, account, s.contractPath)
	if err != nil {
		s.logger.Error("Failed to deploy contract", "address", account.Address, "err", err)
		return nil, core.Wrap(core.KindInfrastructure, err)
	}

	s.logger.Info("Contract was deployed",
		"contract", deployment.Address, "address", account.Address, "tx", deployment.TxHash)
	if err := s.eventPub.PublishDeployment(ctx, s.challenge.Contract, account.Address, deployment.Address, deployment.TxHash); err != nil {
		s.logger.Warn("Failed to publish deployment event", "address", account.Address, "err", err)
	}

	return &deployment, nil
}

// GetFlag releases the flag when txHash emitted the solved event from the
// account's deployed contract
func (s *ChallengeService) GetFlag(ctx context.Context, token string, txHash string) (string, error) {
	account, err := s.Authenticate(token)
	if err != nil {
		return "", err
	}

	deployment, deployed, err := s.deployments.GetDeploymentAddress(ctx, s.ledger, account.Address)
	if err != nil {
		return "", core.Wrap(core.KindInfrastructure, err)
	}
	if !deployed {
		return "", core.Errorf(core.KindPrecondition, "challenge contract has not yet been deployed")
	}

	txHash = strings.TrimSpace(txHash)
	if txHash == "" {
		return "", core.RequiredArgument("tx_hash")
	}

	solved, err := s.verifier.IsSolved(ctx, s.ledger, deployment.Address, s.challenge.SolvedEvent, txHash)
	if err != nil {
		return "", core.Wrap(core.KindInfrastructure, err)
	}
	if !solved {
		return "", core.Errorf(core.KindVerification, "you haven't solved this challenge")
	}

	s.logger.Info("Flag was captured",
		"contract", deployment.Address, "address", account.Address, "tx", txHash)
	if err := s.eventPub.PublishCapture(ctx, s.challenge.Contract, account.Address, deployment.Address, txHash); err != nil {
		s.logger.Warn("Failed to publish capture event", "address", account.Address, "err", err)
	}

	return s.challenge.Flag, nil
}

// GetSourceCode returns the challenge sources, empty unless show_source is set
func (s *ChallengeService) GetSourceCode() map[string]string {
	if !s.challenge.ShowSource {
		return map[string]string{}
	}
	return s.source
}

// Authenticate recovers the account sealed in token
func (s *ChallengeService) Authenticate(token string) (*core.Account, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, core.Errorf(core.KindAuth, "authorization is required")
	}

	keyString, err := s.tokenizer.Decode(token, s.challenge.Contract)
	if err != nil {
		if errors.Is(err, core.ErrTokenScope) || errors.Is(err, core.ErrTokenExpired) {
			return nil, core.Wrap(core.KindAuth, err)
		}
		return nil, &core.Error{Kind: core.KindAuth, Msg: core.ErrInvalidToken.Error(), Err: err}
	}

	account, err := s.accounts.Recover(keyString)
	if err != nil {
		return nil, &core.Error{Kind: core.KindAuth, Msg: core.ErrInvalidToken.Error(), Err: err}
	}
	return account, nil
}
