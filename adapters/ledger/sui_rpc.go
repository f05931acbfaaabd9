package ledger

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
	"golang.org/x/crypto/blake2b"

	"github.com/layer-3/playground/core"
	"github.com/layer-3/playground/ports"
)

// Known networks and their public full node endpoints
var Networks = map[string]string{
	"localnet": "http://127.0.0.1:9000",
	"devnet":   "https://fullnode.devnet.sui.io:443",
	"testnet":  "https://fullnode.testnet.sui.io:443",
	"mainnet":  "https://fullnode.mainnet.sui.io:443",
}

// Endpoint resolves the node URL for a network unless url is set explicitly
func Endpoint(network, url string) (string, error) {
	if url != "" {
		return url, nil
	}
	if endpoint, ok := Networks[network]; ok {
		return endpoint, nil
	}
	return "", fmt.Errorf("unknown network %q and no ledger url configured", network)
}

const (
	executeRequestType = "WaitForLocalExecution"
	pageLimit          = 50
)

// transactionIntent prefixes transaction bytes before signing (scope, version, app id)
var transactionIntent = []byte{0, 0, 0}

// SuiRPC implements the Ledger interface against a Sui full node's JSON-RPC API
type SuiRPC struct {
	client *rpc.Client
}

// DialSui connects to the node at url
func DialSui(ctx context.Context, url string) (*SuiRPC, error) {
	client, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", url, err)
	}
	return NewSuiRPC(client), nil
}

// NewSuiRPC wraps an existing JSON-RPC client
func NewSuiRPC(client *rpc.Client) *SuiRPC {
	return &SuiRPC{client: client}
}

var _ ports.Ledger = (*SuiRPC)(nil)

// Close closes the underlying connection
func (s *SuiRPC) Close() {
	s.client.Close()
}

type coinPage struct {
	Data []struct {
		CoinObjectID string   `json:"coinObjectId"`
		Balance      quantity `json:"balance"`
	} `json:"data"`
	NextCursor *string `json:"nextCursor"`
}

// Coins returns a page of SUI coins owned by owner
func (s *SuiRPC) Coins(ctx context.Context, owner string, cursor string) (*core.CoinPage, error) {
	var result coinPage
	if err := s.client.CallContext(ctx, &result, "sui_getCoins", owner, nil, nullable(cursor), pageLimit); err != nil {
		return nil, fmt.Errorf("failed to get coins of %s: %w", owner, err)
	}

	page := &core.CoinPage{Data: make([]core.Coin, 0, len(result.Data))}
	for _, c := range result.Data {
		page.Data = append(page.Data, core.Coin{ObjectID: c.CoinObjectID, Balance: uint64(c.Balance)})
	}
	if result.NextCursor != nil && *result.NextCursor != "" {
		page.NextCursor = *result.NextCursor
		page.HasNext = true
	}
	return page, nil
}

type eventEnvelope struct {
	Timestamp quantity        `json:"timestamp"`
	TxDigest  string          `json:"txDigest"`
	ID        json.RawMessage `json:"id"`
	Event     struct {
		Publish *struct {
			Sender    string `json:"sender"`
			PackageID string `json:"packageId"`
		} `json:"publish"`
		MoveEvent *struct {
			PackageID string `json:"packageId"`
			Sender    string `json:"sender"`
			Type      string `json:"type"`
		} `json:"moveEvent"`
	} `json:"event"`
}

type eventPage struct {
	Data       []eventEnvelope `json:"data"`
	NextCursor json.RawMessage `json:"nextCursor"`
}

// Events returns an ascending page of events matching filter
func (s *SuiRPC) Events(ctx context.Context, filter core.EventFilter, cursor string) (*core.EventPage, error) {
	query := map[string]string{}
	if filter.Sender != "" {
		query["Sender"] = filter.Sender
	} else {
		query["Transaction"] = filter.Transaction
	}

	var rawCursor any
	if cursor != "" {
		rawCursor = json.RawMessage(cursor)
	}

	var result eventPage
	if err := s.client.CallContext(ctx, &result, "sui_getEvents", query, rawCursor, pageLimit, false); err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}

	page := &core.EventPage{Data: make([]core.Event, 0, len(result.Data))}
	for _, env := range result.Data {
		page.Data = append(page.Data, env.toEvent())
	}
	if len(result.NextCursor) > 0 && string(result.NextCursor) != "null" {
		page.NextCursor = string(result.NextCursor)
		page.HasNext = true
	}
	return page, nil
}

func (env eventEnvelope) toEvent() core.Event {
	e := core.Event{
		TxDigest:  env.TxDigest,
		Timestamp: time.UnixMilli(int64(env.Timestamp)),
	}
	var id struct {
		EventSeq quantity `json:"eventSeq"`
	}
	if json.Unmarshal(env.ID, &id) == nil {
		e.Seq = uint64(id.EventSeq)
	}

	switch {
	case env.Event.Publish != nil:
		e.Kind = core.EventPublish
		e.Sender = env.Event.Publish.Sender
		e.PackageID = env.Event.Publish.PackageID
	case env.Event.MoveEvent != nil:
		e.Kind = core.EventMove
		e.Sender = env.Event.MoveEvent.Sender
		e.PackageID = env.Event.MoveEvent.PackageID
		e.Type = env.Event.MoveEvent.Type
	default:
		e.Kind = core.EventOther
	}
	return e
}

type transactionBytes struct {
	TxBytes string `json:"txBytes"`
}

type executeResponse struct {
	Digest      string `json:"digest"`
	Certificate *struct {
		TransactionDigest string `json:"transactionDigest"`
	} `json:"certificate"`
}

// Publish builds, signs and executes a publish transaction
func (s *SuiRPC) Publish(ctx context.Context, req core.PublishRequest) (string, error) {
	var unsigned transactionBytes
	err := s.client.CallContext(ctx, &unsigned, "sui_publish",
		req.Signer.Address, req.Modules, req.Gas, req.GasBudget)
	if err != nil {
		return "", fmt.Errorf("failed to build publish transaction: %w", err)
	}

	txBytes, err := base64.StdEncoding.DecodeString(unsigned.TxBytes)
	if err != nil {
		return "", fmt.Errorf("failed to decode transaction bytes: %w", err)
	}

	var executed executeResponse
	err = s.client.CallContext(ctx, &executed, "sui_executeTransactionSerializedSig",
		unsigned.TxBytes, serializedSignature(req.Signer, txBytes), executeRequestType)
	if err != nil {
		return "", fmt.Errorf("failed to execute publish transaction: %w", err)
	}

	switch {
	case executed.Digest != "":
		return executed.Digest, nil
	case executed.Certificate != nil && executed.Certificate.TransactionDigest != "":
		return executed.Certificate.TransactionDigest, nil
	}
	return "", fmt.Errorf("execute response carries no transaction digest")
}

// serializedSignature signs the intent digest of txBytes and returns
// base64(flag || signature || public key)
func serializedSignature(signer *core.Account, txBytes []byte) string {
	msg := make([]byte, 0, len(transactionIntent)+len(txBytes))
	msg = append(msg, transactionIntent...)
	msg = append(msg, txBytes...)
	digest := blake2b.Sum256(msg)

	sig := signer.Sign(digest[:])
	pub := signer.PublicKey()

	out := make([]byte, 0, 1+len(sig)+len(pub))
	out = append(out, byte(signer.Scheme))
	out = append(out, sig...)
	out = append(out, pub...)
	return base64.StdEncoding.EncodeToString(out)
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// quantity decodes integers sent either as JSON numbers or as decimal strings
type quantity uint64

func (q *quantity) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		data = []byte(s)
	}
	v, err := strconv.ParseUint(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid quantity %s: %w", data, err)
	}
	*q = quantity(v)
	return nil
}
