package ledger

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/layer-3/playground/core"
	"github.com/layer-3/playground/ports"
)

// DefaultPageSize is the page size of the in-memory ledger
const DefaultPageSize = 50

// Memory is an in-process implementation of the Ledger interface.
// It keeps an append-only event log and a coin set per owner, and is used for
// tests and for running the service without a node.
type Memory struct {
	mu       sync.RWMutex
	coins    map[string][]core.Coin
	events   []core.Event
	pageSize int
	now      func() time.Time

	// PublishErr, when set, is returned by Publish instead of executing.
	PublishErr error
	// Publishes counts executed publish transactions.
	Publishes int
}

// NewMemory creates a new in-memory ledger
func NewMemory() *Memory {
	return &Memory{
		coins:    make(map[string][]core.Coin),
		pageSize: DefaultPageSize,
		now:      time.Now,
	}
}

var _ ports.Ledger = (*Memory)(nil)

// SetPageSize changes the size of returned pages
func (m *Memory) SetPageSize(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pageSize = n
}

// Fund gives owner a new coin holding amount, returning its object id
func (m *Memory) Fund(owner string, amount uint64) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := randomHex()
	m.coins[owner] = append(m.coins[owner], core.Coin{ObjectID: id, Balance: amount})
	return id
}

// Emit appends an event to the log, filling in its id and timestamp
func (m *Memory) Emit(event core.Event) core.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.emitLocked(event)
}

func (m *Memory) emitLocked(event core.Event) core.Event {
	if event.TxDigest == "" {
		event.TxDigest = randomHex()
	}
	var seq uint64
	for _, e := range m.events {
		if e.TxDigest == event.TxDigest {
			seq++
		}
	}
	event.Seq = seq
	if event.Timestamp.IsZero() {
		event.Timestamp = m.now()
	}
	m.events = append(m.events, event)
	return event
}

// Coins returns a page of coins owned by owner. The cursor is the last seen object id.
func (m *Memory) Coins(ctx context.Context, owner string, cursor string) (*core.CoinPage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	coins := m.coins[owner]
	start := 0
	if cursor != "" {
		start = len(coins)
		for i, c := range coins {
			if c.ObjectID == cursor {
				start = i + 1
				break
			}
		}
	}

	end := min(start+m.pageSize, len(coins))
	page := &core.CoinPage{Data: append([]core.Coin(nil), coins[start:end]...)}
	if end < len(coins) {
		page.HasNext = true
		page.NextCursor = coins[end-1].ObjectID
	}
	return page, nil
}

// Events returns an ascending page of events matching filter. The cursor is the log
// index of the last event of the previous page.
func (m *Memory) Events(ctx context.Context, filter core.EventFilter, cursor string) (*core.EventPage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if (filter.Sender == "") == (filter.Transaction == "") {
		return nil, errors.New("exactly one of sender or transaction must be set")
	}

	start := 0
	if cursor != "" {
		last, err := strconv.Atoi(cursor)
		if err != nil {
			return nil, fmt.Errorf("invalid cursor %q: %w", cursor, err)
		}
		start = last + 1
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	page := &core.EventPage{}
	lastIndex := -1
	for i := start; i < len(m.events); i++ {
		e := m.events[i]
		if !matches(filter, e) {
			continue
		}
		if len(page.Data) == m.pageSize {
			page.NextCursor = strconv.Itoa(lastIndex)
			page.HasNext = true
			break
		}
		page.Data = append(page.Data, e)
		lastIndex = i
	}
	return page, nil
}

func matches(filter core.EventFilter, e core.Event) bool {
	if filter.Sender != "" {
		return strings.EqualFold(e.Sender, filter.Sender)
	}
	return e.TxDigest == filter.Transaction
}

// Publish executes a publish transaction: it charges nothing, creates a package id and
// records a publish event sent by the signer
func (m *Memory) Publish(ctx context.Context, req core.PublishRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.PublishErr != nil {
		return "", m.PublishErr
	}
	if req.Signer == nil {
		return "", errors.New("publish requires a signer")
	}
	if len(req.Modules) == 0 {
		return "", errors.New("publish requires at least one module")
	}
	if !m.ownsLocked(req.Signer.Address, req.Gas) {
		return "", fmt.Errorf("gas object %s is not owned by %s", req.Gas, req.Signer.Address)
	}

	m.Publishes++
	event := m.emitLocked(core.Event{
		Kind:      core.EventPublish,
		Sender:    req.Signer.Address,
		PackageID: randomHex(),
	})
	return event.TxDigest, nil
}

func (m *Memory) ownsLocked(owner, objectID string) bool {
	for _, c := range m.coins[owner] {
		if c.ObjectID == objectID {
			return true
		}
	}
	return false
}

func randomHex() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hexutil.Encode(b)
}
