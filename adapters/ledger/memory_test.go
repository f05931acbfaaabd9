package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/layer-3/playground/core"
)

func TestMemoryCoinsPaging(t *testing.T) {
	require := require.New(t)
	m := NewMemory()
	m.SetPageSize(2)

	for i := 0; i < 5; i++ {
		m.Fund("0xa", uint64(i+1))
	}

	var total uint64
	var pages int
	cursor := ""
	for {
		page, err := m.Coins(context.Background(), "0xa", cursor)
		require.NoError(err)
		pages++
		for _, c := range page.Data {
			total += c.Balance
		}
		if !page.HasNext {
			break
		}
		cursor = page.NextCursor
	}
	require.Equal(uint64(15), total)
	require.Equal(3, pages)
}

func TestMemoryEventsFilterAndPaging(t *testing.T) {
	require := require.New(t)
	m := NewMemory()
	m.SetPageSize(2)

	for i := 0; i < 3; i++ {
		m.Emit(core.Event{Kind: core.EventMove, Sender: "0xa"})
		m.Emit(core.Event{Kind: core.EventMove, Sender: "0xb"})
	}

	var seen []core.Event
	cursor := ""
	for {
		page, err := m.Events(context.Background(), core.EventFilter{Sender: "0xa"}, cursor)
		require.NoError(err)
		seen = append(seen, page.Data...)
		if !page.HasNext {
			break
		}
		cursor = page.NextCursor
	}
	require.Len(seen, 3)
	for _, e := range seen {
		require.Equal("0xa", e.Sender)
	}
}

func TestMemoryEventsByTransaction(t *testing.T) {
	require := require.New(t)
	m := NewMemory()

	first := m.Emit(core.Event{TxDigest: "D1", Kind: core.EventMove})
	second := m.Emit(core.Event{TxDigest: "D1", Kind: core.EventMove})
	m.Emit(core.Event{TxDigest: "D2", Kind: core.EventMove})
	require.Equal(uint64(0), first.Seq)
	require.Equal(uint64(1), second.Seq)

	page, err := m.Events(context.Background(), core.EventFilter{Transaction: "D1"}, "")
	require.NoError(err)
	require.Len(page.Data, 2)

	_, err = m.Events(context.Background(), core.EventFilter{}, "")
	require.Error(err)
}

func TestMemoryPublish(t *testing.T) {
	require := require.New(t)
	m := NewMemory()

	acct, err := core.NewAccount()
	require.NoError(err)

	req := core.PublishRequest{Signer: acct, Modules: []string{"AA=="}, Gas: "0xmissing"}
	_, err = m.Publish(context.Background(), req)
	require.ErrorContains(err, "not owned")

	req.Gas = m.Fund(acct.Address, 10)
	digest, err := m.Publish(context.Background(), req)
	require.NoError(err)
	require.Equal(1, m.Publishes)

	page, err := m.Events(context.Background(), core.EventFilter{Transaction: digest}, "")
	require.NoError(err)
	require.Len(page.Data, 1)
	require.Equal(core.EventPublish, page.Data[0].Kind)
	require.Equal(acct.Address, page.Data[0].Sender)
	require.NotEmpty(page.Data[0].PackageID)

	m.PublishErr = errors.New("node unavailable")
	_, err = m.Publish(context.Background(), req)
	require.EqualError(err, "node unavailable")
}

func TestMemoryCancelledContext(t *testing.T) {
	m := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Coins(ctx, "0xa", "")
	require.ErrorIs(t, err, context.Canceled)
}
