package ledger

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/blake2b"

	"github.com/layer-3/playground/core"
)

type rpcRequest struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

// fakeNode answers JSON-RPC calls with canned results keyed by method
type fakeNode struct {
	mu      sync.Mutex
	calls   []rpcRequest
	results map[string][]string
}

func (n *fakeNode) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	n.mu.Lock()
	n.calls = append(n.calls, req)
	queue := n.results[req.Method]
	var result string
	if len(queue) > 0 {
		result, n.results[req.Method] = queue[0], queue[1:]
	}
	n.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if result == "" {
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":` + string(req.ID) + `,"error":{"code":-32601,"message":"method not found"}}`))
		return
	}
	_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":` + string(req.ID) + `,"result":` + result + `}`))
}

func (n *fakeNode) Calls() []rpcRequest {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]rpcRequest(nil), n.calls...)
}

func newFakeSui(t *testing.T, results map[string][]string) (*SuiRPC, *fakeNode) {
	t.Helper()
	node := &fakeNode{results: results}
	srv := httptest.NewServer(node)
	t.Cleanup(srv.Close)

	sui, err := DialSui(context.Background(), srv.URL)
	require.NoError(t, err)
	t.Cleanup(sui.Close)
	return sui, node
}

func TestSuiCoins(t *testing.T) {
	require := require.New(t)
	sui, node := newFakeSui(t, map[string][]string{
		"sui_getCoins": {
			`{"data":[{"coinObjectId":"0xc1","balance":100},{"coinObjectId":"0xc2","balance":"250"}],"nextCursor":"0xc2"}`,
			`{"data":[],"nextCursor":null}`,
		},
	})

	page, err := sui.Coins(context.Background(), "0xabc", "")
	require.NoError(err)
	require.Equal([]core.Coin{{ObjectID: "0xc1", Balance: 100}, {ObjectID: "0xc2", Balance: 250}}, page.Data)
	require.True(page.HasNext)
	require.Equal("0xc2", page.NextCursor)

	page, err = sui.Coins(context.Background(), "0xabc", page.NextCursor)
	require.NoError(err)
	require.Empty(page.Data)
	require.False(page.HasNext)

	require.Len(node.Calls(), 2)
	require.JSONEq(`"0xabc"`, string(node.Calls()[0].Params[0]))
	require.JSONEq(`null`, string(node.Calls()[0].Params[2]))
	require.JSONEq(`"0xc2"`, string(node.Calls()[1].Params[2]))
}

func TestSuiEvents(t *testing.T) {
	require := require.New(t)
	sui, node := newFakeSui(t, map[string][]string{
		"sui_getEvents": {
			`{"data":[
				{"timestamp":1700000000000,"txDigest":"D1","id":{"txSeq":1,"eventSeq":0},
				 "event":{"publish":{"sender":"0xa","packageId":"0xp"}}},
				{"timestamp":1700000001000,"txDigest":"D2","id":{"txSeq":2,"eventSeq":3},
				 "event":{"moveEvent":{"packageId":"0xp","sender":"0xa","type":"0xp::m::Solved"}}},
				{"timestamp":1700000002000,"txDigest":"D3","id":{"txSeq":3,"eventSeq":0},
				 "event":{"coinBalanceChange":{}}}
			],"nextCursor":{"txSeq":3,"eventSeq":0}}`,
		},
	})

	page, err := sui.Events(context.Background(), core.EventFilter{Sender: "0xa"}, "")
	require.NoError(err)
	require.Len(page.Data, 3)

	require.Equal(core.EventPublish, page.Data[0].Kind)
	require.Equal("0xa", page.Data[0].Sender)
	require.Equal("0xp", page.Data[0].PackageID)
	require.Equal("D1", page.Data[0].TxDigest)

	require.Equal(core.EventMove, page.Data[1].Kind)
	require.Equal("0xp::m::Solved", page.Data[1].Type)
	require.Equal(uint64(3), page.Data[1].Seq)

	require.Equal(core.EventOther, page.Data[2].Kind)

	require.True(page.HasNext)
	require.JSONEq(`{"txSeq":3,"eventSeq":0}`, page.NextCursor)

	require.JSONEq(`{"Sender":"0xa"}`, string(node.Calls()[0].Params[0]))
	require.JSONEq(`false`, string(node.Calls()[0].Params[3]))
}

func TestSuiEventsCursorPassthrough(t *testing.T) {
	require := require.New(t)
	sui, node := newFakeSui(t, map[string][]string{
		"sui_getEvents": {`{"data":[],"nextCursor":null}`},
	})

	page, err := sui.Events(context.Background(), core.EventFilter{Transaction: "D9"}, `{"txSeq":3,"eventSeq":0}`)
	require.NoError(err)
	require.False(page.HasNext)

	require.JSONEq(`{"Transaction":"D9"}`, string(node.Calls()[0].Params[0]))
	require.JSONEq(`{"txSeq":3,"eventSeq":0}`, string(node.Calls()[0].Params[1]))
}

func TestSuiPublish(t *testing.T) {
	require := require.New(t)

	txBytes := []byte("unsigned publish transaction")
	sui, node := newFakeSui(t, map[string][]string{
		"sui_publish":                         {`{"txBytes":"` + base64.StdEncoding.EncodeToString(txBytes) + `"}`},
		"sui_executeTransactionSerializedSig": {`{"certificate":{"transactionDigest":"DIGEST"}}`},
	})

	acct, err := core.NewAccount()
	require.NoError(err)

	digest, err := sui.Publish(context.Background(), core.PublishRequest{
		Signer:    acct,
		Modules:   []string{"bW9kdWxl"},
		Gas:       "0xc1",
		GasBudget: 3000,
	})
	require.NoError(err)
	require.Equal("DIGEST", digest)

	require.Len(node.Calls(), 2)
	require.JSONEq(`"`+acct.Address+`"`, string(node.Calls()[0].Params[0]))
	require.JSONEq(`["bW9kdWxl"]`, string(node.Calls()[0].Params[1]))
	require.JSONEq(`3000`, string(node.Calls()[0].Params[3]))

	var sigB64 string
	require.NoError(json.Unmarshal(node.Calls()[1].Params[1], &sigB64))
	sig, err := base64.StdEncoding.DecodeString(sigB64)
	require.NoError(err)
	require.Len(sig, 1+ed25519.SignatureSize+ed25519.PublicKeySize)
	require.Equal(byte(core.SchemeEd25519), sig[0])
	require.Equal([]byte(acct.PublicKey()), sig[1+ed25519.SignatureSize:])

	digestMsg := blake2b.Sum256(append([]byte{0, 0, 0}, txBytes...))
	require.True(ed25519.Verify(acct.PublicKey(), digestMsg[:], sig[1:1+ed25519.SignatureSize]))
}

func TestSuiPublishNodeError(t *testing.T) {
	sui, _ := newFakeSui(t, map[string][]string{})

	acct, err := core.NewAccount()
	require.NoError(t, err)

	_, err = sui.Publish(context.Background(), core.PublishRequest{Signer: acct, Modules: []string{"AA=="}, Gas: "0x1"})
	require.ErrorContains(t, err, "method not found")
}

func TestEndpoint(t *testing.T) {
	require := require.New(t)

	url, err := Endpoint("devnet", "")
	require.NoError(err)
	require.Equal(Networks["devnet"], url)

	url, err = Endpoint("devnet", "http://node:9000")
	require.NoError(err)
	require.Equal("http://node:9000", url)

	_, err = Endpoint("nowhere", "")
	require.Error(err)
}
