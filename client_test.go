package playground_test

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/layer-3/playground"
	"github.com/layer-3/playground/adapters/events"
	"github.com/layer-3/playground/adapters/ledger"
	"github.com/layer-3/playground/adapters/tokenizer"
	"github.com/layer-3/playground/core"
	"github.com/layer-3/playground/service"
	transport "github.com/layer-3/playground/transport/http"
)

type stubBuilder struct{}

func (stubBuilder) Build(context.Context, string) ([]string, error) {
	return []string{"bW9kdWxl"}, nil
}

func TestHTTPClient(t *testing.T) {
	gin.SetMode(gin.TestMode)
	require := require.New(t)
	ctx := context.Background()

	tok, err := tokenizer.NewAEADTokenizer(bytes.Repeat([]byte{3}, 32))
	require.NoError(err)
	mem := ledger.NewMemory()
	svc, err := service.NewChallengeService(core.Challenge{
		Description: "Emit the Solved event",
		Contract:    "ctf-01",
		Module:      "challenge",
		SolvedEvent: "Solved",
		Flag:        "flag{client}",
		ShowSource:  true,
	}, t.TempDir(), mem, tok, stubBuilder{}, events.Nop{},
		service.WithSource(map[string]string{"sources/challenge.move": "module ctf::challenge {}"}))
	require.NoError(err)

	srv := httptest.NewServer(transport.SetupRouter(svc, transport.RouterConfig{}))
	defer srv.Close()

	client := playground.NewHTTPClient(srv.URL+"/", srv.Client())

	info, err := client.ChallengeInfo(ctx)
	require.NoError(err)
	require.Equal("Solved", info.SolvedEvent)
	require.True(info.ShowSource)

	source, err := client.SourceCode(ctx)
	require.NoError(err)
	require.Contains(source, "sources/challenge.move")

	pg, err := client.NewPlayground(ctx)
	require.NoError(err)

	_, err = client.DeployContract(ctx, "forged")
	require.ErrorIs(err, playground.ErrUnauthenticated)

	mem.Fund(pg.Address, 1_000_000_000)
	contract, err := client.DeployContract(ctx, pg.Token)
	require.NoError(err)

	_, err = client.Flag(ctx, pg.Token, contract.TxHash)
	require.ErrorIs(err, playground.ErrNotSolved)

	_, err = client.Flag(ctx, pg.Token, "")
	var twerr *playground.Error
	require.ErrorAs(err, &twerr)
	require.Equal(400, twerr.Status)
	require.Equal("tx_hash", twerr.Meta["argument"])
	require.NotErrorIs(err, playground.ErrNotSolved)

	solve := mem.Emit(core.Event{
		Kind:      core.EventMove,
		Sender:    pg.Address,
		PackageID: contract.Address,
		Type:      contract.Address + "::challenge::Solved",
	})
	flag, err := client.Flag(ctx, pg.Token, solve.TxDigest)
	require.NoError(err)
	require.Equal("flag{client}", flag)
}
