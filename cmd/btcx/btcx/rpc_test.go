package btcx

import (
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bitcoin-sv/btcx/errors"
	"github.com/bitcoin-sv/btcx/model"
	"github.com/bitcoin-sv/btcx/ulogger"
	"github.com/bitcoin-sv/btcx/util/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

type rpcRequest struct {
	ID     interface{}   `json:"id"`
	Method string        `json:"method"`
	Params []interface{} `json:"params"`
}

type fakeNode struct {
	server  *httptest.Server
	calls   atomic.Int32
	drop    atomic.Int32
	headers []*model.BlockHeader
	byHash  map[string]int
}

// newFakeNode serves the bitcoind RPC calls the client makes over headers,
// which start at height 0. The first drop requests have their connection
// closed without a response.
func newFakeNode(t *testing.T, headers []*model.BlockHeader, drop int32) *fakeNode {
	t.Helper()

	n := &fakeNode{
		headers: headers,
		byHash:  make(map[string]int, len(headers)),
	}
	n.drop.Store(drop)

	for i, h := range headers {
		n.byHash[h.Hash().String()] = i
	}

	n.server = httptest.NewServer(http.HandlerFunc(n.serve))
	t.Cleanup(n.server.Close)

	return n
}

func (n *fakeNode) url() string {
	return strings.Replace(n.server.URL, "http://", "http://bitcoin:bitcoin@", 1)
}

func (n *fakeNode) serve(w http.ResponseWriter, req *http.Request) {
	n.calls.Inc()

	if n.drop.Load() > 0 {
		n.drop.Dec()

		if conn, _, err := w.(http.Hijacker).Hijack(); err == nil {
			_ = conn.Close()
		}

		return
	}

	var r rpcRequest
	if err := json.NewDecoder(req.Body).Decode(&r); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	reply := func(status int, result interface{}, rpcErr interface{}) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"result": result, "error": rpcErr, "id": r.ID})
	}

	fail := func(code int, message string) {
		reply(http.StatusInternalServerError, nil, map[string]interface{}{"code": code, "message": message})
	}

	switch r.Method {
	case "getblockchaininfo":
		best := n.headers[len(n.headers)-1].Hash().String()
		reply(http.StatusOK, map[string]interface{}{"chain": "regtest", "blocks": len(n.headers) - 1, "bestblockhash": best}, nil)

	case "getblockhash":
		height := int(r.Params[0].(float64))
		if height < 0 || height >= len(n.headers) {
			fail(-8, "Block height out of range")
			return
		}

		reply(http.StatusOK, n.headers[height].Hash().String(), nil)

	case "getblockheader":
		height, ok := n.byHash[r.Params[0].(string)]
		if !ok {
			fail(-5, "Block not found")
			return
		}

		h := n.headers[height]

		if len(r.Params) > 1 && r.Params[1] == false {
			reply(http.StatusOK, hex.EncodeToString(h.Bytes()), nil)
			return
		}

		reply(http.StatusOK, map[string]interface{}{
			"hash":              h.Hash().String(),
			"height":            height,
			"previousblockhash": h.HashPrevBlock.String(),
		}, nil)

	default:
		fail(-32601, "Method not found")
	}
}

func newTestRPCClient(t *testing.T, rpcURL string) *RPCClient {
	t.Helper()

	r, err := NewRPCClient(ulogger.TestLogger{}, rpcURL)
	require.NoError(t, err)

	r.backoff = time.Millisecond

	return r
}

func TestRPCClientHeaders(t *testing.T) {
	c := test.UnitTestChain()
	node := newFakeNode(t, c.Headers[:100], 0)

	ctx := t.Context()
	r := newTestRPCClient(t, node.url())

	count, err := r.GetBlockCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint32(99), count)

	hash, err := r.GetBlockHash(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, c.Headers[5].Hash(), hash)

	raw, err := r.GetHeaderByHeight(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, c.Headers[5].Bytes(), raw)
}

func TestRPCClientNodeErrors(t *testing.T) {
	c := test.UnitTestChain()
	node := newFakeNode(t, c.Headers[:10], 0)

	ctx := t.Context()
	r := newTestRPCClient(t, node.url())

	_, err := r.GetBlockHash(ctx, 5000)
	require.ErrorIs(t, err, errors.ErrProcessing)
	assert.Equal(t, int32(1), node.calls.Load())

	_, err = r.GetBlockHeader(ctx, c.Headers[0].HashPrevBlock)
	require.ErrorIs(t, err, errors.ErrProcessing)
	assert.Equal(t, int32(2), node.calls.Load())
}

func TestRPCClientRetries(t *testing.T) {
	c := test.UnitTestChain()
	node := newFakeNode(t, c.Headers[:10], 2)

	hash, err := newTestRPCClient(t, node.url()).GetBlockHash(t.Context(), 7)
	require.NoError(t, err)
	assert.Equal(t, c.Headers[7].Hash(), hash)
	assert.Equal(t, int32(3), node.calls.Load())
}

func TestRPCClientUnreachable(t *testing.T) {
	c := test.UnitTestChain()
	node := newFakeNode(t, c.Headers[:10], 10)

	_, err := newTestRPCClient(t, node.url()).GetBlockHash(t.Context(), 7)
	require.ErrorIs(t, err, errors.ErrNetwork)
	assert.Equal(t, int32(3), node.calls.Load())
}

func TestRPCClientInvalidResponse(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Inc()
		http.Error(w, "<html>", http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	_, err := newTestRPCClient(t, server.URL).GetBlockHash(t.Context(), 1)
	require.ErrorIs(t, err, errors.ErrProcessing)
	assert.Equal(t, int32(1), calls.Load())
}

func TestNewRPCClientRequiresURL(t *testing.T) {
	_, err := NewRPCClient(ulogger.TestLogger{}, "")
	require.ErrorIs(t, err, errors.ErrConfiguration)

	_, err = NewRPCClient(ulogger.TestLogger{}, "node:8332")
	require.ErrorIs(t, err, errors.ErrConfiguration)
}
