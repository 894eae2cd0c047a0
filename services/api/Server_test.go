package api

import (
	"context"
	"net"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/bitcoin-sv/btcx/errors"
	"github.com/bitcoin-sv/btcx/services/lightclient"
	"github.com/bitcoin-sv/btcx/services/submitter"
	"github.com/bitcoin-sv/btcx/settings"
	"github.com/bitcoin-sv/btcx/stores/headerchain/memory"
	"github.com/bitcoin-sv/btcx/ulogger"
	"github.com/bitcoin-sv/btcx/util"
	"github.com/bitcoin-sv/btcx/util/test"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"
)

const (
	adminToken = "s3cret"
	relayToken = "r3lay"
)

type recordingRelay struct {
	mu       sync.Mutex
	requests []*submitter.RelayRequest
}

func (r *recordingRelay) Send(_ context.Context, request *submitter.RelayRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.requests = append(r.requests, request)

	return nil
}

func (r *recordingRelay) last() *submitter.RelayRequest {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.requests[len(r.requests)-1]
}

func apiSettings() *settings.Settings {
	c := test.UnitTestChain()

	tSettings := test.CreateBaseTestSettings()
	tSettings.LightClient.Submitters = []string{"direct", "attested"}
	tSettings.LightClient.AdminToken = adminToken
	tSettings.LightClient.Genesis = settings.GenesisSettings{
		Hash:      c.Headers[0].Hash().String(),
		Bits:      c.Headers[0].Bits.String(),
		Timestamp: int(c.Headers[0].Timestamp),
	}
	tSettings.Submitter.DirectID = "direct"
	tSettings.Submitter.AttestedID = "attested"
	tSettings.Submitter.CallbackURL = "http://btcx.test/attestations"
	tSettings.Submitter.VerifyFunctions = []string{"verify-10:10", "verify-500:500"}
	tSettings.Submitter.RetargetFunctions = []string{"retarget-10:10"}
	tSettings.Submitter.RequestTTL = time.Minute
	tSettings.Submitter.RelayToken = relayToken
	tSettings.GRPC.MaxRetries = 0

	return tSettings
}

type fixture struct {
	server *Server
	relay  *recordingRelay
	lis    *bufconn.Listener
}

// newServer builds a server over a memory store. withAttested enables the
// attested submitter.
func newServer(t *testing.T, tSettings *settings.Settings, withAttested bool) *fixture {
	t.Helper()

	logger := ulogger.TestLogger{}

	lc, err := lightclient.New(logger, tSettings, memory.New(logger), nil)
	require.NoError(t, err)

	direct, err := submitter.NewDirect(logger, tSettings, lc)
	require.NoError(t, err)

	f := &fixture{relay: &recordingRelay{}, lis: bufconn.Listen(1024 * 1024)}

	var attested *submitter.Attested
	if withAttested {
		attested, err = submitter.NewAttested(logger, tSettings, lc, f.relay)
		require.NoError(t, err)
	}

	f.server = New(logger, tSettings, lc, direct, attested).WithListener(f.lis)

	require.NoError(t, f.server.Init(context.Background()))

	return f
}

// start serves until the test ends.
func (f *fixture) start(t *testing.T) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	readyCh := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		done <- f.server.Start(ctx, readyCh)
	}()

	select {
	case <-readyCh:
	case err := <-done:
		t.Fatalf("server did not start: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start")
	}

	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})
}

func (f *fixture) client(t *testing.T, tSettings *settings.Settings, apiKey string) *Client {
	t.Helper()

	opts := util.ConnectionOptionsFromSettings(tSettings)
	opts.APIKey = apiKey

	conn, err := util.GetGRPCClient(context.Background(), "passthrough:///bufnet", opts, tSettings,
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return f.lis.DialContext(ctx)
		}),
	)
	require.NoError(t, err)

	c := NewClientWithConn(ulogger.TestLogger{}, conn)

	t.Cleanup(func() {
		_ = c.Close()
	})

	return c
}

func TestServerInit(t *testing.T) {
	tSettings := apiSettings()
	f := newServer(t, tSettings, false)

	// a second Init over the same store and genesis is a no op
	require.NoError(t, f.server.Init(context.Background()))

	tSettings.LightClient.Genesis.Hash = ""
	require.NoError(t, f.server.Init(context.Background()))

	empty := apiSettings()
	empty.LightClient.Genesis.Hash = ""

	lc, err := lightclient.New(ulogger.TestLogger{}, empty, memory.New(ulogger.TestLogger{}), nil)
	require.NoError(t, err)

	direct, err := submitter.NewDirect(ulogger.TestLogger{}, empty, lc)
	require.NoError(t, err)

	err = New(ulogger.TestLogger{}, empty, lc, direct, nil).Init(context.Background())
	require.ErrorIs(t, err, errors.ErrConfiguration)

	err = New(ulogger.TestLogger{}, empty, lc, nil, nil).Init(context.Background())
	require.ErrorIs(t, err, errors.ErrConfiguration)
}

func TestServerHealth(t *testing.T) {
	tSettings := apiSettings()
	f := newServer(t, tSettings, false)
	ctx := context.Background()

	status, _, err := f.server.Health(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)

	status, _, _ = f.server.Health(ctx, false)
	assert.Equal(t, http.StatusServiceUnavailable, status)

	f.start(t)

	status, details, err := f.server.Health(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, details, "LightClient")

	status, _, err = f.client(t, tSettings, "").Health(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
}

func TestServerSubmitAndQuery(t *testing.T) {
	tSettings := apiSettings()
	f := newServer(t, tSettings, false)
	f.start(t)

	ctx := context.Background()
	c := test.UnitTestChain()
	client := f.client(t, tSettings, "")

	tip, err := client.Submit(ctx, c.Headers[0].Hash(), c.Blob(1, 101))
	require.NoError(t, err)
	assert.Equal(t, uint32(100), tip.Height)
	assert.Equal(t, c.Headers[100].Hash(), tip.Hash)
	assert.Equal(t, uint32(0), tip.EpochStart.Height)

	height, err := client.BestBlockHeight(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint32(100), height)

	hash, err := client.BestBlockHash(ctx)
	require.NoError(t, err)
	assert.Equal(t, c.Headers[100].Hash(), hash)

	got, err := client.Tip(ctx)
	require.NoError(t, err)
	assert.Equal(t, tip.Hash, got.Hash)
	assert.Equal(t, tip.ChainWork, got.ChainWork)
	assert.Equal(t, tip.Bits, got.Bits)

	// rejections keep their codes across the wire
	_, err = client.Submit(ctx, c.Headers[0].Hash(), c.Blob(1, 51))
	require.ErrorIs(t, err, errors.ErrForksNotSupported)

	_, err = client.Submit(ctx, c.Headers[1000].Hash(), c.Blob(1001, 1002))
	require.ErrorIs(t, err, errors.ErrUnknownParent)

	_, err = client.Submit(ctx, c.Headers[100].Hash(), c.Blob(101, 102)[:79])
	require.ErrorIs(t, err, errors.ErrInvalidHeadersInput)

	_, err = client.Submit(ctx, c.Headers[100].Hash(), c.Blob(102, 103))
	require.ErrorIs(t, err, errors.ErrInvalidParent)
}

func TestServerAdminMethods(t *testing.T) {
	tSettings := apiSettings()
	f := newServer(t, tSettings, false)
	f.start(t)

	ctx := context.Background()
	c := test.UnitTestChain()

	anonymous := f.client(t, tSettings, "")
	admin := f.client(t, tSettings, adminToken)

	ids, err := anonymous.Submitters(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"attested", "direct"}, ids)

	require.ErrorIs(t, anonymous.Revoke(ctx, "direct"), errors.ErrUnauthorized)
	require.ErrorIs(t, f.client(t, tSettings, "wrong").Revoke(ctx, "direct"), errors.ErrUnauthorized)

	require.NoError(t, admin.Revoke(ctx, "direct"))

	_, err = anonymous.Submit(ctx, c.Headers[0].Hash(), c.Blob(1, 11))
	require.ErrorIs(t, err, errors.ErrUnauthorized)

	require.NoError(t, admin.Authorize(ctx, "direct"))

	_, err = anonymous.Submit(ctx, c.Headers[0].Hash(), c.Blob(1, 11))
	require.NoError(t, err)

	require.ErrorIs(t, admin.Authorize(ctx, ""), errors.ErrInvalidArgument)
}

func TestServerAttestation(t *testing.T) {
	tSettings := apiSettings()
	f := newServer(t, tSettings, true)
	f.start(t)

	ctx := context.Background()
	c := test.UnitTestChain()
	client := f.client(t, tSettings, "")
	relay := f.client(t, tSettings, relayToken)

	resp, err := client.RequestAttestation(ctx, c.Headers[0].Hash(), 8)
	require.NoError(t, err)
	assert.Equal(t, "verify-10", resp.FunctionID)
	assert.Equal(t, uint32(0), resp.ParentHeight)
	assert.False(t, resp.Retarget)
	assert.Equal(t, resp.RequestID, f.relay.last().ID)

	att := &submitter.Attestation{
		RequestID:   resp.RequestID,
		FunctionID:  resp.FunctionID,
		HeaderCount: 8,
		ParentHash:  c.Headers[0].Hash(),
		Hashes:      c.Hashes(1, 9),
	}

	tip, err := relay.SubmitAttestation(ctx, att)
	require.NoError(t, err)
	assert.Equal(t, uint32(8), tip.Height)
	assert.Equal(t, c.Headers[8].Hash(), tip.Hash)

	_, err = relay.SubmitAttestation(ctx, att)
	require.ErrorIs(t, err, errors.ErrUnauthorized)

	_, err = client.RequestAttestation(ctx, c.Headers[8].Hash(), 0)
	require.ErrorIs(t, err, errors.ErrInvalidArgument)
}

func TestServerAttestationRequiresRelayToken(t *testing.T) {
	tSettings := apiSettings()
	f := newServer(t, tSettings, true)
	f.start(t)

	ctx := context.Background()
	c := test.UnitTestChain()
	anonymous := f.client(t, tSettings, "")

	resp, err := anonymous.RequestAttestation(ctx, c.Headers[0].Hash(), 10)
	require.NoError(t, err)

	forged := make([]*chainhash.Hash, 0, 10)
	for i := byte(0); i < 10; i++ {
		h := chainhash.DoubleHashH([]byte{i, 0xde, 0xad})
		forged = append(forged, &h)
	}

	att := &submitter.Attestation{
		RequestID:   resp.RequestID,
		FunctionID:  resp.FunctionID,
		HeaderCount: 10,
		ParentHash:  c.Headers[0].Hash(),
		Hashes:      forged,
	}

	for _, client := range []*Client{anonymous, f.client(t, tSettings, adminToken), f.client(t, tSettings, "wrong")} {
		_, err = client.SubmitAttestation(ctx, att)
		require.ErrorIs(t, err, errors.ErrUnauthorized)
	}

	height, err := anonymous.BestBlockHeight(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), height)

	// callbacks are refused outright without a configured token
	tSettings = apiSettings()
	tSettings.Submitter.RelayToken = ""
	f = newServer(t, tSettings, true)
	f.start(t)

	_, err = f.client(t, tSettings, "").SubmitAttestation(ctx, att)
	require.ErrorIs(t, err, errors.ErrUnauthorized)
}

func TestServerAttestedDisabled(t *testing.T) {
	tSettings := apiSettings()
	f := newServer(t, tSettings, false)
	f.start(t)

	ctx := context.Background()
	c := test.UnitTestChain()
	client := f.client(t, tSettings, "")

	_, err := client.RequestAttestation(ctx, c.Headers[0].Hash(), 8)
	require.ErrorIs(t, err, errors.ErrServiceUnavailable)

	relay := f.client(t, tSettings, relayToken)
	_, err = relay.SubmitAttestation(ctx, &submitter.Attestation{RequestID: "x", ParentHash: c.Headers[0].Hash()})
	require.ErrorIs(t, err, errors.ErrServiceUnavailable)
}
