package submitter

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/bitcoin-sv/btcx/errors"
	"github.com/bitcoin-sv/btcx/ulogger"
	"github.com/bitcoin-sv/btcx/util/test"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const relayRequestsURL = "http://relay.test/requests"

func newRelayClient(t *testing.T) *RelayClient {
	t.Helper()

	tSettings := test.CreateBaseTestSettings()
	tSettings.Submitter.RelayURL = "http://relay.test/"
	tSettings.Submitter.RelayMaxRetries = 3
	tSettings.Submitter.RelayTimeout = time.Second

	c, err := NewRelayClient(ulogger.TestLogger{}, tSettings)
	require.NoError(t, err)

	c.backoff = time.Millisecond

	return c
}

func relayRequest() *RelayRequest {
	return &RelayRequest{
		ID:          "5f0c7c4e-8f57-4f55-9d1a-3c1f3b7a0e11",
		FunctionID:  "verify-500",
		ParentHash:  "000000000019d6689c085ae165831e934ff763ae46a2a6c172b3f1b60a8ce26f",
		HeaderCount: 400,
		CallbackURL: "http://btcx.test/attestations",
	}
}

func TestRelayClientSend(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodPost, relayRequestsURL, func(req *http.Request) (*http.Response, error) {
		body, err := io.ReadAll(req.Body)
		require.NoError(t, err)

		assert.JSONEq(t, `{
			"id": "5f0c7c4e-8f57-4f55-9d1a-3c1f3b7a0e11",
			"functionId": "verify-500",
			"parentHash": "000000000019d6689c085ae165831e934ff763ae46a2a6c172b3f1b60a8ce26f",
			"headerCount": 400,
			"callbackUrl": "http://btcx.test/attestations"
		}`, string(body))

		return httpmock.NewStringResponse(http.StatusAccepted, `{}`), nil
	})

	require.NoError(t, newRelayClient(t).Send(context.Background(), relayRequest()))
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestRelayClientRetriesUnavailableRelay(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	busy := httpmock.NewStringResponder(http.StatusServiceUnavailable, "busy")
	httpmock.RegisterResponder(http.MethodPost, relayRequestsURL,
		busy.Then(busy).Then(httpmock.NewStringResponder(http.StatusOK, `{}`)),
	)

	require.NoError(t, newRelayClient(t).Send(context.Background(), relayRequest()))
	assert.Equal(t, 3, httpmock.GetTotalCallCount())
}

func TestRelayClientGivesUp(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodPost, relayRequestsURL, httpmock.NewStringResponder(http.StatusInternalServerError, "down"))

	err := newRelayClient(t).Send(context.Background(), relayRequest())
	require.ErrorIs(t, err, errors.ErrServiceUnavailable)
	assert.Equal(t, 3, httpmock.GetTotalCallCount())
}

func TestRelayClientDoesNotRetryBadRequest(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodPost, relayRequestsURL, httpmock.NewStringResponder(http.StatusBadRequest, "unknown function"))

	err := newRelayClient(t).Send(context.Background(), relayRequest())
	require.ErrorIs(t, err, errors.ErrInvalidArgument)
	assert.Contains(t, err.Error(), "unknown function")
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestNewRelayClientNeedsURL(t *testing.T) {
	tSettings := test.CreateBaseTestSettings()
	tSettings.Submitter.RelayURL = ""

	_, err := NewRelayClient(ulogger.TestLogger{}, tSettings)
	require.ErrorIs(t, err, errors.ErrConfiguration)
}
