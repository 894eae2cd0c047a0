package submitter

import (
	"context"
	"strings"
	"time"

	"github.com/bitcoin-sv/btcx/errors"
	"github.com/bitcoin-sv/btcx/settings"
	"github.com/bitcoin-sv/btcx/tracing"
	"github.com/bitcoin-sv/btcx/ulogger"
	"github.com/bitcoin-sv/btcx/util"
	"github.com/bitcoin-sv/btcx/util/retry"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// RelayRequest is the body of POST {relay}/requests.
type RelayRequest struct {
	ID          string `json:"id"`
	FunctionID  string `json:"functionId"`
	ParentHash  string `json:"parentHash"`
	HeaderCount uint32 `json:"headerCount"`
	CallbackURL string `json:"callbackUrl"`
}

type RelayClient struct {
	logger     ulogger.Logger
	url        string
	timeout    time.Duration
	maxRetries int
	backoff    time.Duration
}

func NewRelayClient(logger ulogger.Logger, tSettings *settings.Settings) (*RelayClient, error) {
	if tSettings.Submitter.RelayURL == "" {
		return nil, errors.NewConfigurationError("submitter_relayURL is not set")
	}

	return &RelayClient{
		logger:     logger,
		url:        strings.TrimSuffix(tSettings.Submitter.RelayURL, "/") + "/requests",
		timeout:    tSettings.Submitter.RelayTimeout,
		maxRetries: tSettings.Submitter.RelayMaxRetries,
		backoff:    time.Second,
	}, nil
}

// Send posts request to the relay. Network failures and 5xx answers are
// retried, anything else is returned at once.
func (c *RelayClient) Send(ctx context.Context, request *RelayRequest) (err error) {
	ctx, _, deferFn := tracing.StartTracing(ctx, "RelayClient:Send",
		tracing.WithHistogram(prometheusSubmitterRelay),
	)
	defer func() {
		deferFn(err)
	}()

	body, err := json.Marshal(request)
	if err != nil {
		return errors.NewProcessingError("failed to encode relay request %s", request.ID, err)
	}

	_, err = retry.Retry(ctx, c.logger, func() ([]byte, error) {
		attemptCtx := ctx

		if c.timeout > 0 {
			var cancel context.CancelFunc

			attemptCtx, cancel = context.WithTimeout(ctx, c.timeout)
			defer cancel()
		}

		return util.DoHTTPRequest(attemptCtx, c.url, body)
	},
		retry.WithMessage("[RelayClient] relay request "+request.ID),
		retry.WithRetryCount(max(c.maxRetries, 1)),
		retry.WithBackoffDurationType(c.backoff),
		retry.WithRetryIf(errors.IsRetryableError),
	)
	if err != nil {
		return errors.NewServiceError("relay rejected request %s", request.ID, err)
	}

	c.logger.Debugf("[RelayClient][Send] sent %s for %d headers from %s", request.ID, request.HeaderCount, request.ParentHash)

	return nil
}
