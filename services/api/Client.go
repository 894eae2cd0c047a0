package api

import (
	"context"
	"net/http"

	"github.com/bitcoin-sv/btcx/errors"
	"github.com/bitcoin-sv/btcx/model"
	"github.com/bitcoin-sv/btcx/services/submitter"
	"github.com/bitcoin-sv/btcx/settings"
	"github.com/bitcoin-sv/btcx/ulogger"
	"github.com/bitcoin-sv/btcx/util"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"google.golang.org/grpc"
)

type Client struct {
	logger ulogger.Logger
	conn   *grpc.ClientConn
}

// NewClient dials address. apiKey is only needed for Authorize and Revoke.
func NewClient(ctx context.Context, logger ulogger.Logger, tSettings *settings.Settings, address, apiKey string) (*Client, error) {
	opts := util.ConnectionOptionsFromSettings(tSettings)
	opts.APIKey = apiKey

	conn, err := util.GetGRPCClient(ctx, address, opts, tSettings)
	if err != nil {
		return nil, err
	}

	return NewClientWithConn(logger, conn), nil
}

func NewClientWithConn(logger ulogger.Logger, conn *grpc.ClientConn) *Client {
	return &Client{
		logger: logger,
		conn:   conn,
	}
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) invoke(ctx context.Context, method string, in, out interface{}) error {
	if err := c.conn.Invoke(ctx, method, in, out, grpc.CallContentSubtype(codecName)); err != nil {
		return errors.UnwrapGRPC(err)
	}

	return nil
}

func (c *Client) Health(ctx context.Context, checkLiveness bool) (int, string, error) {
	resp := &HealthResponse{}
	if err := c.invoke(ctx, MethodHealth, &HealthRequest{CheckLiveness: checkLiveness}, resp); err != nil {
		return http.StatusFailedDependency, "", err
	}

	if !resp.Ok {
		return resp.Status, resp.Details, errors.NewServiceUnavailableError("lightclient is unhealthy")
	}

	return resp.Status, resp.Details, nil
}

func (c *Client) BestBlockHeight(ctx context.Context) (uint32, error) {
	resp := &HeightResponse{}
	if err := c.invoke(ctx, MethodBestBlockHeight, &Empty{}, resp); err != nil {
		return 0, err
	}

	return resp.Height, nil
}

func (c *Client) BestBlockHash(ctx context.Context) (*chainhash.Hash, error) {
	resp := &HashResponse{}
	if err := c.invoke(ctx, MethodBestBlockHash, &Empty{}, resp); err != nil {
		return nil, err
	}

	hash, err := chainhash.NewHashFromStr(resp.Hash)
	if err != nil {
		return nil, errors.NewProcessingError("invalid best block hash %q", resp.Hash, err)
	}

	return hash, nil
}

func (c *Client) Tip(ctx context.Context) (*model.ChainTip, error) {
	resp := &TipResponse{}
	if err := c.invoke(ctx, MethodGetTip, &Empty{}, resp); err != nil {
		return nil, err
	}

	return resp.ChainTip()
}

// Submit sends concatenated raw headers to the direct submitter.
func (c *Client) Submit(ctx context.Context, parentHash *chainhash.Hash, headers []byte) (*model.ChainTip, error) {
	resp := &TipResponse{}

	req := &SubmitRequest{
		ParentHash: parentHash.String(),
		Headers:    headers,
	}

	if err := c.invoke(ctx, MethodSubmit, req, resp); err != nil {
		return nil, err
	}

	return resp.ChainTip()
}

func (c *Client) RequestAttestation(ctx context.Context, parentHash *chainhash.Hash, headerCount uint32) (*AttestationRequestResponse, error) {
	resp := &AttestationRequestResponse{}

	req := &AttestationRequest{
		ParentHash:  parentHash.String(),
		HeaderCount: headerCount,
	}

	if err := c.invoke(ctx, MethodRequestAttestation, req, resp); err != nil {
		return nil, err
	}

	return resp, nil
}

func (c *Client) SubmitAttestation(ctx context.Context, att *submitter.Attestation) (*model.ChainTip, error) {
	resp := &TipResponse{}
	if err := c.invoke(ctx, MethodSubmitAttestation, newAttestationMessage(att), resp); err != nil {
		return nil, err
	}

	return resp.ChainTip()
}

func (c *Client) Submitters(ctx context.Context) ([]string, error) {
	resp := &SubmittersResponse{}
	if err := c.invoke(ctx, MethodGetSubmitters, &Empty{}, resp); err != nil {
		return nil, err
	}

	return resp.SubmitterIDs, nil
}

func (c *Client) Authorize(ctx context.Context, submitterID string) error {
	return c.invoke(ctx, MethodAuthorize, &SubmitterRequest{SubmitterID: submitterID}, &Empty{})
}

func (c *Client) Revoke(ctx context.Context, submitterID string) error {
	return c.invoke(ctx, MethodRevoke, &SubmitterRequest{SubmitterID: submitterID}, &Empty{})
}
