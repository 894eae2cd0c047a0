// Package submitter turns header batches and relay attestations into
// lightclient updates.
//
// Direct verifies raw headers in process. Attested fronts an external proof
// relay: it records a pending request, waits for the relay's callback and
// applies the attested hashes once the callback matches what was requested.
package submitter

import (
	"context"

	"github.com/bitcoin-sv/btcx/model"
	"github.com/bitcoin-sv/btcx/services/lightclient"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/go-chaincfg"
)

// Adapter is a route into LightClient.Apply. ID is the submitter id the
// adapter applies updates as.
type Adapter interface {
	ID() string
}

// ChainClient is the part of *lightclient.LightClient the adapters use.
type ChainClient interface {
	Params() *chaincfg.Params
	ParentContext(ctx context.Context, hash *chainhash.Hash) (*lightclient.ParentContext, error)
	Apply(ctx context.Context, submitterID string, update *lightclient.Update) (*model.ChainTip, error)
}

// Relay forwards attestation requests to the proof relay.
type Relay interface {
	Send(ctx context.Context, request *RelayRequest) error
}
