package api

import (
	"github.com/bitcoin-sv/btcx/errors"
	"github.com/bitcoin-sv/btcx/model"
	"github.com/bitcoin-sv/btcx/services/submitter"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/holiman/uint256"
)

type Empty struct{}

type HeightResponse struct {
	Height uint32 `json:"height"`
}

type HashResponse struct {
	Hash string `json:"hash"`
}

type HealthRequest struct {
	CheckLiveness bool `json:"checkLiveness"`
}

type HealthResponse struct {
	Ok      bool   `json:"ok"`
	Status  int    `json:"status"`
	Details string `json:"details"`
}

// TipResponse is a model.ChainTip with hashes in display hex.
type TipResponse struct {
	Height      uint32     `json:"height"`
	Hash        string     `json:"hash"`
	Bits        model.NBit `json:"bits"`
	EpochHeight uint32     `json:"epochHeight"`
	EpochHash   string     `json:"epochHash"`
	EpochTime   uint32     `json:"epochTime"`
	ChainWork   string     `json:"chainWork"`
}

type SubmitRequest struct {
	ParentHash string `json:"parentHash"`
	// Headers are concatenated 80-byte records, base64 in JSON.
	Headers []byte `json:"headers"`
}

type AttestationRequest struct {
	ParentHash  string `json:"parentHash"`
	HeaderCount uint32 `json:"headerCount"`
}

type AttestationRequestResponse struct {
	RequestID    string `json:"requestId"`
	FunctionID   string `json:"functionId"`
	ParentHeight uint32 `json:"parentHeight"`
	Retarget     bool   `json:"retarget"`
}

// AttestationMessage is the relay callback, over gRPC and HTTP alike.
type AttestationMessage struct {
	RequestID   string   `json:"requestId"`
	FunctionID  string   `json:"functionId"`
	HeaderCount uint32   `json:"headerCount"`
	ParentHash  string   `json:"parentHash"`
	Hashes      []string `json:"hashes"`
	// NextTarget is a 0x prefixed hex target, only for requests across a retarget boundary.
	NextTarget string `json:"nextTarget,omitempty"`
}

type SubmitterRequest struct {
	SubmitterID string `json:"submitterId"`
}

type SubmittersResponse struct {
	SubmitterIDs []string `json:"submitterIds"`
}

func newTipResponse(tip *model.ChainTip) *TipResponse {
	r := &TipResponse{
		Height:      tip.Height,
		Hash:        tip.Hash.String(),
		Bits:        tip.Bits,
		EpochHeight: tip.EpochStart.Height,
		EpochTime:   tip.EpochStart.Timestamp,
	}

	if tip.EpochStart.Hash != nil {
		r.EpochHash = tip.EpochStart.Hash.String()
	}

	if tip.ChainWork != nil {
		r.ChainWork = tip.ChainWork.String()
	}

	return r
}

// ChainTip decodes the response.
func (r *TipResponse) ChainTip() (*model.ChainTip, error) {
	hash, err := chainhash.NewHashFromStr(r.Hash)
	if err != nil {
		return nil, errors.NewProcessingError("invalid tip hash %q", r.Hash, err)
	}

	tip := &model.ChainTip{
		Height: r.Height,
		Hash:   hash,
		Bits:   r.Bits,
		EpochStart: model.EpochStart{
			Height:    r.EpochHeight,
			Bits:      r.Bits,
			Timestamp: r.EpochTime,
		},
	}

	if r.EpochHash != "" {
		if tip.EpochStart.Hash, err = chainhash.NewHashFromStr(r.EpochHash); err != nil {
			return nil, errors.NewProcessingError("invalid epoch hash %q", r.EpochHash, err)
		}
	}

	if r.ChainWork != "" {
		if tip.ChainWork, err = chainhash.NewHashFromStr(r.ChainWork); err != nil {
			return nil, errors.NewProcessingError("invalid chain work %q", r.ChainWork, err)
		}
	}

	return tip, nil
}

func newAttestationMessage(att *submitter.Attestation) *AttestationMessage {
	m := &AttestationMessage{
		RequestID:   att.RequestID,
		FunctionID:  att.FunctionID,
		HeaderCount: att.HeaderCount,
		Hashes:      make([]string, len(att.Hashes)),
	}

	if att.ParentHash != nil {
		m.ParentHash = att.ParentHash.String()
	}

	for i, h := range att.Hashes {
		m.Hashes[i] = h.String()
	}

	if att.NextTarget != nil {
		m.NextTarget = att.NextTarget.Hex()
	}

	return m
}

func (m *AttestationMessage) attestation() (*submitter.Attestation, error) {
	parent, err := parseHash("parentHash", m.ParentHash)
	if err != nil {
		return nil, err
	}

	att := &submitter.Attestation{
		RequestID:   m.RequestID,
		FunctionID:  m.FunctionID,
		HeaderCount: m.HeaderCount,
		ParentHash:  parent,
		Hashes:      make([]*chainhash.Hash, len(m.Hashes)),
	}

	for i, h := range m.Hashes {
		if att.Hashes[i], err = parseHash("hashes", h); err != nil {
			return nil, err
		}
	}

	if m.NextTarget != "" {
		if att.NextTarget, err = uint256.FromHex(m.NextTarget); err != nil {
			return nil, errors.NewInvalidArgumentError("invalid nextTarget %q", m.NextTarget, err)
		}
	}

	return att, nil
}

func parseHash(field, s string) (*chainhash.Hash, error) {
	if s == "" {
		return nil, errors.NewInvalidArgumentError("%s is required", field)
	}

	h, err := chainhash.NewHashFromStr(s)
	if err != nil {
		return nil, errors.NewInvalidArgumentError("invalid %s %q", field, s, err)
	}

	return h, nil
}
