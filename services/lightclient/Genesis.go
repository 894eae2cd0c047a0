package lightclient

import (
	"encoding/hex"

	"github.com/bitcoin-sv/btcx/errors"
	"github.com/bitcoin-sv/btcx/model"
	"github.com/bitcoin-sv/btcx/settings"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	safeconversion "github.com/bsv-blockchain/go-safe-conversion"
)

// GenesisFromSettings reads the lightclient_genesis_* keys.
func GenesisFromSettings(tSettings *settings.Settings) (*model.Genesis, error) {
	gs := tSettings.LightClient.Genesis

	height, err := safeconversion.IntToUint32(gs.Height)
	if err != nil {
		return nil, errors.NewConfigurationError("invalid lightclient_genesis_height %d", gs.Height, err)
	}

	timestamp, err := safeconversion.IntToUint32(gs.Timestamp)
	if err != nil {
		return nil, errors.NewConfigurationError("invalid lightclient_genesis_timestamp %d", gs.Timestamp, err)
	}

	hash, err := chainhash.NewHashFromStr(gs.Hash)
	if err != nil {
		return nil, errors.NewConfigurationError("invalid lightclient_genesis_hash %q", gs.Hash, err)
	}

	bits, err := model.NewNBitFromString(gs.Bits)
	if err != nil {
		return nil, errors.NewConfigurationError("invalid lightclient_genesis_bits %q", gs.Bits, err)
	}

	genesis := &model.Genesis{
		Height:    height,
		Hash:      hash,
		Bits:      bits,
		Timestamp: timestamp,
	}

	if gs.Commitment != "" {
		if genesis.Commitment, err = hex.DecodeString(gs.Commitment); err != nil {
			return nil, errors.NewConfigurationError("lightclient_genesis_commitment is not hex", err)
		}
	}

	if gs.EpochStartHash != "" {
		if genesis.EpochStartHash, err = chainhash.NewHashFromStr(gs.EpochStartHash); err != nil {
			return nil, errors.NewConfigurationError("invalid lightclient_genesis_epochStartHash %q", gs.EpochStartHash, err)
		}
	}

	return genesis, nil
}
