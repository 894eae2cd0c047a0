package test

import (
	"math/big"
	"time"

	"github.com/bitcoin-sv/btcx/settings"
	"github.com/bsv-blockchain/go-chaincfg"
)

// UnitTestParams is regtest with difficulty adjustment switched on, so that
// retargeting can be exercised with cheap 0x207fffff headers.
func UnitTestParams() *chaincfg.Params {
	params := chaincfg.RegressionNetParams
	params.Name = "unittest"
	params.PowLimit = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 255), big.NewInt(1))
	params.PowLimitBits = 0x207fffff
	params.NoDifficultyAdjustment = false
	params.ReduceMinDifficulty = false
	params.TargetTimePerBlock = 10 * time.Minute
	params.RetargetAdjustmentFactor = 4

	return &params
}

func CreateBaseTestSettings() *settings.Settings {
	tSettings := settings.NewSettings()
	tSettings.ChainCfgParams = UnitTestParams()
	tSettings.LightClient.StoreURL = MustParseURL("memory:///")
	tSettings.Verifier.MaxHeaders = 10000

	return tSettings
}
