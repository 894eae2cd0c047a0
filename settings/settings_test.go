package settings

import (
	"testing"
	"time"

	"github.com/bsv-blockchain/go-chaincfg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// check settings object is initialised
func TestInitialiseSettings(t *testing.T) {
	tSettings := NewSettings()

	require.NotNil(t, tSettings.ChainCfgParams)
	require.NotNil(t, tSettings.LightClient.StoreURL)

	assert.Positive(t, tSettings.Verifier.MaxHeaders)
	assert.Positive(t, tSettings.LightClient.RetainHeaders)
	assert.NotEmpty(t, tSettings.LightClient.Genesis.Hash)
	assert.NotEmpty(t, tSettings.Submitter.DirectID)
	assert.Greater(t, tSettings.Submitter.RequestTTL, time.Duration(0))
	assert.Empty(t, tSettings.Submitter.RelayToken, "callbacks stay closed until a relay token is configured")
	assert.NotEmpty(t, tSettings.RPC.URL)
}

func TestRetargetParams(t *testing.T) {
	tests := []struct {
		name    string
		params  *chaincfg.Params
		spacing time.Duration
	}{
		{"MainNet", &chaincfg.MainNetParams, 10 * time.Minute},
		{"TestNet", &chaincfg.TestNetParams, 10 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tSettings := NewSettings()
			tSettings.ChainCfgParams = tt.params

			require.Equal(t, tt.spacing, tSettings.ChainCfgParams.TargetTimePerBlock)
			require.Equal(t, int64(4), tSettings.ChainCfgParams.RetargetAdjustmentFactor)
		})
	}
}

func TestHelperDefaults(t *testing.T) {
	assert.Equal(t, "fallback", getString("btcx_test_missing_key", "fallback"))
	assert.Equal(t, 42, getInt("btcx_test_missing_key", 42))
	assert.InDelta(t, 0.5, getFloat64("btcx_test_missing_key", 0.5), 0)
	assert.True(t, getBool("btcx_test_missing_key", true))
	assert.Equal(t, time.Minute, getDuration("btcx_test_missing_key", time.Minute))
	assert.Equal(t, []string{"a"}, getMultiString("btcx_test_missing_key", []string{"a"}))
	assert.Equal(t, "memory", getURL("btcx_test_missing_key", "memory:///").Scheme)
}
