package model

import (
	"math/big"
	"testing"

	"github.com/bitcoin-sv/btcx/errors"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

/*
1. The bits "1e0cbb05" is a hexadecimal value.
The mantissa is 0x0cbb05 and the exponent 0x1e, so the target is 0x0cbb05 << 8*(0x1e-3).
Difficulty is the 0x1d00ffff target divided by this one:
	0xffff << 208 / (0x0cbb05 << 216) ≈ 0.0003068360688
*/
func TestNBit(t *testing.T) {
	bits, err := NewNBitFromString("1e0cbb05")
	require.NoError(t, err)
	require.Equal(t, "1e0cbb05", bits.String())
	require.Equal(t, uint32(0x1e0cbb05), bits.Uint32())

	difficulty := bits.CalculateDifficulty()
	require.Equal(t, "0.0003068360688", difficulty.String())

	target := bits.CalculateTarget()
	require.Equal(t, "87862992749702277876753291758735394717545048148536728461472937357082624", target.String())
}

func TestCalculateTarget(t *testing.T) {
	bits, err := NewNBitFromString("180f7f7d") // block #869334
	require.NoError(t, err)

	difficulty, _ := bits.CalculateDifficulty().Float32()
	expectedDifficulty, _ := big.NewFloat(70944300723.85233).Float32()
	require.Equal(t, expectedDifficulty, difficulty)

	target := bits.CalculateTarget()
	require.Equal(t, "380009881215830907712605183958726704270100120947772096512", target.String())
}

func TestNBitFromSliceAndJSON(t *testing.T) {
	bits, err := NewNBitFromSlice([]byte{0xff, 0xff, 0x00, 0x1d})
	require.NoError(t, err)
	assert.Equal(t, "1d00ffff", bits.String())
	assert.Equal(t, NewNBitFromUint32(0x1d00ffff), bits)
	assert.Equal(t, []byte{0xff, 0xff, 0x00, 0x1d}, bits.CloneBytes())

	_, err = NewNBitFromSlice([]byte{1, 2, 3})
	require.Error(t, err)

	_, err = NewNBitFromString("zz")
	require.Error(t, err)

	data, err := bits.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"1d00ffff"`, string(data))

	var decoded NBit
	require.NoError(t, decoded.UnmarshalJSON(data))
	assert.Equal(t, bits, decoded)
	require.Error(t, decoded.UnmarshalJSON([]byte("12")))
}

func TestCompactToTarget(t *testing.T) {
	tests := []struct {
		name    string
		bits    uint32
		want    string
		invalid bool
	}{
		{name: "genesis", bits: 0x1d00ffff, want: "26959535291011309493156476344723991336010898738574164086137773096960"},
		{name: "regtest", bits: 0x207fffff, want: new(big.Int).Lsh(big.NewInt(0x7fffff), 232).String()},
		{name: "exponent 1", bits: 0x01123456, want: "18"},
		{name: "exponent 2", bits: 0x02123456, want: "4660"},
		{name: "exponent 3", bits: 0x03123456, want: "1193046"},
		{name: "exponent 4", bits: 0x04123456, want: "305419776"},
		{name: "largest exponent 34", bits: 0x220000ff, want: new(big.Int).Lsh(big.NewInt(0xff), 248).String()},
		{name: "largest exponent 33", bits: 0x2100ffff, want: new(big.Int).Lsh(big.NewInt(0xffff), 240).String()},
		{name: "zero mantissa", bits: 0x1d000000, invalid: true},
		{name: "shifted to zero", bits: 0x01003456, invalid: true},
		{name: "zero", bits: 0, invalid: true},
		{name: "sign bit", bits: 0x04923456, invalid: true},
		{name: "exponent 35", bits: 0x23000001, invalid: true},
		{name: "overflow exponent 34", bits: 0x22000100, invalid: true},
		{name: "overflow exponent 33", bits: 0x21010000, invalid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, err := CompactToTarget(tt.bits)
			if tt.invalid {
				require.Error(t, err)
				assert.True(t, errors.Is(err, errors.ErrInvalidTarget))

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, target.Dec())
		})
	}
}

func TestTargetToCompact(t *testing.T) {
	tests := []struct {
		target *uint256.Int
		want   uint32
	}{
		{uint256.NewInt(0), 0},
		{uint256.NewInt(0x12), 0x01120000},
		{uint256.NewInt(0x80), 0x02008000},
		{uint256.NewInt(0x12345600), 0x04123456},
		{new(uint256.Int).Lsh(uint256.NewInt(0xffff), 208), 0x1d00ffff},
		{new(uint256.Int).Lsh(uint256.NewInt(0x7fffff), 232), 0x207fffff},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, TargetToCompact(tt.target), tt.target.Hex())
	}

	assert.Equal(t, uint32(0), TargetToCompact(nil))
}

func TestCompactRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		words := [4]uint64{
			rapid.Uint64().Draw(t, "w0").(uint64),
			rapid.Uint64().Draw(t, "w1").(uint64),
			rapid.Uint64().Draw(t, "w2").(uint64),
			rapid.Uint64().Draw(t, "w3").(uint64),
		}

		shift := rapid.UintRange(0, 255).Draw(t, "shift").(uint)

		target := new(uint256.Int).Rsh((*uint256.Int)(&words), shift)
		if target.IsZero() {
			return
		}

		compact := TargetToCompact(target)

		decoded, err := CompactToTarget(compact)
		if err != nil {
			t.Fatalf("encoding of %s does not decode: %v", target.Hex(), err)
		}

		if decoded.Cmp(target) > 0 {
			t.Fatalf("decoded %s exceeds %s", decoded.Hex(), target.Hex())
		}

		if TargetToCompact(decoded) != compact {
			t.Fatalf("compact %08x is not stable", compact)
		}
	})
}
