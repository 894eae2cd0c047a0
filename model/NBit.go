package model

import (
	"encoding/binary"
	"encoding/hex"
	"math/big"

	"github.com/bitcoin-sv/btcx/errors"
	"github.com/bsv-blockchain/go-bt/v2"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/holiman/uint256"
)

const (
	compactSignBit  = 0x00800000
	compactMantissa = 0x007fffff
)

// maxDifficultyTarget is the decoded 0x1d00ffff target, difficulty 1.
var maxDifficultyTarget = new(big.Int).Lsh(big.NewInt(0xffff), 208)

// NBit is a compact target as it appears on the wire, little endian.
type NBit [4]byte

// NewNBitFromString parses the big endian display form, e.g. "1d00ffff".
func NewNBitFromString(s string) (NBit, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return NBit{}, errors.NewInvalidArgumentError("invalid nBits %q", s, err)
	}

	if len(b) != 4 {
		return NBit{}, errors.NewInvalidArgumentError("nBits should be 4 bytes, got %d", len(b))
	}

	return NewNBitFromSlice(bt.ReverseBytes(b))
}

// NewNBitFromSlice takes the 4 little endian bytes of a serialized header.
func NewNBitFromSlice(b []byte) (NBit, error) {
	if len(b) != 4 {
		return NBit{}, errors.NewInvalidArgumentError("nBits should be 4 bytes, got %d", len(b))
	}

	var n NBit

	copy(n[:], b)

	return n, nil
}

func NewNBitFromUint32(bits uint32) NBit {
	var n NBit

	binary.LittleEndian.PutUint32(n[:], bits)

	return n
}

func (b NBit) Uint32() uint32 {
	return binary.LittleEndian.Uint32(b[:])
}

func (b NBit) String() string {
	return hex.EncodeToString(bt.ReverseBytes(b[:]))
}

func (b NBit) CloneBytes() []byte {
	out := make([]byte, 4)
	copy(out, b[:])

	return out
}

// Target decodes the compact form into a 256-bit threshold.
func (b NBit) Target() (*uint256.Int, error) {
	return CompactToTarget(b.Uint32())
}

// CalculateTarget returns the decoded target as a big.Int, or zero when the
// compact form does not decode.
func (b NBit) CalculateTarget() *big.Int {
	target, err := b.Target()
	if err != nil {
		return big.NewInt(0)
	}

	return target.ToBig()
}

// CalculateDifficulty is the difficulty relative to 0x1d00ffff.
func (b NBit) CalculateDifficulty() *big.Float {
	target := b.CalculateTarget()
	if target.Sign() == 0 {
		return big.NewFloat(0)
	}

	return new(big.Float).Quo(new(big.Float).SetInt(maxDifficultyTarget), new(big.Float).SetInt(target))
}

func (b NBit) MarshalJSON() ([]byte, error) {
	return []byte(`"` + b.String() + `"`), nil
}

func (b *NBit) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return errors.NewInvalidArgumentError("nBits must be a JSON string")
	}

	n, err := NewNBitFromString(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}

	*b = n

	return nil
}

// CompactToTarget decodes a compact target. Negative, zero and overflowing
// encodings fail with ERR_INVALID_TARGET.
func CompactToTarget(bits uint32) (*uint256.Int, error) {
	if bits&compactSignBit != 0 {
		return nil, errors.NewInvalidTargetError("compact target %08x has the sign bit set", bits)
	}

	mantissa := bits & compactMantissa
	exponent := bits >> 24

	var target *uint256.Int

	if exponent <= 3 {
		mantissa >>= 8 * (3 - exponent)
		target = uint256.NewInt(uint64(mantissa))
	} else {
		if exponent > 34 || (mantissa > 0xff && exponent > 33) || (mantissa > 0xffff && exponent > 32) {
			return nil, errors.NewInvalidTargetError("compact target %08x overflows 256 bits", bits)
		}

		target = new(uint256.Int).Lsh(uint256.NewInt(uint64(mantissa)), uint(8*(exponent-3)))
	}

	if target.IsZero() {
		return nil, errors.NewInvalidTargetError("compact target %08x is zero", bits)
	}

	return target, nil
}

// TargetToCompact returns the minimal compact encoding of target. Zero encodes to 0.
func TargetToCompact(target *uint256.Int) uint32 {
	if target == nil || target.IsZero() {
		return 0
	}

	size := uint32((target.BitLen() + 7) / 8) //nolint:gosec // at most 32

	var compact uint32
	if size <= 3 {
		compact = uint32(target.Uint64()) << (8 * (3 - size)) //nolint:gosec // fits in 24 bits
	} else {
		compact = uint32(new(uint256.Int).Rsh(target, uint(8*(size-3))).Uint64()) //nolint:gosec // fits in 24 bits
	}

	// the mantissa is signed, move the high bit into the exponent
	if compact&compactSignBit != 0 {
		compact >>= 8
		size++
	}

	return compact | size<<24
}

// HashToInt reads a header hash as the big endian integer compared against a target.
func HashToInt(hash *chainhash.Hash) *uint256.Int {
	return new(uint256.Int).SetBytes(bt.ReverseBytes(hash[:]))
}
