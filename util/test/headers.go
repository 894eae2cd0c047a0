package test

import (
	"encoding/binary"
	"encoding/hex"
	"net/url"
	"sync"

	"github.com/bitcoin-sv/btcx/model"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
)

// MainnetHeaderHex holds the main network headers at heights 0 to 9.
var MainnetHeaderHex = []string{
	"0100000000000000000000000000000000000000000000000000000000000000000000003ba3edfd7a7b12b27ac72c3e67768f617fc81bc3888a51323a9fb8aa4b1e5e4a29ab5f49ffff001d1dac2b7c",
	"010000006fe28c0ab6f1b372c1a6a246ae63f74f931e8365e15a089c68d6190000000000982051fd1e4ba744bbbe680e1fee14677ba1a3c3540bf7b1cdb606e857233e0e61bc6649ffff001d01e36299",
	"010000004860eb18bf1b1620e37e9490fc8a427514416fd75159ab86688e9a8300000000d5fdcc541e25de1c7a5addedf24858b8bb665c9f36ef744ee42c316022c90f9bb0bc6649ffff001d08d2bd61",
	"01000000bddd99ccfda39da1b108ce1a5d70038d0a967bacb68b6b63065f626a0000000044f672226090d85db9a9f2fbfe5f0f9609b387af7be5b7fbb7a1767c831c9e995dbe6649ffff001d05e0ed6d",
	"010000004944469562ae1c2c74d9a535e00b6f3e40ffbad4f2fda3895501b582000000007a06ea98cd40ba2e3288262b28638cec5337c1456aaf5eedc8e9e5a20f062bdf8cc16649ffff001d2bfee0a9",
	"0100000085144a84488ea88d221c8bd6c059da090e88f8a2c99690ee55dbba4e00000000e11c48fecdd9e72510ca84f023370c9a38bf91ac5cae88019bee94d24528526344c36649ffff001d1d03e477",
	"01000000fc33f596f822a0a1951ffdbf2a897b095636ad871707bf5d3162729b00000000379dfb96a5ea8c81700ea4ac6b97ae9a9312b2d4301a29580e924ee6761a2520adc46649ffff001d189c4c97",
	"010000008d778fdc15a2d3fb76b7122a3b5582bea4f21f5a0c693537e7a03130000000003f674005103b42f984169c7d008370967e91920a6a5d64fd51282f75bc73a68af1c66649ffff001d39a59c86",
	"010000004494c8cf4154bdcc0720cd4a59d9c9b285e4b146d45f061d2b6c967100000000e3855ed886605b6d4a99d5fa2ef2e9b0b164e63df3c4136bebf2d0dac0f1f7a667c86649ffff001d1c4b5666",
	"01000000c60ddef1b7618ca2348a46e868afc26e3efc68226c78aa47f8488c4000000000c997a5e56e104102fa209c6a852dd90660a20b2d9c352423edce25857fcd37047fca6649ffff001d28404f53",
}

// MainnetHeaders returns the raw records of MainnetHeaderHex[from:to].
func MainnetHeaders(from, to int) [][]byte {
	records := make([][]byte, 0, to-from)

	for _, h := range MainnetHeaderHex[from:to] {
		b, err := hex.DecodeString(h)
		if err != nil {
			panic(err)
		}

		records = append(records, b)
	}

	return records
}

// MainnetBlob concatenates MainnetHeaderHex[from:to].
func MainnetBlob(from, to int) []byte {
	return Concat(MainnetHeaders(from, to)...)
}

func Concat(records ...[]byte) []byte {
	blob := make([]byte, 0, len(records)*model.BlockHeaderSize)
	for _, r := range records {
		blob = append(blob, r...)
	}

	return blob
}

// MineHeader grinds the nonce until the header satisfies bits. seed goes into
// the merkle root so that competing chains from the same parent differ.
func MineHeader(prev *chainhash.Hash, seed uint64, timestamp uint32, bits model.NBit) *model.BlockHeader {
	var seedBytes [8]byte

	binary.LittleEndian.PutUint64(seedBytes[:], seed)

	merkleRoot := chainhash.DoubleHashH(seedBytes[:])

	header := &model.BlockHeader{
		Version:        1,
		HashPrevBlock:  prev,
		HashMerkleRoot: &merkleRoot,
		Timestamp:      timestamp,
		Bits:           bits,
	}

	for !header.Valid() {
		header.Nonce++
	}

	return header
}

// Chain is a run of mined headers.
type Chain struct {
	Headers []*model.BlockHeader
}

// MineChain mines count headers on top of prev, spaced spacing seconds apart
// from startTime. seed distinguishes chains mined from the same parent.
func MineChain(prev *chainhash.Hash, seed uint64, startTime, spacing uint32, count int, bits model.NBit) *Chain {
	c := &Chain{Headers: make([]*model.BlockHeader, 0, count)}

	for i := 0; i < count; i++ {
		c.Append(prev, seed, startTime+uint32(i)*spacing, bits) //nolint:gosec // test sizes
		prev = c.Tip().Hash()
	}

	return c
}

func (c *Chain) Append(prev *chainhash.Hash, seed uint64, timestamp uint32, bits model.NBit) *model.BlockHeader {
	h := MineHeader(prev, seed<<32|uint64(len(c.Headers)), timestamp, bits)
	c.Headers = append(c.Headers, h)

	return h
}

func (c *Chain) Tip() *model.BlockHeader {
	return c.Headers[len(c.Headers)-1]
}

// Blob serializes Headers[from:to].
func (c *Chain) Blob(from, to int) []byte {
	blob := make([]byte, 0, (to-from)*model.BlockHeaderSize)
	for _, h := range c.Headers[from:to] {
		blob = append(blob, h.Bytes()...)
	}

	return blob
}

func (c *Chain) Hashes(from, to int) []*chainhash.Hash {
	hashes := make([]*chainhash.Hash, 0, to-from)
	for _, h := range c.Headers[from:to] {
		hashes = append(hashes, h.Hash())
	}

	return hashes
}

func MustParseURL(s string) *url.URL {
	u, err := url.Parse(s)
	if err != nil {
		panic(err)
	}

	return u
}

// Unit test chain constants. The first epoch of UnitTestChain is spaced
// UnitTestSpacing seconds, which retargets UnitTestBits to UnitTestRetargetBits.
const (
	UnitTestStartTime    = 1_600_000_000
	UnitTestSpacing      = 300
	UnitTestBits         = 0x207fffff
	UnitTestRetargetBits = 0x203ff7de
)

var (
	unitTestChainOnce sync.Once
	unitTestChain     *Chain
)

// UnitTestChain mines heights 0 to 2020 under UnitTestParams, from a zero
// parent. The chain is shared, callers must not modify it.
func UnitTestChain() *Chain {
	unitTestChainOnce.Do(func() {
		c := MineChain(&chainhash.Hash{}, 1, UnitTestStartTime, UnitTestSpacing, 2016, model.NewNBitFromUint32(UnitTestBits))

		last := c.Tip().Timestamp
		for i := 0; i < 5; i++ {
			c.Append(c.Tip().Hash(), 1, last+uint32(i+1)*600, model.NewNBitFromUint32(UnitTestRetargetBits)) //nolint:gosec // test sizes
		}

		unitTestChain = c
	})

	return unitTestChain
}
