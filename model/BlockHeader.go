package model

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/bitcoin-sv/btcx/errors"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
)

// BlockHeaderSize is the serialized size of a header record.
const BlockHeaderSize = 80

type BlockHeader struct {
	// Version of the block.  This is not the same as the protocol version.
	Version uint32

	// Hash of the previous block header in the blockchain.
	HashPrevBlock *chainhash.Hash

	// Merkle tree reference to hash of all transactions for the block.
	HashMerkleRoot *chainhash.Hash

	// Time the block was created in unix time.
	Timestamp uint32

	// Difficulty target for the block.
	Bits NBit

	// Nonce used to generate the block.
	Nonce uint32
}

func NewBlockHeaderFromBytes(headerBytes []byte) (*BlockHeader, error) {
	if len(headerBytes) != BlockHeaderSize {
		return nil, errors.NewInvalidHeadersInputError("block header should be %d bytes long, got %d", BlockHeaderSize, len(headerBytes))
	}

	hashPrevBlock, err := chainhash.NewHash(headerBytes[4:36])
	if err != nil {
		return nil, errors.NewInvalidHeadersInputError("error creating previous block hash from bytes", err)
	}

	hashMerkleRoot, err := chainhash.NewHash(headerBytes[36:68])
	if err != nil {
		return nil, errors.NewInvalidHeadersInputError("error creating merkle root hash from bytes", err)
	}

	bits, err := NewNBitFromSlice(headerBytes[72:76])
	if err != nil {
		return nil, errors.NewInvalidHeadersInputError("error reading nBits", err)
	}

	return &BlockHeader{
		Version:        binary.LittleEndian.Uint32(headerBytes[:4]),
		HashPrevBlock:  hashPrevBlock,
		HashMerkleRoot: hashMerkleRoot,
		Timestamp:      binary.LittleEndian.Uint32(headerBytes[68:72]),
		Bits:           bits,
		Nonce:          binary.LittleEndian.Uint32(headerBytes[76:]),
	}, nil
}

func NewBlockHeaderFromString(headerHex string) (*BlockHeader, error) {
	headerBytes, err := hex.DecodeString(headerHex)
	if err != nil {
		return nil, errors.NewInvalidHeadersInputError("error decoding hex string to bytes", err)
	}

	return NewBlockHeaderFromBytes(headerBytes)
}

// SplitHeaders cuts a concatenated blob into 80-byte records without parsing them.
func SplitHeaders(blob []byte) ([][]byte, error) {
	if len(blob) == 0 {
		return nil, errors.NewEmptyInputError("no headers supplied")
	}

	if len(blob)%BlockHeaderSize != 0 {
		return nil, errors.NewInvalidHeadersInputError("header blob length %d is not a multiple of %d", len(blob), BlockHeaderSize)
	}

	records := make([][]byte, 0, len(blob)/BlockHeaderSize)
	for i := 0; i < len(blob); i += BlockHeaderSize {
		records = append(records, blob[i:i+BlockHeaderSize])
	}

	return records, nil
}

// HashHeaderBytes is the double SHA-256 of a raw record.
func HashHeaderBytes(headerBytes []byte) *chainhash.Hash {
	hash := chainhash.DoubleHashH(headerBytes)
	return &hash
}

func (bh *BlockHeader) Hash() *chainhash.Hash {
	return HashHeaderBytes(bh.Bytes())
}

// Valid reports whether the header hash, read as an integer, does not exceed its own target.
func (bh *BlockHeader) Valid() bool {
	target, err := bh.Bits.Target()
	if err != nil {
		return false
	}

	return HashToInt(bh.Hash()).Cmp(target) <= 0
}

func (bh *BlockHeader) Bytes() []byte {
	blockHeaderBytes := make([]byte, 0, BlockHeaderSize)

	blockHeaderBytes = binary.LittleEndian.AppendUint32(blockHeaderBytes, bh.Version)
	blockHeaderBytes = append(blockHeaderBytes, hashBytes(bh.HashPrevBlock)...)
	blockHeaderBytes = append(blockHeaderBytes, hashBytes(bh.HashMerkleRoot)...)
	blockHeaderBytes = binary.LittleEndian.AppendUint32(blockHeaderBytes, bh.Timestamp)
	blockHeaderBytes = append(blockHeaderBytes, bh.Bits[:]...)
	blockHeaderBytes = binary.LittleEndian.AppendUint32(blockHeaderBytes, bh.Nonce)

	return blockHeaderBytes
}

func (bh *BlockHeader) String() string {
	return bh.Hash().String()
}

func hashBytes(h *chainhash.Hash) []byte {
	if h == nil {
		return make([]byte, chainhash.HashSize)
	}

	return h.CloneBytes()
}
