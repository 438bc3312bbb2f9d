package utils

import (
	"context"
	"fmt"
	"math"

	"github.com/Luismorlan/ticket_chain/model"
	"github.com/fxamacker/cbor/v2"
)

// encodeTxs pre-encodes the ordered transaction list of a block.
func encodeTxs(txs []model.Transaction) (cbor.RawMessage, error) {
	encoded := make([]cbor.RawMessage, 0, len(txs))
	for i := 0; i < len(txs); i++ {
		txBytes, err := GetTransactionBytes(&txs[i])
		if err != nil {
			return nil, err
		}
		encoded = append(encoded, txBytes)
	}
	return CanonicalBytes(encoded)
}

func headerBytes(block *model.Block, txs cbor.RawMessage) ([]byte, error) {
	prevHash, err := HexToBytes(block.PrevHash)
	if err != nil {
		return nil, fmt.Errorf("prev hash is not hex: %w", err)
	}
	return CanonicalBytes(blockRecord{
		Index:     block.Index,
		PrevHash:  compact(prevHash),
		Txs:       txs,
		Nonce:     block.Nonce,
		Timestamp: block.Timestamp,
	})
}

// GetBlockBytes returns the canonical encoding of (index, prev_hash, transactions, nonce, timestamp).
// The stored Hash field is not part of it.
func GetBlockBytes(block *model.Block) ([]byte, error) {
	txs, err := encodeTxs(block.Txs)
	if err != nil {
		return nil, err
	}
	return headerBytes(block, txs)
}

// HashBlock recomputes the hex digest of a block from its contents.
func HashBlock(block *model.Block) (string, error) {
	blockBytes, err := GetBlockBytes(block)
	if err != nil {
		return "", err
	}
	return BytesToHex(SHA256(blockBytes)), nil
}

// SealBlock assembles a block and mines it. See Mine for cancellation.
func SealBlock(ctx context.Context, index int64, prevHash string, txs []model.Transaction, timestamp int64, difficulty int) (*model.Block, error) {
	block := model.Block{
		Index:     index,
		PrevHash:  prevHash,
		Txs:       txs,
		Timestamp: timestamp,
	}
	if err := Mine(ctx, &block, difficulty); err != nil {
		return nil, err
	}
	return &block, nil
}

// Mine a block, fill the nonce and hash given the current difficulty setting.
// Nonces are tried from 0 upwards. ctx is checked before every attempt; when it is done the search
// stops and an error wrapping model.ErrMiningCanceled and ctx.Err() is returned.
// difficulty - how many leading zero bits
func Mine(ctx context.Context, block *model.Block, difficulty int) error {
	txs, err := encodeTxs(block.Txs)
	if err != nil {
		return err
	}
	for i := int64(0); i < math.MaxInt64; i++ {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", model.ErrMiningCanceled, ctx.Err())
		default:
		}
		block.Nonce = i
		data, err := headerBytes(block, txs)
		if err != nil {
			return err
		}
		digest := SHA256(data)
		if ByteHasLeadingZeros(digest, difficulty) {
			block.Hash = BytesToHex(digest)
			return nil
		}
	}
	return fmt.Errorf("failed to find any nonce at difficulty %d", difficulty)
}

// MatchDifficulty recomputes the block digest and reports whether it meets the target.
func MatchDifficulty(block *model.Block, difficulty int) (bool, string) {
	blockBytes, err := GetBlockBytes(block)
	if err != nil {
		return false, ""
	}
	digest := SHA256(blockBytes)
	return ByteHasLeadingZeros(digest, difficulty), BytesToHex(digest)
}

// VerifyProofOfWork is the cheap side of the asymmetry: one hash, then the target check.
// The stored hash must also match what the contents hash to.
func VerifyProofOfWork(block *model.Block, difficulty int) bool {
	ok, digest := MatchDifficulty(block, difficulty)
	return ok && digest == block.Hash
}

func ByteHasLeadingZeros(bytes []byte, difficulty int) bool {
	if difficulty <= 0 {
		return true
	}
	numOfZeroBytes := difficulty / 8
	numOfZeroBits := difficulty % 8

	totalBytes := numOfZeroBytes
	if numOfZeroBits > 0 {
		totalBytes += 1
	}
	if totalBytes > len(bytes) {
		return false
	}
	for i := 0; i < numOfZeroBytes; i++ {
		if bytes[i] != 0 {
			return false
		}
	}
	if numOfZeroBits == 0 {
		return true
	}
	nextByte := bytes[numOfZeroBytes]

	return nextByte>>byte(8-numOfZeroBits) == 0
}
