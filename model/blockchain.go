package model

import "strings"

// GenesisPrevHash is the sentinel predecessor of the genesis block: an all-zero sha256 digest in hex.
var GenesisPrevHash = strings.Repeat("0", 64)

type Block struct {
	// Position in the chain, genesis is 0.
	Index int64 `json:"index"`
	// Hash of the previous block in the hex format.
	PrevHash string `json:"prev_hash"`
	// Transactions sealed by this block, in admission order.
	Txs []Transaction `json:"transactions"`
	// Nonce is the miner's solution to the proof-of-work challenge.
	Nonce int64 `json:"nonce"`
	// Unix seconds supplied by whoever sealed the block.
	Timestamp int64 `json:"timestamp"`
	// Hash of this entire block in the hex string format. Recomputed on import, never trusted.
	Hash string `json:"hash"`
}

// IsGenesis reports whether the block sits at the root of the chain.
func (b *Block) IsGenesis() bool {
	return b.Index == 0
}

// Tip returns the last block of a chain, or nil when the chain is empty.
func Tip(blocks []Block) *Block {
	if len(blocks) == 0 {
		return nil
	}
	return &blocks[len(blocks)-1]
}
