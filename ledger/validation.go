package ledger

import (
	"github.com/Luismorlan/ticket_chain/model"
	"github.com/Luismorlan/ticket_chain/utils"
)

// Rules are what a chain is validated against.
type Rules struct {
	Difficulty int
	Authority  model.PublicKey
	Genesis    model.Block
}

// NewGenesisBlock builds the fixed root block: index 0, the all-zero sentinel as predecessor,
// no transactions, nonce and timestamp 0. Genesis carries no proof of work, so every ledger
// shares the same root whatever its difficulty.
func NewGenesisBlock() (*model.Block, error) {
	genesis := model.Block{
		Index:    0,
		PrevHash: model.GenesisPrevHash,
	}
	hash, err := utils.HashBlock(&genesis)
	if err != nil {
		return nil, err
	}
	genesis.Hash = hash
	return &genesis, nil
}

func chainError(index int64, reason model.ChainErrorReason, err error) *model.ChainError {
	return &model.ChainError{Index: index, Reason: reason, Err: err}
}

// ValidateChain checks a whole candidate chain and fails fast on the first violation:
//  1. The first block is the expected genesis. It is exempt from the difficulty.
//  2. Every later block has the next index and links to its predecessor's hash.
//  3. Every block's stored hash is what its contents hash to, and meets the difficulty.
//  4. Every transaction is well formed and correctly signed.
//  5. Replaying all transactions in order never conflicts.
//
// On success the folded ticket state of the chain is returned.
func ValidateChain(blocks []model.Block, rules Rules) (*utils.TicketBook, error) {
	if len(blocks) == 0 {
		return nil, chainError(0, model.ChainEmpty, nil)
	}

	genesis := &blocks[0]
	digest, err := utils.HashBlock(genesis)
	if err != nil || genesis.Index != 0 || genesis.PrevHash != model.GenesisPrevHash ||
		digest != rules.Genesis.Hash || genesis.Hash != rules.Genesis.Hash {
		return nil, chainError(0, model.ChainGenesisMismatch, err)
	}

	book := utils.NewTicketBook()
	for i := 1; i < len(blocks); i++ {
		block := &blocks[i]
		prev := &blocks[i-1]
		if block.Index != int64(i) {
			return nil, chainError(int64(i), model.ChainIndexMismatch, nil)
		}
		// prev.Hash was recomputed and checked in the previous round.
		if block.PrevHash != prev.Hash {
			return nil, chainError(block.Index, model.ChainBrokenLink, nil)
		}
		matched, digest := utils.MatchDifficulty(block, rules.Difficulty)
		if digest == "" || digest != block.Hash {
			return nil, chainError(block.Index, model.ChainHashMismatch, nil)
		}
		if !matched {
			return nil, chainError(block.Index, model.ChainInsufficientWork, nil)
		}
		for j := range block.Txs {
			tx := &block.Txs[j]
			if err := utils.VerifyTransaction(tx, rules.Authority); err != nil {
				return nil, chainError(block.Index, model.ChainInvalidTransaction, err)
			}
			if err := book.ApplyTransaction(tx); err != nil {
				return nil, chainError(block.Index, model.ChainConflict, err)
			}
		}
	}
	return book, nil
}
