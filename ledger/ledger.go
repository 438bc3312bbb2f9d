package ledger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/Luismorlan/ticket_chain/model"
	"github.com/Luismorlan/ticket_chain/utils"
	"github.com/jinzhu/copier"
)

type Options struct {
	// Leading zero bits every block hash must have.
	Difficulty int
	// Upper bound on transactions per sealed block, 0 for no bound.
	MaxBatchSize int
	// Public key that signs issue transactions.
	Authority model.PublicKey
	Logger    *slog.Logger
}

// Ledger owns the chain of sealed blocks and the pool of admitted but unsealed transactions.
// Callers share one handle; all methods are safe for concurrent use.
type Ledger struct {
	rules    Rules
	maxBatch int
	logger   *slog.Logger

	// m guards everything below it. Blocks are never edited once appended; adopting another chain
	// swaps the whole slice.
	m      sync.RWMutex
	blocks []model.Block
	pool   []model.Transaction
	// Ticket state folded from blocks followed by pool, used for admission.
	pending *utils.TicketBook
	// Bumped whenever the chain is replaced, so a search that started on the old tip can tell.
	epoch uint64

	// A single miner at a time, so two searches never claim the same batch.
	mineMu sync.Mutex

	cancelMu     sync.Mutex
	cancelMining context.CancelFunc
}

// New creates a ledger holding only the genesis block.
func New(opts Options) (*Ledger, error) {
	if len(opts.Authority) == 0 || utils.BytesToPublicKey(opts.Authority) == nil {
		return nil, errors.New("ledger: authority must be a PKIX encoded ECDSA public key")
	}
	if opts.MaxBatchSize < 0 {
		return nil, fmt.Errorf("ledger: negative max batch size %d", opts.MaxBatchSize)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Difficulty < 0 {
		return nil, fmt.Errorf("ledger: negative difficulty %d", opts.Difficulty)
	}
	genesis, err := NewGenesisBlock()
	if err != nil {
		return nil, fmt.Errorf("ledger: building genesis: %w", err)
	}
	return &Ledger{
		rules: Rules{
			Difficulty: opts.Difficulty,
			Authority:  opts.Authority,
			Genesis:    *genesis,
		},
		maxBatch: opts.MaxBatchSize,
		logger:   logger,
		blocks:   []model.Block{*genesis},
		pending:  utils.NewTicketBook(),
	}, nil
}

// snapshot returns the committed chain and a copy of the pool. The chain slice may be read
// without the lock because appended blocks are never modified.
func (l *Ledger) snapshot() ([]model.Block, []model.Transaction) {
	l.m.RLock()
	defer l.m.RUnlock()
	pool := make([]model.Transaction, len(l.pool))
	copy(pool, l.pool)
	return l.blocks, pool
}

// SubmitTransaction verifies tx and admits it to the pending pool. The semantic checks run
// against the chain followed by everything already pending, in pool order.
// On rejection nothing changes.
func (l *Ledger) SubmitTransaction(tx model.Transaction) error {
	if err := utils.VerifyTransaction(&tx, l.rules.Authority); err != nil {
		l.logger.Debug("transaction rejected", "ticket", tx.TicketID, "type", tx.Type, "error", err)
		return err
	}
	var owned model.Transaction
	if err := copier.CopyWithOption(&owned, &tx, copier.Option{DeepCopy: true}); err != nil {
		return err
	}

	l.m.Lock()
	defer l.m.Unlock()
	if err := l.pending.ApplyTransaction(&owned); err != nil {
		l.logger.Debug("transaction rejected", "ticket", tx.TicketID, "type", tx.Type, "error", err)
		return err
	}
	l.pool = append(l.pool, owned)
	l.logger.Info("transaction admitted", "ticket", tx.TicketID, "type", tx.Type, "pending", len(l.pool))
	return nil
}

// MineBlock seals the head of the pending pool into a new block on the current tip.
// The proof-of-work search runs without holding the state lock, so reads and submissions go on
// meanwhile. The search stops with model.ErrMiningCanceled when ctx is done, when CancelMining
// is called, or when another chain is adopted before the block could be appended.
func (l *Ledger) MineBlock(ctx context.Context, timestamp int64) (*model.Block, error) {
	l.mineMu.Lock()
	defer l.mineMu.Unlock()

	l.m.RLock()
	tip := l.blocks[len(l.blocks)-1]
	epoch := l.epoch
	n := len(l.pool)
	if l.maxBatch > 0 && n > l.maxBatch {
		n = l.maxBatch
	}
	batch := make([]model.Transaction, n)
	copy(batch, l.pool[:n])
	l.m.RUnlock()

	ctx, cancel := context.WithCancel(ctx)
	l.setCancel(cancel)
	defer func() {
		l.setCancel(nil)
		cancel()
	}()

	l.logger.Debug("mining", "index", tip.Index+1, "txs", n, "difficulty", l.rules.Difficulty)
	block, err := utils.SealBlock(ctx, tip.Index+1, tip.Hash, batch, timestamp, l.rules.Difficulty)
	if err != nil {
		l.logger.Info("mining abandoned", "index", tip.Index+1, "error", err)
		return nil, err
	}

	l.m.Lock()
	defer l.m.Unlock()
	if l.epoch != epoch {
		l.logger.Info("mined block is stale", "index", block.Index)
		return nil, fmt.Errorf("%w: chain tip moved during the search", model.ErrMiningCanceled)
	}
	// Only MineBlock removes from the pool and it is serialized, so the batch is still the prefix.
	l.blocks = append(l.blocks, *block)
	l.pool = append([]model.Transaction(nil), l.pool[n:]...)
	l.logger.Info("block appended", "index", block.Index, "hash", block.Hash, "nonce", block.Nonce, "txs", len(block.Txs))

	return copyBlock(block)
}

// copyBlock deep-copies a block so callers never share memory with the sealed chain.
func copyBlock(block *model.Block) (*model.Block, error) {
	out := &model.Block{}
	if err := copier.CopyWithOption(out, block, copier.Option{DeepCopy: true}); err != nil {
		return nil, err
	}
	return out, nil
}

func (l *Ledger) setCancel(cancel context.CancelFunc) {
	l.cancelMu.Lock()
	defer l.cancelMu.Unlock()
	l.cancelMining = cancel
}

// CancelMining abandons an in-flight MineBlock search, if any.
func (l *Ledger) CancelMining() {
	l.cancelMu.Lock()
	defer l.cancelMu.Unlock()
	if l.cancelMining != nil {
		l.cancelMining()
	}
}

// ValidateChain checks a candidate chain against this ledger's genesis, difficulty and issuing authority.
// The error is a *model.ChainError.
func (l *Ledger) ValidateChain(blocks []model.Block) error {
	_, err := ValidateChain(blocks, l.rules)
	return err
}

// ImportChain validates candidate and adopts it if it is strictly longer than the current chain.
// An invalid candidate returns its *model.ChainError; a valid one that is not longer returns
// (false, nil). The current chain is either kept or swapped as a whole, never partially changed.
func (l *Ledger) ImportChain(candidate []model.Block) (bool, error) {
	var chain []model.Block
	if err := copier.CopyWithOption(&chain, &candidate, copier.Option{DeepCopy: true}); err != nil {
		return false, err
	}
	// Documents without stored hashes get them derived; the link and work checks still apply.
	for i := range chain {
		if chain[i].Hash != "" {
			continue
		}
		if _, err := utils.HexToBytes(chain[i].PrevHash); err != nil {
			return false, chainError(chain[i].Index, model.ChainBrokenLink, err)
		}
		hash, err := utils.HashBlock(&chain[i])
		if err != nil {
			return false, chainError(chain[i].Index, model.ChainHashMismatch, err)
		}
		chain[i].Hash = hash
	}
	book, err := ValidateChain(chain, l.rules)
	if err != nil {
		l.logger.Info("candidate chain rejected", "length", len(candidate), "error", err)
		return false, err
	}

	l.m.Lock()
	if len(chain) <= len(l.blocks) {
		current := len(l.blocks)
		l.m.Unlock()
		l.logger.Debug("candidate chain not longer", "length", len(chain), "current", current)
		return false, nil
	}
	l.blocks = chain
	l.epoch++
	// Pending transactions are re-admitted in order on top of the new chain. Those already
	// sealed there, or no longer applicable, are dropped.
	kept := make([]model.Transaction, 0, len(l.pool))
	for i := range l.pool {
		if err := book.ApplyTransaction(&l.pool[i]); err != nil {
			l.logger.Info("pending transaction dropped", "ticket", l.pool[i].TicketID, "error", err)
			continue
		}
		kept = append(kept, l.pool[i])
	}
	l.pool = kept
	l.pending = book
	l.m.Unlock()

	l.CancelMining()
	l.logger.Info("adopted longer chain", "length", len(chain), "pending", len(kept))
	return true, nil
}

// AdoptIfLonger is the conflict resolution rule: the longest valid chain wins.
func (l *Ledger) AdoptIfLonger(candidate []model.Block) bool {
	adopted, _ := l.ImportChain(candidate)
	return adopted
}

// ExportChain returns a deep copy of the committed chain.
func (l *Ledger) ExportChain() ([]model.Block, error) {
	blocks, _ := l.snapshot()
	var out []model.Block
	if err := copier.CopyWithOption(&out, &blocks, copier.Option{DeepCopy: true}); err != nil {
		return nil, err
	}
	return out, nil
}

// GetTicket replays the committed chain for one ticket.
func (l *Ledger) GetTicket(ticketID string) (model.Ticket, error) {
	blocks, _ := l.snapshot()
	return utils.DeriveTicket(blocks, nil, ticketID)
}

// PendingTicket is GetTicket with the pending pool applied on top.
func (l *Ledger) PendingTicket(ticketID string) (model.Ticket, error) {
	blocks, pool := l.snapshot()
	return utils.DeriveTicket(blocks, pool, ticketID)
}

// VerifyTicket reports the committed ticket and whether it can still be used at the gate.
func (l *Ledger) VerifyTicket(ticketID string) (model.Ticket, bool, error) {
	ticket, err := l.GetTicket(ticketID)
	if err != nil {
		return model.Ticket{}, false, err
	}
	return ticket, ticket.Valid(), nil
}

// TicketHistory lists committed transactions of one ticket in chain order.
func (l *Ledger) TicketHistory(ticketID string) []model.Transaction {
	blocks, _ := l.snapshot()
	return utils.TicketHistory(blocks, ticketID)
}

// Pending returns a copy of the pool in admission order.
func (l *Ledger) Pending() []model.Transaction {
	_, pool := l.snapshot()
	return pool
}

// Height is the number of blocks, genesis included.
func (l *Ledger) Height() int {
	l.m.RLock()
	defer l.m.RUnlock()
	return len(l.blocks)
}

// Tip returns a deep copy of the last sealed block.
func (l *Ledger) Tip() model.Block {
	l.m.RLock()
	tip := &l.blocks[len(l.blocks)-1]
	l.m.RUnlock()
	out, err := copyBlock(tip)
	if err != nil {
		l.logger.Error("failed to copy tip", "error", err)
		return model.Block{}
	}
	return *out
}

// Genesis has no transactions, so the value copy shares nothing.
func (l *Ledger) Genesis() model.Block {
	return l.rules.Genesis
}

func (l *Ledger) Authority() model.PublicKey {
	return l.rules.Authority
}
