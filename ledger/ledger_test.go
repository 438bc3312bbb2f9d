package ledger

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"encoding/asn1"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/Luismorlan/ticket_chain/model"
	"github.com/Luismorlan/ticket_chain/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDifficulty = 4

// Unreachable in a test run, so a search only ends when it is canceled.
const hopelessDifficulty = 64

type party struct {
	sk *ecdsa.PrivateKey
	pk model.PublicKey
}

func newParty(t *testing.T) party {
	sk, pk, err := utils.GenerateKeyPair()
	require.NoError(t, err)
	return party{sk: sk, pk: pk}
}

func newTestLedger(t *testing.T, issuer party, difficulty, maxBatch int) *Ledger {
	l, err := New(Options{
		Difficulty:   difficulty,
		MaxBatchSize: maxBatch,
		Authority:    issuer.pk,
	})
	require.NoError(t, err)
	return l
}

func issue(t *testing.T, issuer party, ticketID string, owner party, ts int64) model.Transaction {
	tx, err := IssueTicket("E", issuer.sk, ticketID, owner.pk, ts)
	require.NoError(t, err)
	return tx
}

func transfer(t *testing.T, ticketID string, from, to party, ts int64) model.Transaction {
	tx, err := TransferTicket(ticketID, from.sk, to.pk, ts)
	require.NoError(t, err)
	return tx
}

func redeem(t *testing.T, ticketID string, holder party, ts int64) model.Transaction {
	tx, err := RedeemTicket(ticketID, holder.sk, ts)
	require.NoError(t, err)
	return tx
}

func mine(t *testing.T, l *Ledger, ts int64) *model.Block {
	block, err := l.MineBlock(context.Background(), ts)
	require.NoError(t, err)
	return block
}

// waitForSearch blocks until a MineBlock call has registered its cancel func.
func waitForSearch(t *testing.T, l *Ledger) {
	require.Eventually(t, func() bool {
		l.cancelMu.Lock()
		defer l.cancelMu.Unlock()
		return l.cancelMining != nil
	}, 5*time.Second, time.Millisecond)
}

func TestNewRejectsBadOptions(t *testing.T) {
	issuer := newParty(t)
	_, err := New(Options{Difficulty: testDifficulty})
	assert.Error(t, err)
	_, err = New(Options{Difficulty: testDifficulty, Authority: model.PublicKey("garbage")})
	assert.Error(t, err)
	_, err = New(Options{Difficulty: -1, Authority: issuer.pk})
	assert.Error(t, err)
	_, err = New(Options{MaxBatchSize: -1, Authority: issuer.pk})
	assert.Error(t, err)
}

func TestGenesisIsSharedAcrossLedgers(t *testing.T) {
	a := newTestLedger(t, newParty(t), testDifficulty, 0)
	b := newTestLedger(t, newParty(t), hopelessDifficulty, 0)

	assert.Equal(t, 1, a.Height())
	assert.Equal(t, a.Genesis().Hash, b.Genesis().Hash)
	genesis := a.Tip()
	assert.True(t, genesis.IsGenesis())
	assert.Equal(t, model.GenesisPrevHash, genesis.PrevHash)
	assert.Empty(t, genesis.Txs)
	assert.NoError(t, a.ValidateChain([]model.Block{genesis}))
}

func TestTicketLifecycle(t *testing.T) {
	issuer, o1, o2 := newParty(t), newParty(t), newParty(t)
	l := newTestLedger(t, issuer, testDifficulty, 0)

	require.NoError(t, l.SubmitTransaction(issue(t, issuer, "T", o1, 1)))
	mine(t, l, 10)
	ticket, err := l.GetTicket("T")
	require.NoError(t, err)
	assert.Equal(t, model.Ticket{TicketID: "T", EventID: "E", Owner: o1.pk, Status: model.StatusIssued}, ticket)

	require.NoError(t, l.SubmitTransaction(transfer(t, "T", o1, o2, 2)))
	mine(t, l, 20)
	require.NoError(t, l.SubmitTransaction(redeem(t, "T", o2, 3)))
	mine(t, l, 30)

	ticket, err = l.GetTicket("T")
	require.NoError(t, err)
	assert.Equal(t, model.Ticket{TicketID: "T", EventID: "E", Owner: o2.pk, Status: model.StatusRedeemed}, ticket)
	_, valid, err := l.VerifyTicket("T")
	require.NoError(t, err)
	assert.False(t, valid)

	err = l.SubmitTransaction(transfer(t, "T", o2, o1, 4))
	assert.ErrorIs(t, err, model.ErrAlreadyRedeemed)

	history := l.TicketHistory("T")
	require.Len(t, history, 3)
	assert.Equal(t, model.TxIssue, history[0].Type)
	assert.Equal(t, model.TxTransfer, history[1].Type)
	assert.Equal(t, model.TxRedeem, history[2].Type)

	assert.Equal(t, 4, l.Height())
	chain, err := l.ExportChain()
	require.NoError(t, err)
	assert.NoError(t, l.ValidateChain(chain))
}

func TestSubmitRejectionsLeaveStateUntouched(t *testing.T) {
	issuer, o1, o2, stranger := newParty(t), newParty(t), newParty(t), newParty(t)
	l := newTestLedger(t, issuer, testDifficulty, 0)
	require.NoError(t, l.SubmitTransaction(issue(t, issuer, "T", o1, 1)))
	mine(t, l, 10)

	forged := transfer(t, "T", o1, o2, 2)
	forged.Signature = transfer(t, "T", o1, o2, 3).Signature

	tests := map[string]struct {
		tx   model.Transaction
		want error
	}{
		"issue not signed by the authority": {issue(t, stranger, "U", o1, 2), model.ErrInvalidSignature},
		"signature of another message":      {forged, model.ErrInvalidSignature},
		"duplicate issue":                   {issue(t, issuer, "T", o2, 2), model.ErrDuplicateTicket},
		"transfer of unknown ticket":        {transfer(t, "nope", o1, o2, 2), model.ErrUnknownTicket},
		"transfer by non owner":             {transfer(t, "T", stranger, o2, 2), model.ErrNotOwner},
		"redeem by non owner":               {redeem(t, "T", o2, 2), model.ErrNotOwner},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			err := l.SubmitTransaction(tc.tx)
			assert.ErrorIs(t, err, tc.want)
			assert.True(t, model.IsRejection(err))
			assert.Empty(t, l.Pending())
			ticket, err := l.PendingTicket("T")
			require.NoError(t, err)
			assert.Equal(t, o1.pk, ticket.Owner)
			assert.Equal(t, model.StatusIssued, ticket.Status)
		})
	}
}

func TestSubmitRejectsReplay(t *testing.T) {
	issuer, o1, o2 := newParty(t), newParty(t), newParty(t)
	l := newTestLedger(t, issuer, testDifficulty, 0)
	require.NoError(t, l.SubmitTransaction(issue(t, issuer, "T", o1, 1)))
	there := transfer(t, "T", o1, o2, 2)
	require.NoError(t, l.SubmitTransaction(there))
	require.NoError(t, l.SubmitTransaction(transfer(t, "T", o2, o1, 3)))
	mine(t, l, 10)

	// o1 owns the ticket again, so only the replay guard stops the old transfer.
	assert.ErrorIs(t, l.SubmitTransaction(there), model.ErrReplayedTransaction)
}

// withTwinSignature swaps the signature for its (r, n-s) counterpart, which verifies under plain ECDSA.
func withTwinSignature(t *testing.T, tx model.Transaction) model.Transaction {
	var sig struct{ R, S *big.Int }
	_, err := asn1.Unmarshal(tx.Signature, &sig)
	require.NoError(t, err)
	sig.S.Sub(elliptic.P384().Params().N, sig.S)
	tx.Signature, err = asn1.Marshal(sig)
	require.NoError(t, err)
	return tx
}

func TestSubmitRejectsReencodedReplay(t *testing.T) {
	issuer, alice, bob := newParty(t), newParty(t), newParty(t)
	l := newTestLedger(t, issuer, testDifficulty, 0)
	require.NoError(t, l.SubmitTransaction(issue(t, issuer, "T", alice, 1)))
	toBob := transfer(t, "T", alice, bob, 2)
	require.NoError(t, l.SubmitTransaction(toBob))
	require.NoError(t, l.SubmitTransaction(transfer(t, "T", bob, alice, 3)))
	mine(t, l, 10)

	twin := withTwinSignature(t, toBob)
	require.NotEqual(t, toBob.Signature, twin.Signature)
	err := l.SubmitTransaction(twin)
	assert.True(t, model.IsRejection(err), "got %v", err)

	// A fresh signature over the same content passes verification and still counts as the old transfer.
	resigned := transfer(t, "T", alice, bob, 2)
	assert.ErrorIs(t, l.SubmitTransaction(resigned), model.ErrReplayedTransaction)

	assert.Empty(t, l.Pending())
	mine(t, l, 20)
	ticket, err := l.GetTicket("T")
	require.NoError(t, err)
	assert.Equal(t, alice.pk, ticket.Owner)
}

func TestDoubleSpend(t *testing.T) {
	issuer, o1, o2, o3 := newParty(t), newParty(t), newParty(t), newParty(t)
	l := newTestLedger(t, issuer, testDifficulty, 0)
	require.NoError(t, l.SubmitTransaction(issue(t, issuer, "T", o1, 1)))
	mine(t, l, 10)

	require.NoError(t, l.SubmitTransaction(transfer(t, "T", o1, o2, 2)))
	// Still pending, yet the second spend is already checked against it.
	assert.ErrorIs(t, l.SubmitTransaction(transfer(t, "T", o1, o3, 3)), model.ErrNotOwner)
	mine(t, l, 20)
	assert.ErrorIs(t, l.SubmitTransaction(transfer(t, "T", o1, o3, 4)), model.ErrNotOwner)

	ticket, err := l.GetTicket("T")
	require.NoError(t, err)
	assert.Equal(t, o2.pk, ticket.Owner)
}

func TestPendingIsNotCommitted(t *testing.T) {
	issuer, o1 := newParty(t), newParty(t)
	l := newTestLedger(t, issuer, testDifficulty, 0)
	require.NoError(t, l.SubmitTransaction(issue(t, issuer, "T", o1, 1)))

	_, err := l.GetTicket("T")
	assert.ErrorIs(t, err, model.ErrTicketNotFound)
	_, _, err = l.VerifyTicket("T")
	assert.ErrorIs(t, err, model.ErrTicketNotFound)
	ticket, err := l.PendingTicket("T")
	require.NoError(t, err)
	assert.Equal(t, model.StatusIssued, ticket.Status)
	assert.Len(t, l.Pending(), 1)

	mine(t, l, 10)
	_, err = l.GetTicket("T")
	assert.NoError(t, err)
	assert.Empty(t, l.Pending())
}

func TestMineBlock(t *testing.T) {
	issuer, o1 := newParty(t), newParty(t)
	l := newTestLedger(t, issuer, testDifficulty, 0)
	genesis := l.Tip()
	first := issue(t, issuer, "A", o1, 1)
	second := issue(t, issuer, "B", o1, 2)
	require.NoError(t, l.SubmitTransaction(first))
	require.NoError(t, l.SubmitTransaction(second))

	block := mine(t, l, 42)
	assert.Equal(t, int64(1), block.Index)
	assert.Equal(t, genesis.Hash, block.PrevHash)
	assert.Equal(t, int64(42), block.Timestamp)
	assert.True(t, utils.VerifyProofOfWork(block, testDifficulty))
	// Pool order is kept.
	require.Len(t, block.Txs, 2)
	assert.Equal(t, "A", block.Txs[0].TicketID)
	assert.Equal(t, "B", block.Txs[1].TicketID)
	assert.Equal(t, block.Hash, l.Tip().Hash)
}

func TestReturnedBlocksDoNotAliasTheChain(t *testing.T) {
	issuer, o1, mallory := newParty(t), newParty(t), newParty(t)
	l := newTestLedger(t, issuer, testDifficulty, 0)
	require.NoError(t, l.SubmitTransaction(issue(t, issuer, "T", o1, 1)))

	block := mine(t, l, 10)
	block.Txs[0].To = mallory.pk
	block.Txs[0].Signature[0] ^= 0xff

	tip := l.Tip()
	require.Len(t, tip.Txs, 1)
	assert.Equal(t, o1.pk, tip.Txs[0].To)
	tip.Txs[0].To = mallory.pk
	tip.Txs = nil

	ticket, err := l.GetTicket("T")
	require.NoError(t, err)
	assert.Equal(t, o1.pk, ticket.Owner)
	chain, err := l.ExportChain()
	require.NoError(t, err)
	assert.NoError(t, l.ValidateChain(chain))
	assert.Len(t, l.Tip().Txs, 1)
}

func TestMineBlockWithEmptyPool(t *testing.T) {
	l := newTestLedger(t, newParty(t), testDifficulty, 0)
	block := mine(t, l, 5)
	assert.Empty(t, block.Txs)
	assert.Equal(t, 2, l.Height())
	chain, err := l.ExportChain()
	require.NoError(t, err)
	assert.NoError(t, l.ValidateChain(chain))
}

func TestMineBlockRespectsMaxBatchSize(t *testing.T) {
	issuer, o1 := newParty(t), newParty(t)
	l := newTestLedger(t, issuer, testDifficulty, 2)
	for i, id := range []string{"A", "B", "C"} {
		require.NoError(t, l.SubmitTransaction(issue(t, issuer, id, o1, int64(i))))
	}

	block := mine(t, l, 10)
	require.Len(t, block.Txs, 2)
	pending := l.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, "C", pending[0].TicketID)

	block = mine(t, l, 20)
	require.Len(t, block.Txs, 1)
	assert.Equal(t, "C", block.Txs[0].TicketID)
}

func TestMineBlockStopsWhenContextIsDone(t *testing.T) {
	issuer, o1 := newParty(t), newParty(t)
	l := newTestLedger(t, issuer, hopelessDifficulty, 0)
	require.NoError(t, l.SubmitTransaction(issue(t, issuer, "T", o1, 1)))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := l.MineBlock(ctx, 10)
	assert.ErrorIs(t, err, model.ErrMiningCanceled)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, l.Height())
	assert.Len(t, l.Pending(), 1)
}

func TestCancelMining(t *testing.T) {
	issuer, o1 := newParty(t), newParty(t)
	l := newTestLedger(t, issuer, hopelessDifficulty, 0)
	require.NoError(t, l.SubmitTransaction(issue(t, issuer, "T", o1, 1)))

	// No search in flight, nothing to do.
	l.CancelMining()

	done := make(chan error, 1)
	go func() {
		_, err := l.MineBlock(context.Background(), 10)
		done <- err
	}()
	waitForSearch(t, l)

	// Reads and submissions are served while the search runs.
	_, err := l.PendingTicket("T")
	assert.NoError(t, err)
	_, err = l.ExportChain()
	assert.NoError(t, err)
	require.NoError(t, l.SubmitTransaction(issue(t, issuer, "U", o1, 2)))

	l.CancelMining()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, model.ErrMiningCanceled)
	case <-time.After(5 * time.Second):
		t.Fatal("mining did not stop")
	}
	assert.Equal(t, 1, l.Height())
	assert.Len(t, l.Pending(), 2)
}

// buildChain mines n blocks on a fresh ledger, each issuing one ticket.
func buildChain(t *testing.T, issuer party, owner party, n int) []model.Block {
	l := newTestLedger(t, issuer, testDifficulty, 0)
	for i := 0; i < n; i++ {
		require.NoError(t, l.SubmitTransaction(issue(t, issuer, fmt.Sprintf("other-%d", i), owner, int64(i))))
		mine(t, l, int64(100+i))
	}
	chain, err := l.ExportChain()
	require.NoError(t, err)
	return chain
}

func TestAdoptIfLonger(t *testing.T) {
	issuer, o1 := newParty(t), newParty(t)

	t.Run("longer valid chain replaces the current one", func(t *testing.T) {
		l := newTestLedger(t, issuer, testDifficulty, 0)
		require.NoError(t, l.SubmitTransaction(issue(t, issuer, "mine", o1, 1)))
		mine(t, l, 10)

		candidate := buildChain(t, issuer, o1, 2)
		assert.True(t, l.AdoptIfLonger(candidate))
		assert.Equal(t, 3, l.Height())
		assert.Equal(t, candidate[2].Hash, l.Tip().Hash)
		_, err := l.GetTicket("mine")
		assert.ErrorIs(t, err, model.ErrTicketNotFound)
		_, err = l.GetTicket("other-1")
		assert.NoError(t, err)
	})

	t.Run("shorter or equal chains are ignored", func(t *testing.T) {
		l := newTestLedger(t, issuer, testDifficulty, 0)
		mine(t, l, 10)
		mine(t, l, 20)
		tip := l.Tip()

		assert.False(t, l.AdoptIfLonger(buildChain(t, issuer, o1, 1)))
		adopted, err := l.ImportChain(buildChain(t, issuer, o1, 2))
		assert.NoError(t, err)
		assert.False(t, adopted)
		assert.Equal(t, tip.Hash, l.Tip().Hash)
	})

	t.Run("invalid longer chain is ignored", func(t *testing.T) {
		l := newTestLedger(t, issuer, testDifficulty, 0)
		mine(t, l, 10)
		tip := l.Tip()

		candidate := buildChain(t, issuer, o1, 3)
		candidate[1].Txs[0].TicketID = "forged"
		assert.False(t, l.AdoptIfLonger(candidate))

		_, err := l.ImportChain(candidate)
		var chainErr *model.ChainError
		require.ErrorAs(t, err, &chainErr)
		assert.Equal(t, int64(1), chainErr.Index)
		assert.Equal(t, 2, l.Height())
		assert.Equal(t, tip.Hash, l.Tip().Hash)
	})

	t.Run("chain of another authority is ignored", func(t *testing.T) {
		l := newTestLedger(t, issuer, testDifficulty, 0)
		assert.False(t, l.AdoptIfLonger(buildChain(t, newParty(t), o1, 2)))
		assert.Equal(t, 1, l.Height())
	})
}

func TestImportedChainIsNotAliased(t *testing.T) {
	issuer, o1 := newParty(t), newParty(t)
	l := newTestLedger(t, issuer, testDifficulty, 0)
	candidate := buildChain(t, issuer, o1, 2)
	require.True(t, l.AdoptIfLonger(candidate))

	candidate[1].Txs[0].TicketID = "changed"
	candidate[2].Hash = "changed"
	chain, err := l.ExportChain()
	require.NoError(t, err)
	assert.NoError(t, l.ValidateChain(chain))
}

func TestAdoptionReadmitsPendingPool(t *testing.T) {
	issuer, o1, o2 := newParty(t), newParty(t), newParty(t)
	source := newTestLedger(t, issuer, testDifficulty, 0)
	shared := issue(t, issuer, "shared", o1, 1)
	require.NoError(t, source.SubmitTransaction(shared))
	mine(t, source, 10)
	mine(t, source, 20)
	candidate, err := source.ExportChain()
	require.NoError(t, err)

	l := newTestLedger(t, issuer, testDifficulty, 0)
	require.NoError(t, l.SubmitTransaction(shared))
	require.NoError(t, l.SubmitTransaction(issue(t, issuer, "local", o2, 2)))
	require.True(t, l.AdoptIfLonger(candidate))

	pending := l.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, "local", pending[0].TicketID)

	block := mine(t, l, 30)
	require.Len(t, block.Txs, 1)
	chain, err := l.ExportChain()
	require.NoError(t, err)
	assert.NoError(t, l.ValidateChain(chain))
}

func TestAdoptionCancelsSearch(t *testing.T) {
	issuer, o1 := newParty(t), newParty(t)
	l := newTestLedger(t, issuer, testDifficulty, 0)

	canceled := make(chan struct{})
	l.setCancel(func() { close(canceled) })
	require.True(t, l.AdoptIfLonger(buildChain(t, issuer, o1, 1)))
	select {
	case <-canceled:
	default:
		t.Fatal("adoption did not cancel the search")
	}
	assert.Equal(t, uint64(1), l.epoch)
}

func TestExportImportThroughJSON(t *testing.T) {
	issuer, o1, o2 := newParty(t), newParty(t), newParty(t)
	l := newTestLedger(t, issuer, testDifficulty, 0)
	require.NoError(t, l.SubmitTransaction(issue(t, issuer, "T", o1, 1)))
	mine(t, l, 10)
	mine(t, l, 20)
	require.NoError(t, l.SubmitTransaction(transfer(t, "T", o1, o2, 2)))
	mine(t, l, 30)

	chain, err := l.ExportChain()
	require.NoError(t, err)
	data, err := json.Marshal(chain)
	require.NoError(t, err)
	var decoded []model.Block
	require.NoError(t, json.Unmarshal(data, &decoded))

	other := newTestLedger(t, issuer, testDifficulty, 0)
	adopted, err := other.ImportChain(decoded)
	require.NoError(t, err)
	assert.True(t, adopted)
	assert.Equal(t, l.Tip().Hash, other.Tip().Hash)
	want, err := l.GetTicket("T")
	require.NoError(t, err)
	got, err := other.GetTicket("T")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestImportWithoutStoredHashes(t *testing.T) {
	issuer, o1 := newParty(t), newParty(t)
	l := newTestLedger(t, issuer, testDifficulty, 0)
	chain := buildChain(t, issuer, o1, 2)
	want := chain[2].Hash

	bare := make([]map[string]any, len(chain))
	data, err := json.Marshal(chain)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &bare))
	for _, record := range bare {
		delete(record, "hash")
	}
	data, err = json.Marshal(bare)
	require.NoError(t, err)
	var decoded []model.Block
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Empty(t, decoded[2].Hash)

	assert.True(t, l.AdoptIfLonger(decoded))
	assert.Equal(t, want, l.Tip().Hash)

	// A derived hash still has to carry the work.
	decoded[1].Nonce++
	decoded[1].Hash = ""
	decoded = append(decoded, decoded[2])
	assert.False(t, newTestLedger(t, issuer, testDifficulty, 0).AdoptIfLonger(decoded))

	// A prev hash that cannot be decoded is reported at its block.
	broken := append([]model.Block(nil), chain...)
	broken = append(broken, model.Block{Index: 3, PrevHash: "zz"})
	_, err = newTestLedger(t, issuer, testDifficulty, 0).ImportChain(broken)
	var chainErr *model.ChainError
	require.ErrorAs(t, err, &chainErr)
	assert.Equal(t, int64(3), chainErr.Index)
	assert.Equal(t, model.ChainBrokenLink, chainErr.Reason)
}

func TestCommittedStateMatchesFullReplay(t *testing.T) {
	issuer := newParty(t)
	owners := []party{newParty(t), newParty(t), newParty(t)}
	l := newTestLedger(t, issuer, testDifficulty, 3)

	ts := int64(0)
	for i := 0; i < 4; i++ {
		id := fmt.Sprintf("T%d", i)
		ts++
		require.NoError(t, l.SubmitTransaction(issue(t, issuer, id, owners[0], ts)))
		for j := 1; j <= i; j++ {
			ts++
			require.NoError(t, l.SubmitTransaction(transfer(t, id, owners[j-1], owners[j%3], ts)))
		}
		mine(t, l, ts)
	}
	for len(l.Pending()) > 0 {
		mine(t, l, ts)
	}

	chain, err := l.ExportChain()
	require.NoError(t, err)
	book, err := ValidateChain(chain, l.rules)
	require.NoError(t, err)
	for id, want := range book.Tickets {
		got, err := l.GetTicket(id)
		require.NoError(t, err)
		assert.Equal(t, want, got, id)
		pending, err := l.PendingTicket(id)
		require.NoError(t, err)
		assert.Equal(t, want, pending, id)
	}
	assert.Len(t, book.Tickets, 4)
}

func TestConcurrentSubmitAndMine(t *testing.T) {
	issuer, o1 := newParty(t), newParty(t)
	l := newTestLedger(t, issuer, testDifficulty, 5)

	const writers, perWriter = 4, 10
	txs := make([][]model.Transaction, writers)
	for w := range txs {
		for i := 0; i < perWriter; i++ {
			txs[w] = append(txs[w], issue(t, issuer, fmt.Sprintf("w%d-%d", w, i), o1, int64(i)))
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	var miner sync.WaitGroup
	miner.Add(1)
	go func() {
		defer miner.Done()
		for ctx.Err() == nil {
			if _, err := l.MineBlock(ctx, time.Now().Unix()); err != nil && !errors.Is(err, model.ErrMiningCanceled) {
				t.Error(err)
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(batch []model.Transaction) {
			defer wg.Done()
			for _, tx := range batch {
				assert.NoError(t, l.SubmitTransaction(tx))
				_, _ = l.ExportChain()
			}
		}(txs[w])
	}
	wg.Wait()
	cancel()
	miner.Wait()
	for len(l.Pending()) > 0 {
		mine(t, l, 1)
	}

	chain, err := l.ExportChain()
	require.NoError(t, err)
	require.NoError(t, l.ValidateChain(chain))
	seen := map[string]int{}
	for _, block := range chain {
		for _, tx := range block.Txs {
			seen[tx.TicketID]++
		}
	}
	assert.Len(t, seen, writers*perWriter)
	for id, n := range seen {
		assert.Equal(t, 1, n, id)
	}
}

func TestRunMiner(t *testing.T) {
	issuer, o1 := newParty(t), newParty(t)
	l := newTestLedger(t, issuer, testDifficulty, 0)

	ctx, cancel := context.WithCancel(context.Background())
	blocks := make(chan *model.Block, 4)
	stopped := make(chan struct{})
	go func() {
		l.RunMiner(ctx, 5*time.Millisecond, func() time.Time { return time.Unix(77, 0) }, func(b *model.Block) {
			blocks <- b
		})
		close(stopped)
	}()

	// Idle ticks seal nothing.
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 1, l.Height())

	require.NoError(t, l.SubmitTransaction(issue(t, issuer, "T", o1, 1)))
	select {
	case b := <-blocks:
		assert.Equal(t, int64(77), b.Timestamp)
		require.Len(t, b.Txs, 1)
	case <-time.After(5 * time.Second):
		t.Fatal("no block mined")
	}
	cancel()
	<-stopped
	_, err := l.GetTicket("T")
	assert.NoError(t, err)
}

func TestIssueTicketAssignsID(t *testing.T) {
	issuer, o1 := newParty(t), newParty(t)
	a, err := IssueTicket("E", issuer.sk, "", o1.pk, 1)
	require.NoError(t, err)
	b, err := IssueTicket("E", issuer.sk, "", o1.pk, 1)
	require.NoError(t, err)
	assert.NotEmpty(t, a.TicketID)
	assert.NotEqual(t, a.TicketID, b.TicketID)
	assert.NoError(t, utils.VerifyTransaction(&a, issuer.pk))
}
