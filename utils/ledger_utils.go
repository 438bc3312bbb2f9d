package utils

import (
	"fmt"

	"github.com/Luismorlan/ticket_chain/model"
)

// TicketBook is the ticket table folded from a transaction log. It is always rebuilt from the
// log, never edited by anything but ApplyTransaction.
type TicketBook struct {
	Tickets map[string]model.Ticket
	// Replay keys of every transaction applied so far.
	Seen map[string]struct{}
}

func NewTicketBook() *TicketBook {
	return &TicketBook{
		Tickets: make(map[string]model.Ticket),
		Seen:    make(map[string]struct{}),
	}
}

// Clone returns an independent copy, so a caller can try transactions without touching the original.
func (b *TicketBook) Clone() *TicketBook {
	c := &TicketBook{
		Tickets: make(map[string]model.Ticket, len(b.Tickets)),
		Seen:    make(map[string]struct{}, len(b.Seen)),
	}
	for id, ticket := range b.Tickets {
		c.Tickets[id] = ticket
	}
	for h := range b.Seen {
		c.Seen[h] = struct{}{}
	}
	return c
}

// CheckTransaction reports whether tx may be applied on top of the book. The order of checks
// decides which reason wins: redeemed tickets always answer ErrAlreadyRedeemed, then existence,
// then ownership, and replays last.
func (b *TicketBook) CheckTransaction(tx *model.Transaction) error {
	ticket, exists := b.Tickets[tx.TicketID]
	if exists && ticket.Status == model.StatusRedeemed {
		return fmt.Errorf("%w: %s", model.ErrAlreadyRedeemed, tx.TicketID)
	}
	switch tx.Type {
	case model.TxIssue:
		if exists {
			return fmt.Errorf("%w: %s", model.ErrDuplicateTicket, tx.TicketID)
		}
	case model.TxTransfer, model.TxRedeem:
		if !exists {
			return fmt.Errorf("%w: %s", model.ErrUnknownTicket, tx.TicketID)
		}
		if !ticket.Owner.Equal(tx.From) {
			return fmt.Errorf("%w: %s", model.ErrNotOwner, tx.TicketID)
		}
	default:
		return fmt.Errorf("%w: unknown type %d", model.ErrInvalidDraft, tx.Type)
	}
	h, err := ReplayKey(tx)
	if err != nil {
		return err
	}
	if _, seen := b.Seen[h]; seen {
		return fmt.Errorf("%w: %s", model.ErrReplayedTransaction, h)
	}
	return nil
}

// ApplyTransaction checks tx and folds it into the book. On error the book is unchanged.
func (b *TicketBook) ApplyTransaction(tx *model.Transaction) error {
	if err := b.CheckTransaction(tx); err != nil {
		return err
	}
	h, err := ReplayKey(tx)
	if err != nil {
		return err
	}
	b.Seen[h] = struct{}{}
	b.Tickets[tx.TicketID] = Fold(b.Tickets[tx.TicketID], tx)
	return nil
}

// Fold advances one ticket by one transaction without any checks.
// ∅ → Issued → Transferred (repeatable) → Redeemed.
func Fold(ticket model.Ticket, tx *model.Transaction) model.Ticket {
	switch tx.Type {
	case model.TxIssue:
		return model.Ticket{
			TicketID: tx.TicketID,
			EventID:  tx.EventID,
			Owner:    tx.To,
			Status:   model.StatusIssued,
		}
	case model.TxTransfer:
		ticket.Owner = tx.To
		ticket.Status = model.StatusTransferred
	case model.TxRedeem:
		ticket.Status = model.StatusRedeemed
	}
	return ticket
}

// HandleTransactions applies a batch in order and stops at the first failure.
// Note that the book will be changed directly, pass a clone if the batch may be rejected.
func (b *TicketBook) HandleTransactions(txs []model.Transaction) (int, error) {
	for i := 0; i < len(txs); i++ {
		if err := b.ApplyTransaction(&txs[i]); err != nil {
			return i, err
		}
	}
	return len(txs), nil
}

// BuildTicketBook replays every transaction of every block. It assumes the blocks were validated.
func BuildTicketBook(blocks []model.Block) (*TicketBook, error) {
	book := NewTicketBook()
	for i := range blocks {
		if _, err := book.HandleTransactions(blocks[i].Txs); err != nil {
			return nil, fmt.Errorf("block %d: %w", blocks[i].Index, err)
		}
	}
	return book, nil
}

// DeriveTicket replays only the transactions of one ticket, in chain order, followed by extra
// (e.g. the pending pool). Returns model.ErrTicketNotFound if nothing ever issued it.
func DeriveTicket(blocks []model.Block, extra []model.Transaction, ticketID string) (model.Ticket, error) {
	var ticket model.Ticket
	for i := range blocks {
		for j := range blocks[i].Txs {
			tx := &blocks[i].Txs[j]
			if tx.TicketID == ticketID {
				ticket = Fold(ticket, tx)
			}
		}
	}
	for i := range extra {
		if extra[i].TicketID == ticketID {
			ticket = Fold(ticket, &extra[i])
		}
	}
	if ticket.Status == model.StatusNone {
		return model.Ticket{}, fmt.Errorf("%w: %s", model.ErrTicketNotFound, ticketID)
	}
	return ticket, nil
}

// TicketHistory collects the transactions touching one ticket in chain order.
func TicketHistory(blocks []model.Block, ticketID string) []model.Transaction {
	var history []model.Transaction
	for i := range blocks {
		for _, tx := range blocks[i].Txs {
			if tx.TicketID == ticketID {
				history = append(history, tx)
			}
		}
	}
	return history
}
