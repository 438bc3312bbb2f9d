package model

import (
	"errors"
	"fmt"
)

var (
	// A transaction draft is missing fields its type requires. Caller bug, never retried.
	ErrInvalidDraft = errors.New("invalid transaction draft")
	// The signature does not verify against the authorizing key.
	ErrInvalidSignature = errors.New("invalid signature")

	// Rejection reasons for transactions that conflict with the derived ticket state.
	ErrDuplicateTicket     = errors.New("ticket already issued")
	ErrUnknownTicket       = errors.New("unknown ticket")
	ErrNotOwner            = errors.New("sender does not own the ticket")
	ErrAlreadyRedeemed     = errors.New("ticket already redeemed")
	ErrReplayedTransaction = errors.New("transaction already recorded")

	ErrTicketNotFound = errors.New("ticket not found")
	// Mining was abandoned, either by the caller or because the chain tip moved.
	ErrMiningCanceled = errors.New("mining canceled")
)

// IsRejection reports whether err is one of the reasons a transaction can be refused admission.
func IsRejection(err error) bool {
	for _, target := range []error{
		ErrInvalidDraft, ErrInvalidSignature, ErrDuplicateTicket, ErrUnknownTicket,
		ErrNotOwner, ErrAlreadyRedeemed, ErrReplayedTransaction,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

type ChainErrorReason int

const (
	ChainEmpty ChainErrorReason = iota
	ChainGenesisMismatch
	ChainIndexMismatch
	ChainBrokenLink
	ChainHashMismatch
	ChainInsufficientWork
	ChainInvalidTransaction
	ChainConflict
)

func (r ChainErrorReason) String() string {
	switch r {
	case ChainEmpty:
		return "empty chain"
	case ChainGenesisMismatch:
		return "genesis mismatch"
	case ChainIndexMismatch:
		return "index mismatch"
	case ChainBrokenLink:
		return "prev hash does not match predecessor"
	case ChainHashMismatch:
		return "stored hash does not match contents"
	case ChainInsufficientWork:
		return "hash does not meet difficulty"
	case ChainInvalidTransaction:
		return "invalid transaction"
	case ChainConflict:
		return "conflicting transaction"
	default:
		return "unknown"
	}
}

// ChainError identifies the first block of a candidate chain that failed validation.
type ChainError struct {
	Index  int64
	Reason ChainErrorReason
	// Underlying cause, e.g. ErrNotOwner for a conflict.
	Err error
}

func (e *ChainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("block %d: %s: %v", e.Index, e.Reason, e.Err)
	}
	return fmt.Sprintf("block %d: %s", e.Index, e.Reason)
}

func (e *ChainError) Unwrap() error {
	return e.Err
}
