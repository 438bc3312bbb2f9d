package utils

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/Luismorlan/ticket_chain/model"
)

// BuildTransaction creates an unsigned draft. Field requirements per type are enforced when signing.
func BuildTransaction(txType model.TxType, ticketID, eventID string, from, to model.PublicKey, timestamp int64) model.Transaction {
	return model.Transaction{
		Type:      txType,
		TicketID:  ticketID,
		EventID:   eventID,
		From:      from,
		To:        to,
		Timestamp: timestamp,
	}
}

func NewIssueDraft(ticketID, eventID string, to model.PublicKey, timestamp int64) model.Transaction {
	return BuildTransaction(model.TxIssue, ticketID, eventID, nil, to, timestamp)
}

func NewTransferDraft(ticketID string, from, to model.PublicKey, timestamp int64) model.Transaction {
	return BuildTransaction(model.TxTransfer, ticketID, "", from, to, timestamp)
}

func NewRedeemDraft(ticketID string, from model.PublicKey, timestamp int64) model.Transaction {
	return BuildTransaction(model.TxRedeem, ticketID, "", from, nil, timestamp)
}

// ValidateDraft checks the per-type required and forbidden fields:
// issue needs event and receiver and has no sender, transfer needs sender and receiver,
// redeem needs a sender and nothing else.
func ValidateDraft(t *model.Transaction) error {
	if t.TicketID == "" {
		return fmt.Errorf("%w: missing ticket id", model.ErrInvalidDraft)
	}
	switch t.Type {
	case model.TxIssue:
		if t.EventID == "" {
			return fmt.Errorf("%w: issue without event id", model.ErrInvalidDraft)
		}
		if len(t.To) == 0 {
			return fmt.Errorf("%w: issue without receiver", model.ErrInvalidDraft)
		}
		if len(t.From) != 0 {
			return fmt.Errorf("%w: issue must not carry a sender", model.ErrInvalidDraft)
		}
	case model.TxTransfer:
		if len(t.From) == 0 {
			return fmt.Errorf("%w: transfer without sender", model.ErrInvalidDraft)
		}
		if len(t.To) == 0 {
			return fmt.Errorf("%w: transfer without receiver", model.ErrInvalidDraft)
		}
		if t.EventID != "" {
			return fmt.Errorf("%w: only issue carries an event id", model.ErrInvalidDraft)
		}
	case model.TxRedeem:
		if len(t.From) == 0 {
			return fmt.Errorf("%w: redeem without sender", model.ErrInvalidDraft)
		}
		if len(t.To) != 0 {
			return fmt.Errorf("%w: redeem must not carry a receiver", model.ErrInvalidDraft)
		}
		if t.EventID != "" {
			return fmt.Errorf("%w: only issue carries an event id", model.ErrInvalidDraft)
		}
	default:
		return fmt.Errorf("%w: unknown type %d", model.ErrInvalidDraft, t.Type)
	}
	return nil
}

// GetTransactionDataToSign returns the canonical encoding of every field except the signature.
func GetTransactionDataToSign(t *model.Transaction) ([]byte, error) {
	return CanonicalBytes(signingRecord{
		Type:      uint8(t.Type),
		TicketID:  t.TicketID,
		EventID:   t.EventID,
		From:      compact(t.From),
		To:        compact(t.To),
		Timestamp: t.Timestamp,
	})
}

// GetTransactionBytes returns the canonical encoding including the signature.
func GetTransactionBytes(t *model.Transaction) ([]byte, error) {
	return CanonicalBytes(signedRecord{
		Type:      uint8(t.Type),
		TicketID:  t.TicketID,
		EventID:   t.EventID,
		From:      compact(t.From),
		To:        compact(t.To),
		Timestamp: t.Timestamp,
		Signature: compact(t.Signature),
	})
}

// HashTransaction is the hex sha256 of the signed encoding. Used as the transaction id.
func HashTransaction(t *model.Transaction) (string, error) {
	data, err := GetTransactionBytes(t)
	if err != nil {
		return "", err
	}
	return BytesToHex(SHA256(data)), nil
}

// ReplayKey is the hex sha256 of the unsigned encoding. Two transactions with the same content
// share it whatever their signature bytes are.
func ReplayKey(t *model.Transaction) (string, error) {
	data, err := GetTransactionDataToSign(t)
	if err != nil {
		return "", err
	}
	return BytesToHex(SHA256(data)), nil
}

// SignTransaction validates the draft, signs its canonical encoding and returns the signed copy.
// The draft itself is left untouched.
func SignTransaction(draft model.Transaction, sk *ecdsa.PrivateKey) (model.Transaction, error) {
	if err := ValidateDraft(&draft); err != nil {
		return model.Transaction{}, err
	}
	msg, err := GetTransactionDataToSign(&draft)
	if err != nil {
		return model.Transaction{}, err
	}
	sig, err := Sign(msg, sk)
	if err != nil {
		return model.Transaction{}, err
	}
	draft.Signature = sig
	return draft, nil
}

// VerifyTransaction checks structural well-formedness and signature authenticity. Issue transactions
// are checked against the issuing authority key, everything else against the sender.
// Ledger state is not consulted here.
func VerifyTransaction(t *model.Transaction, authority model.PublicKey) error {
	if err := ValidateDraft(t); err != nil {
		return err
	}
	signer := t.From
	if t.Type == model.TxIssue {
		signer = authority
	}
	msg, err := GetTransactionDataToSign(t)
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrInvalidSignature, err)
	}
	if !Verify(msg, signer, t.Signature) {
		return fmt.Errorf("%w: %s of ticket %s", model.ErrInvalidSignature, t.Type, t.TicketID)
	}
	return nil
}
