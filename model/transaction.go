package model

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// PublicKey is the PKIX encoding of an owner's public key. It is the account identifier
// used throughout the ledger and is rendered as hex in JSON.
type PublicKey []byte

func (pk PublicKey) String() string {
	return hex.EncodeToString(pk)
}

// Equal reports whether both keys identify the same owner.
func (pk PublicKey) Equal(other PublicKey) bool {
	return string(pk) == string(other)
}

func (pk PublicKey) MarshalText() ([]byte, error) {
	return []byte(hex.EncodeToString(pk)), nil
}

func (pk *PublicKey) UnmarshalText(text []byte) error {
	b, err := hex.DecodeString(string(text))
	if err != nil {
		return fmt.Errorf("invalid public key hex: %w", err)
	}
	*pk = b
	return nil
}

// TxType is the closed set of transaction variants.
type TxType uint8

const (
	TxUnknown TxType = iota
	// Create a ticket and hand it to its first owner. Signed by the issuing authority.
	TxIssue
	// Move a ticket from its current owner to a new one. Signed by the current owner.
	TxTransfer
	// Consume a ticket at the gate. Signed by the current owner, terminal.
	TxRedeem
)

func (t TxType) String() string {
	switch t {
	case TxIssue:
		return "issue"
	case TxTransfer:
		return "transfer"
	case TxRedeem:
		return "redeem"
	default:
		return "unknown"
	}
}

func ParseTxType(s string) (TxType, error) {
	switch strings.ToLower(s) {
	case "issue":
		return TxIssue, nil
	case "transfer":
		return TxTransfer, nil
	case "redeem":
		return TxRedeem, nil
	}
	return TxUnknown, fmt.Errorf("unknown transaction type %q", s)
}

func (t TxType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TxType) UnmarshalText(text []byte) error {
	v, err := ParseTxType(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

type Transaction struct {
	// Which variant this transaction is.
	Type TxType `json:"type"`
	// The ticket this transaction acts on.
	TicketID string `json:"ticket_id"`
	// Event the ticket admits to. Only set on issue.
	EventID string `json:"event_id,omitempty"`
	// Current owner authorizing the change. Empty on issue, the issuing authority signs instead.
	From PublicKey `json:"from,omitempty"`
	// Receiver of the ticket. Empty on redeem.
	To PublicKey `json:"to,omitempty"`
	// Unix seconds at which the transaction was built.
	Timestamp int64 `json:"timestamp"`
	// ASN.1 ECDSA signature over the canonical encoding of all fields above.
	Signature []byte `json:"signature"`
}

// IsSigned reports whether a signature has been attached. It says nothing about validity.
func (t *Transaction) IsSigned() bool {
	return len(t.Signature) > 0
}
