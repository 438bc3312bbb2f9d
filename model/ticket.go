package model

import (
	"fmt"
	"strings"
)

type Status uint8

const (
	StatusNone Status = iota
	StatusIssued
	StatusTransferred
	// Terminal, no transaction may follow.
	StatusRedeemed
)

func (s Status) String() string {
	switch s {
	case StatusIssued:
		return "issued"
	case StatusTransferred:
		return "transferred"
	case StatusRedeemed:
		return "redeemed"
	default:
		return "none"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "issued":
		*s = StatusIssued
	case "transferred":
		*s = StatusTransferred
	case "redeemed":
		*s = StatusRedeemed
	case "none", "":
		*s = StatusNone
	default:
		return fmt.Errorf("unknown ticket status %q", string(text))
	}
	return nil
}

// Ticket is the materialized view of one ticket, computed by folding the transaction log.
// It is never stored on its own.
type Ticket struct {
	TicketID string    `json:"ticket_id"`
	EventID  string    `json:"event_id"`
	Owner    PublicKey `json:"owner"`
	Status   Status    `json:"status"`
}

// Valid reports whether the ticket can still be used at the gate.
func (t Ticket) Valid() bool {
	return t.Status == StatusIssued || t.Status == StatusTransferred
}
