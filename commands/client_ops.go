package commands

import (
	"encoding/hex"
	"errors"
	"net"
	"regexp"
	"strings"
)

const PORT_REGEX = "^[0-9]{4,5}$"

var portRegex = regexp.MustCompile(PORT_REGEX)

const (
	// do nothing operation
	NOOP = iota
	// Print user public key
	MY_PK
	// Connect a ledger node with ip address and port
	CONNECT
	// Issue a ticket for an event to an owner. Needs the issuer key.
	ISSUE
	// Hand one of my tickets to another public key.
	TRANSFER
	// Consume one of my tickets.
	REDEEM
	// Look up the state of a ticket.
	TICKET
	// List committed transactions of a ticket.
	HISTORY
)

type ClientCommand struct {
	Op   Operation
	Args []string
}

func isPublicKeyHex(s string) bool {
	b, err := hex.DecodeString(s)
	return err == nil && len(b) > 0
}

func (c ClientCommand) IsValid() bool {
	switch c.Op {
	case MY_PK:
		return len(c.Args) == 0
	case CONNECT:
		if len(c.Args) != 2 {
			return false
		}
		ip := net.ParseIP(c.Args[0])
		return (ip != nil || c.Args[0] == "localhost") && portRegex.MatchString(c.Args[1])
	case ISSUE:
		// issue <event_id> <owner_pk> [ticket_id]
		if len(c.Args) != 2 && len(c.Args) != 3 {
			return false
		}
		return c.Args[0] != "" && isPublicKeyHex(c.Args[1])
	case TRANSFER:
		// transfer <ticket_id> <receiver_pk>
		return len(c.Args) == 2 && isPublicKeyHex(c.Args[1])
	case REDEEM, TICKET, HISTORY:
		return len(c.Args) == 1
	default:
		return false
	}
}

func CreateClientCommand(s string) (ClientCommand, error) {
	ss := strings.Fields(s)
	if len(ss) == 0 {
		return ClientCommand{}, errors.New("command is empty")
	}
	cmd := ClientCommand{}
	switch ss[0] {
	case "my_pk":
		cmd.Op = MY_PK
	case "connect":
		cmd.Op = CONNECT
	case "issue":
		cmd.Op = ISSUE
	case "transfer":
		cmd.Op = TRANSFER
	case "redeem":
		cmd.Op = REDEEM
	case "ticket":
		cmd.Op = TICKET
	case "history":
		cmd.Op = HISTORY
	default:
		cmd.Op = NOOP
	}
	cmd.Args = ss[1:]
	if !cmd.IsValid() {
		return ClientCommand{}, errors.New("invalid command")
	}
	return cmd, nil
}
