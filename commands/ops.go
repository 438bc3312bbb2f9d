package commands

import (
	"errors"
	"strconv"
	"strings"
)

type Operation int

const (
	// Anything the console does not understand.
	UNKNOWN = iota
	// Start the background miner, runs until explicit stop.
	START
	// Stop the background miner and abandon the block being searched.
	STOP
	// Seal the pending pool into one block right now.
	MINE
	// Render the last n blocks of the chain, as dot text or, with "png", as an image.
	SHOW
	// Write the chain as JSON to a file.
	EXPORT
	// Offer the chain in a JSON file to the ledger, adopted if longer.
	IMPORT
	// List the pending pool.
	PENDING
)

// A command contains a operation and many arguments.
type Command struct {
	Op   Operation
	Args []string
}

func (c Command) IsValid() bool {
	switch c.Op {
	case START, STOP, MINE, PENDING:
		return len(c.Args) == 0
	case SHOW:
		if len(c.Args) == 2 && c.Args[1] != "png" {
			return false
		}
		if len(c.Args) != 1 && len(c.Args) != 2 {
			return false
		}
		// depth must be a positive number.
		d, err := strconv.Atoi(c.Args[0])
		return err == nil && d > 0
	case EXPORT, IMPORT:
		return len(c.Args) == 1 && c.Args[0] != ""
	default:
		return false
	}
}

// From string, create a node console command.
func CreateCommand(s string) (Command, error) {
	ss := strings.Fields(s)
	if len(ss) == 0 {
		return Command{}, errors.New("command is empty")
	}
	cmd := Command{}
	switch ss[0] {
	case "start":
		cmd.Op = START
	case "stop":
		cmd.Op = STOP
	case "mine":
		cmd.Op = MINE
	case "show":
		cmd.Op = SHOW
	case "export":
		cmd.Op = EXPORT
	case "import":
		cmd.Op = IMPORT
	case "pending":
		cmd.Op = PENDING
	default:
		cmd.Op = UNKNOWN
	}
	cmd.Args = ss[1:]
	if !cmd.IsValid() {
		return Command{}, errors.New("invalid command")
	}
	return cmd, nil
}
