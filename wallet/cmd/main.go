package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/Luismorlan/ticket_chain/commands"
	"github.com/Luismorlan/ticket_chain/wallet"
	flag "github.com/spf13/pflag"
)

var (
	keyPath       = flag.String("key_path", "/tmp/mykey.pem", "PEM file path for your private key")
	issuerKeyPath = flag.String("issuer_key_path", "", "issuer private key, only needed to issue tickets")
	nodeAddr      = flag.String("node_addr", "", "ledger node to connect to at start, as ip:port")
)

func main() {
	flag.Parse()
	fmt.Println("keyPath is", *keyPath)

	w, err := wallet.NewWallet(*keyPath, *issuerKeyPath, os.Stdout)
	if err != nil {
		log.Fatalln(err)
	}
	defer w.Close()
	w.Log("Wallet public key: " + w.GetPublicKey())

	if *nodeAddr != "" {
		host, port, ok := strings.Cut(*nodeAddr, ":")
		if !ok {
			log.Fatalf("node_addr %q is not ip:port", *nodeAddr)
		}
		if err := w.SetLedgerConnection(host, port); err != nil {
			log.Fatalln(err)
		}
	}

	cmd := make(chan commands.ClientCommand)
	go ParseCommand(cmd)
	HandleCommand(cmd, w)
}

// Parse command from stdio.
func ParseCommand(cmd chan commands.ClientCommand) {
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("> ")
		text, err := reader.ReadString('\n')
		if err != nil {
			close(cmd)
			return
		}
		c, err := commands.CreateClientCommand(strings.TrimSpace(text))
		if err != nil {
			log.Println(err)
			continue
		}
		cmd <- c
	}
}

func HandleCommand(cmd chan commands.ClientCommand, w *wallet.Wallet) {
	for c := range cmd {
		switch c.Op {
		case commands.MY_PK:
			w.Log("\n===============DO NOT COPY THIS LINE================\n" + w.GetPublicKey() + "\n===============DO NOT COPY THIS LINE================")
		case commands.CONNECT:
			ipAddr := c.Args[0]
			port := c.Args[1]
			if err := w.SetLedgerConnection(ipAddr, port); err != nil {
				w.Log("failed to connect to ledger endpoint " + ipAddr + ":" + port)
				continue
			}
			w.Log("connected ledger endpoint " + ipAddr + ":" + port)
		case commands.ISSUE:
			ticketID := ""
			if len(c.Args) == 3 {
				ticketID = c.Args[2]
			}
			id, err := w.Issue(c.Args[0], c.Args[1], ticketID)
			if err != nil {
				w.Log("fail to issue ticket: " + err.Error())
				continue
			}
			w.Log("issued ticket " + id)
		case commands.TRANSFER:
			if err := w.Transfer(c.Args[0], c.Args[1]); err != nil {
				w.Log("fail to transfer ticket: " + err.Error())
				continue
			}
			w.Log("successfully sent transfer of " + c.Args[0])
		case commands.REDEEM:
			if err := w.Redeem(c.Args[0]); err != nil {
				w.Log("fail to redeem ticket: " + err.Error())
				continue
			}
			w.Log("successfully sent redeem of " + c.Args[0])
		case commands.TICKET:
			res, err := w.GetTicket(c.Args[0])
			if err != nil {
				w.Log("fail to get ticket: " + err.Error())
				continue
			}
			w.Log(fmt.Sprintf("ticket %s event %s owner %s status %s valid %t",
				res.Ticket.TicketID, res.Ticket.EventID, res.Ticket.Owner, res.Ticket.Status, res.Valid))
		case commands.HISTORY:
			txs, err := w.History(c.Args[0])
			if err != nil {
				w.Log("fail to get history: " + err.Error())
				continue
			}
			for _, tx := range txs {
				w.Log(fmt.Sprintf("%d %s from %s to %s", tx.Timestamp, tx.Type, tx.From, tx.To))
			}
		default:
			w.Log(fmt.Sprintf("Unimplemented command: %d", c.Op))
		}
	}
}
