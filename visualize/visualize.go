package visualize

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/Luismorlan/ticket_chain/model"
	"github.com/Luismorlan/ticket_chain/utils"
	"github.com/bradleyjkemp/memviz"
)

// We re-define the rendered model here because the raw blocks carry full keys and signatures
// that only clutter the graph.
type transaction struct {
	kind     string
	ticketID string
	eventID  string
	from     string
	to       string
}

type block struct {
	index     int64
	hash      string
	prevHash  string
	nonce     int64
	timestamp int64
	txs       []transaction
	next      *block
}

// The string of public key is just too long to render, keep only the middle part, which unlike
// the PKIX prefix differs between keys.
func shortenPK(pk model.PublicKey) string {
	s := pk.String()
	if len(s) < 9 {
		return s
	}
	mid := len(s) / 2
	return fmt.Sprintf("...%s...", s[mid-1:mid+2])
}

func txToTx(tx *model.Transaction) transaction {
	return transaction{
		kind:     tx.Type.String(),
		ticketID: tx.TicketID,
		eventID:  tx.EventID,
		from:     shortenPK(tx.From),
		to:       shortenPK(tx.To),
	}
}

func blockToBlock(b *model.Block) *block {
	n := &block{
		index:     b.Index,
		hash:      utils.ShortenHex(b.Hash),
		prevHash:  utils.ShortenHex(b.PrevHash),
		nonce:     b.Nonce,
		timestamp: b.Timestamp,
	}
	for i := range b.Txs {
		n.txs = append(n.txs, txToTx(&b.Txs[i]))
	}
	return n
}

// constructData links the last d blocks of the chain, oldest first.
func constructData(blocks []model.Block, d int) *block {
	start := len(blocks) - d
	if d <= 0 || start < 0 {
		start = 0
	}
	var head, tail *block
	for i := start; i < len(blocks); i++ {
		n := blockToBlock(&blocks[i])
		if head == nil {
			head = n
		} else {
			tail.next = n
		}
		tail = n
	}
	return head
}

// Render writes the Graphviz dot graph of the last d blocks of a chain to w.
func Render(w io.Writer, blocks []model.Block, d int) error {
	chain := constructData(blocks, d)
	if chain == nil {
		return fmt.Errorf("nothing to render")
	}
	memviz.Map(w, chain)
	return nil
}

// RenderPNG renders the chain to a dot file and converts it with the dot binary, which must be
// on PATH. Returns the path of the image.
func RenderPNG(blocks []model.Block, d int, id string) (string, error) {
	buf := &bytes.Buffer{}
	if err := Render(buf, blocks, d); err != nil {
		return "", err
	}
	fileName := os.TempDir() + "/chaindata-" + id
	outputName := os.TempDir() + "/rendered-chain-" + id + ".png"
	if err := os.WriteFile(fileName, buf.Bytes(), 0644); err != nil {
		return "", err
	}
	if out, err := exec.Command("dot", "-Tpng", fileName, "-o", outputName).CombinedOutput(); err != nil {
		return "", fmt.Errorf("dot: %v: %s", err, out)
	}
	return outputName, nil
}
