package wallet

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/Luismorlan/ticket_chain/ledger"
	"github.com/Luismorlan/ticket_chain/model"
	"github.com/Luismorlan/ticket_chain/service"
	"github.com/Luismorlan/ticket_chain/utils"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const rpcTimeout = 10 * time.Second

var ErrNotConnected = errors.New("wallet is not connected to a ledger node")

// User signs ticket transactions and sends them to a ledger node.
type Wallet struct {
	keys *ecdsa.PrivateKey
	// Only the organizer's wallet holds the issuing authority key.
	issuer *ecdsa.PrivateKey

	client service.LedgerServiceClient
	conn   *grpc.ClientConn

	out io.Writer
	now func() time.Time
}

// NewWallet loads the owner key at keyPath, generating one if the file is missing.
// issuerKeyPath may be empty for wallets that never issue.
func NewWallet(keyPath, issuerKeyPath string, out io.Writer) (*Wallet, error) {
	keys, err := utils.ParseKeyFile(keyPath, false)
	if err != nil {
		return nil, err
	}
	w := &Wallet{keys: keys, out: out, now: time.Now}
	if issuerKeyPath != "" {
		if w.issuer, err = utils.ReadKeyFromFPath(issuerKeyPath); err != nil {
			return nil, fmt.Errorf("reading issuer key: %w", err)
		}
	}
	if w.out == nil {
		w.out = os.Stdout
	}
	return w, nil
}

func (w *Wallet) SetLedgerConnection(ipAddr string, port string) error {
	conn, err := grpc.NewClient(net.JoinHostPort(ipAddr, port),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return err
	}
	w.Close()
	w.conn = conn
	w.client = service.NewLedgerServiceClient(conn)
	return nil
}

// SetClient talks through an existing client instead of dialing.
func (w *Wallet) SetClient(client service.LedgerServiceClient) {
	w.client = client
}

func (w *Wallet) Close() error {
	if w.conn == nil {
		return nil
	}
	err := w.conn.Close()
	w.conn = nil
	w.client = nil
	return err
}

func (w *Wallet) PublicKey() model.PublicKey {
	pk, _ := utils.PublicKeyToBytes(&w.keys.PublicKey)
	return pk
}

// GetPublicKey returns the hex public key others transfer tickets to.
func (w *Wallet) GetPublicKey() string {
	return w.PublicKey().String()
}

func (w *Wallet) Log(msg string) {
	fmt.Fprintln(w.out, msg)
}

func (w *Wallet) SendTransaction(tx *model.Transaction) (string, error) {
	if w.client == nil {
		return "", ErrNotConnected
	}
	ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
	defer cancel()
	res, err := w.client.Submit(ctx, &service.SubmitRequest{Tx: tx})
	if err != nil {
		return "", err
	}
	return res.TxHash, nil
}

// Issue creates a ticket for eventID owned by ownerPK. An empty ticketID gets a fresh one.
// Returns the ticket id.
func (w *Wallet) Issue(eventID, ownerPK, ticketID string) (string, error) {
	if w.issuer == nil {
		return "", errors.New("this wallet holds no issuer key")
	}
	owner, err := utils.HexToBytes(ownerPK)
	if err != nil {
		return "", fmt.Errorf("failed to parse owner public key: %w", err)
	}
	tx, err := ledger.IssueTicket(eventID, w.issuer, ticketID, owner, w.now().Unix())
	if err != nil {
		return "", err
	}
	if _, err := w.SendTransaction(&tx); err != nil {
		return "", err
	}
	return tx.TicketID, nil
}

func (w *Wallet) Transfer(ticketID, receiverPK string) error {
	receiver, err := utils.HexToBytes(receiverPK)
	if err != nil {
		return fmt.Errorf("failed to parse receiver public key: %w", err)
	}
	tx, err := ledger.TransferTicket(ticketID, w.keys, receiver, w.now().Unix())
	if err != nil {
		return err
	}
	_, err = w.SendTransaction(&tx)
	return err
}

func (w *Wallet) Redeem(ticketID string) error {
	tx, err := ledger.RedeemTicket(ticketID, w.keys, w.now().Unix())
	if err != nil {
		return err
	}
	_, err = w.SendTransaction(&tx)
	return err
}

// GetTicket asks the node for a ticket, the pending pool included.
func (w *Wallet) GetTicket(ticketID string) (*service.GetTicketResponse, error) {
	if w.client == nil {
		return nil, ErrNotConnected
	}
	ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
	defer cancel()
	return w.client.GetTicket(ctx, &service.GetTicketRequest{TicketID: ticketID, IncludePending: true})
}

func (w *Wallet) History(ticketID string) ([]model.Transaction, error) {
	if w.client == nil {
		return nil, ErrNotConnected
	}
	ctx, cancel := context.WithTimeout(context.Background(), rpcTimeout)
	defer cancel()
	res, err := w.client.GetHistory(ctx, &service.GetHistoryRequest{TicketID: ticketID})
	if err != nil {
		return nil, err
	}
	return res.Transactions, nil
}
