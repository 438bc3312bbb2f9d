package ledger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/Luismorlan/ticket_chain/model"
	"github.com/Luismorlan/ticket_chain/service"
	"github.com/Luismorlan/ticket_chain/store"
	"github.com/Luismorlan/ticket_chain/utils"
	"github.com/Luismorlan/ticket_chain/visualize"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// LedgerServer exposes a Ledger over gRPC and keeps its store in step with the chain.
type LedgerServer struct {
	service.UnimplementedLedgerServiceServer

	ledger *Ledger
	// Nil means nothing is persisted.
	store  store.Store
	logger *slog.Logger
	now    func() time.Time

	// Serializes saves so an older chain never overwrites a newer one.
	pm sync.Mutex

	// Background miner control.
	mm         sync.Mutex
	stopMining context.CancelFunc
	miningDone chan struct{}
}

func NewLedgerServer(l *Ledger, s store.Store, logger *slog.Logger) *LedgerServer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &LedgerServer{
		ledger: l,
		store:  s,
		logger: logger,
		now:    time.Now,
	}
}

func (sev *LedgerServer) Ledger() *Ledger {
	return sev.ledger
}

// toStatus maps ledger errors onto gRPC codes. Rejections keep their message so clients can
// tell the reasons apart.
func toStatus(err error) error {
	var chainErr *model.ChainError
	switch {
	case err == nil:
		return nil
	case errors.Is(err, model.ErrTicketNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, model.ErrInvalidDraft), errors.Is(err, model.ErrInvalidSignature):
		return status.Error(codes.InvalidArgument, err.Error())
	case model.IsRejection(err):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.As(err, &chainErr):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	case errors.Is(err, model.ErrMiningCanceled):
		return status.Error(codes.Aborted, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// Submit admits a transaction to the pending pool.
func (sev *LedgerServer) Submit(ctx context.Context, req *service.SubmitRequest) (*service.SubmitResponse, error) {
	tx := req.GetTx()
	if tx == nil {
		return nil, status.Error(codes.InvalidArgument, "input transaction is nil")
	}
	if err := sev.ledger.SubmitTransaction(*tx); err != nil {
		return nil, toStatus(err)
	}
	hash, err := utils.HashTransaction(tx)
	if err != nil {
		return nil, toStatus(err)
	}
	return &service.SubmitResponse{TxHash: hash, Pending: len(sev.ledger.Pending())}, nil
}

// Mine seals one block. The search stops when the caller goes away.
func (sev *LedgerServer) Mine(ctx context.Context, req *service.MineRequest) (*service.MineResponse, error) {
	block, err := sev.MineOnce(ctx, req.Timestamp)
	if err != nil {
		return nil, toStatus(err)
	}
	return &service.MineResponse{Block: block}, nil
}

// MineOnce seals one block at ts, or at the server clock when ts is 0, and persists the chain.
func (sev *LedgerServer) MineOnce(ctx context.Context, ts int64) (*model.Block, error) {
	if ts == 0 {
		ts = sev.now().Unix()
	}
	block, err := sev.ledger.MineBlock(ctx, ts)
	if err != nil {
		return nil, err
	}
	sev.persist()
	return block, nil
}

func (sev *LedgerServer) GetTicket(ctx context.Context, req *service.GetTicketRequest) (*service.GetTicketResponse, error) {
	var ticket model.Ticket
	var err error
	if req.IncludePending {
		ticket, err = sev.ledger.PendingTicket(req.TicketID)
	} else {
		ticket, err = sev.ledger.GetTicket(req.TicketID)
	}
	if err != nil {
		return nil, toStatus(err)
	}
	return &service.GetTicketResponse{Ticket: ticket, Valid: ticket.Valid()}, nil
}

func (sev *LedgerServer) GetHistory(ctx context.Context, req *service.GetHistoryRequest) (*service.GetHistoryResponse, error) {
	return &service.GetHistoryResponse{Transactions: sev.ledger.TicketHistory(req.TicketID)}, nil
}

func (sev *LedgerServer) ExportChain(ctx context.Context, req *service.ExportChainRequest) (*service.ExportChainResponse, error) {
	blocks, err := sev.ledger.ExportChain()
	if err != nil {
		return nil, toStatus(err)
	}
	return &service.ExportChainResponse{Blocks: blocks}, nil
}

// ImportChain offers a candidate chain. An invalid candidate is an error, a valid but not longer
// one is simply not adopted.
func (sev *LedgerServer) ImportChain(ctx context.Context, req *service.ImportChainRequest) (*service.ImportChainResponse, error) {
	adopted, err := sev.Import(req.Blocks)
	if err != nil {
		return nil, toStatus(err)
	}
	return &service.ImportChainResponse{Adopted: adopted, Height: sev.ledger.Height()}, nil
}

// Import hands blocks to the ledger and persists the chain if it was adopted.
func (sev *LedgerServer) Import(blocks []model.Block) (bool, error) {
	adopted, err := sev.ledger.ImportChain(blocks)
	if err != nil {
		return false, err
	}
	if adopted {
		sev.persist()
	}
	return adopted, nil
}

// Restore adopts whatever chain the store holds. An empty store is not an error.
func (sev *LedgerServer) Restore() error {
	if sev.store == nil {
		return nil
	}
	blocks, err := sev.store.Load()
	if err != nil {
		return err
	}
	if len(blocks) == 0 {
		return nil
	}
	if _, err := sev.ledger.ImportChain(blocks); err != nil {
		return fmt.Errorf("stored chain rejected: %w", err)
	}
	sev.logger.Info("chain restored", "height", sev.ledger.Height())
	return nil
}

// persist saves the current chain. Failures are logged, the in-memory chain stays authoritative.
func (sev *LedgerServer) persist() {
	if sev.store == nil {
		return
	}
	sev.pm.Lock()
	defer sev.pm.Unlock()
	blocks, err := sev.ledger.ExportChain()
	if err == nil {
		err = sev.store.Save(blocks)
	}
	if err != nil {
		sev.logger.Error("failed to persist chain", "error", err)
	}
}

// StartMining runs the background miner every interval until StopMining.
func (sev *LedgerServer) StartMining(interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("mining interval must be positive, got %v", interval)
	}
	sev.mm.Lock()
	defer sev.mm.Unlock()
	if sev.stopMining != nil {
		return errors.New("mining has already been started")
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	sev.stopMining = cancel
	sev.miningDone = done
	go func() {
		defer close(done)
		sev.ledger.RunMiner(ctx, interval, sev.now, func(b *model.Block) {
			sev.logger.Info("mined block", "index", b.Index, "hash", utils.ShortenHex(b.Hash), "txs", len(b.Txs))
			sev.persist()
		})
	}()
	return nil
}

// StopMining stops the background miner, abandoning the block it is searching for, and waits
// for it to exit.
func (sev *LedgerServer) StopMining() error {
	sev.mm.Lock()
	defer sev.mm.Unlock()
	if sev.stopMining == nil {
		return errors.New("no running mining task to stop")
	}
	sev.stopMining()
	<-sev.miningDone
	sev.stopMining = nil
	sev.miningDone = nil
	return nil
}

func (sev *LedgerServer) IsMining() bool {
	sev.mm.Lock()
	defer sev.mm.Unlock()
	return sev.stopMining != nil
}

// ExportToFile writes the chain as a JSON document.
func (sev *LedgerServer) ExportToFile(path string) error {
	blocks, err := sev.ledger.ExportChain()
	if err != nil {
		return err
	}
	data, err := store.EncodeChain(blocks)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ImportFromFile offers the chain in a JSON document.
func (sev *LedgerServer) ImportFromFile(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	blocks, err := store.DecodeChain(data)
	if err != nil {
		return false, err
	}
	return sev.Import(blocks)
}

// Show writes the dot graph of the last d blocks to w.
func (sev *LedgerServer) Show(w io.Writer, d int) error {
	blocks, err := sev.ledger.ExportChain()
	if err != nil {
		return err
	}
	return visualize.Render(w, blocks, d)
}

// ShowPNG renders the last d blocks to an image with the dot binary and returns its path.
func (sev *LedgerServer) ShowPNG(d int) (string, error) {
	blocks, err := sev.ledger.ExportChain()
	if err != nil {
		return "", err
	}
	tip := blocks[len(blocks)-1].Hash
	return visualize.RenderPNG(blocks, d, fmt.Sprintf("%d-%s", len(blocks), tip[:8]))
}
