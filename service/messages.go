package service

import "github.com/Luismorlan/ticket_chain/model"

type SubmitRequest struct {
	Tx *model.Transaction `json:"tx"`
}

func (r *SubmitRequest) GetTx() *model.Transaction {
	if r == nil {
		return nil
	}
	return r.Tx
}

type SubmitResponse struct {
	// Id of the admitted transaction.
	TxHash  string `json:"tx_hash"`
	Pending int    `json:"pending"`
}

type MineRequest struct {
	// Block timestamp in unix seconds, 0 for the node's clock.
	Timestamp int64 `json:"timestamp,omitempty"`
}

type MineResponse struct {
	Block *model.Block `json:"block"`
}

type GetTicketRequest struct {
	TicketID string `json:"ticket_id"`
	// Also apply the pending pool on top of the chain.
	IncludePending bool `json:"include_pending,omitempty"`
}

type GetTicketResponse struct {
	Ticket model.Ticket `json:"ticket"`
	// Whether the ticket can still be used at the gate.
	Valid bool `json:"valid"`
}

type GetHistoryRequest struct {
	TicketID string `json:"ticket_id"`
}

type GetHistoryResponse struct {
	Transactions []model.Transaction `json:"transactions"`
}

type ExportChainRequest struct{}

type ExportChainResponse struct {
	Blocks []model.Block `json:"blocks"`
}

type ImportChainRequest struct {
	Blocks []model.Block `json:"blocks"`
}

type ImportChainResponse struct {
	Adopted bool `json:"adopted"`
	Height  int  `json:"height"`
}
