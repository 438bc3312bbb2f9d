package ledger

import (
	"crypto/ecdsa"

	"github.com/Luismorlan/ticket_chain/model"
	"github.com/Luismorlan/ticket_chain/utils"
	uuid "github.com/satori/go.uuid"
)

// NewTicketID returns a fresh random ticket id.
func NewTicketID() string {
	return uuid.NewV4().String()
}

// IssueTicket builds and signs, but does not submit, an issue transaction handing a new ticket
// for eventID to owner. An empty ticketID gets a fresh uuid.
func IssueTicket(eventID string, issuer *ecdsa.PrivateKey, ticketID string, owner model.PublicKey, timestamp int64) (model.Transaction, error) {
	if ticketID == "" {
		ticketID = NewTicketID()
	}
	return utils.SignTransaction(utils.NewIssueDraft(ticketID, eventID, owner, timestamp), issuer)
}

// TransferTicket builds and signs a transfer from the holder of owner to receiver.
func TransferTicket(ticketID string, owner *ecdsa.PrivateKey, receiver model.PublicKey, timestamp int64) (model.Transaction, error) {
	from, err := utils.PublicKeyToBytes(&owner.PublicKey)
	if err != nil {
		return model.Transaction{}, err
	}
	return utils.SignTransaction(utils.NewTransferDraft(ticketID, from, receiver, timestamp), owner)
}

// RedeemTicket builds and signs a redeem by the holder of owner.
func RedeemTicket(ticketID string, owner *ecdsa.PrivateKey, timestamp int64) (model.Transaction, error) {
	from, err := utils.PublicKeyToBytes(&owner.PublicKey)
	if err != nil {
		return model.Transaction{}, err
	}
	return utils.SignTransaction(utils.NewRedeemDraft(ticketID, from, timestamp), owner)
}
