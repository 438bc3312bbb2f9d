package utils

import (
	"github.com/fxamacker/cbor/v2"
)

// encMode uses Core Deterministic Encoding (RFC 8949 §4.2), so the same logical record always
// encodes to the same bytes. Signatures and block hashes are computed over this encoding.
var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("utils: CBOR encoder initialization failed: " + err.Error())
	}
}

// CanonicalBytes encodes v with the deterministic encoder.
func CanonicalBytes(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// signingRecord is the ordered tuple a transaction signature covers.
type signingRecord struct {
	_         struct{} `cbor:",toarray"`
	Type      uint8
	TicketID  string
	EventID   string
	From      []byte
	To        []byte
	Timestamp int64
}

// signedRecord is signingRecord plus the signature, used when a transaction is hashed into a block.
type signedRecord struct {
	_         struct{} `cbor:",toarray"`
	Type      uint8
	TicketID  string
	EventID   string
	From      []byte
	To        []byte
	Timestamp int64
	Signature []byte
}

// blockRecord is the ordered tuple a block hash covers. Transactions are pre-encoded so the
// nonce search only re-encodes the small fixed part.
type blockRecord struct {
	_         struct{} `cbor:",toarray"`
	Index     int64
	PrevHash  []byte
	Txs       cbor.RawMessage
	Nonce     int64
	Timestamp int64
}

// compact maps empty slices to nil. Deterministic CBOR still tells null from an empty byte
// string, and a record must hash the same after a JSON or deep-copy round trip.
func compact(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return b
}
