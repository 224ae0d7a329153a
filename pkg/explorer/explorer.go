package explorer

import "errors"

// ErrTransactionNotFound is returned when the explorer does not know the
// requested transaction yet. Callers treat it as "pending".
var ErrTransactionNotFound = errors.New("transaction not found")

// TxOutput is one output of a looked-up transaction.
type TxOutput struct {
	Address string
	Value   uint64
}

// Tx is the result of a transaction lookup.
type Tx struct {
	Txid      string
	Confirmed bool
	BlockTime int64
	Outputs   []TxOutput
}

// Service is the interface to be implemented by any kind of
// block-explorer-like service for looking up settlement transactions.
type Service interface {
	GetTransaction(txid string) (*Tx, error)
}
