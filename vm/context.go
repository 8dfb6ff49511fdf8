package vm

import (
	"crypto/rand"
	"io"

	"github.com/google/uuid"
)

// Transaction carries the ambient execution context for one top-level
// invocation: signer identity, block height and an entropy source. It is
// threaded explicitly into every Step call so the engine stays reentrant.
type Transaction struct {
	ID          uuid.UUID
	Signer      Address
	BlockHeight uint32

	// Entropy backs the rand instruction. Defaults to crypto/rand;
	// tests may install a deterministic reader.
	Entropy io.Reader
}

// NewTransaction builds a transaction context with a fresh ID and the
// operating system entropy source.
func NewTransaction(signer Address, blockHeight uint32) *Transaction {
	return &Transaction{
		ID:          uuid.New(),
		Signer:      signer,
		BlockHeight: blockHeight,
		Entropy:     rand.Reader,
	}
}

// entropy returns the configured entropy reader, defaulting to crypto/rand.
func (tx *Transaction) entropy() io.Reader {
	if tx.Entropy != nil {
		return tx.Entropy
	}
	return rand.Reader
}
