package model

import "context"

// Transactor runs fn inside a single store transaction.
// The UserStore passed to fn is bound to that transaction. Returning an error from fn rolls it back.
// Conflicts with concurrent transactions are reported as ErrTxConflict.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context, users UserStore) error) error
}
