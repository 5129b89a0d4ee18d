package wallet

import "errors"

var (
	// ErrUserCancelled means the user declined the connection or signature in
	// their wallet. A normal termination, not a failure.
	ErrUserCancelled = errors.New("user cancelled wallet authorization")

	// ErrNoSession means no wallet is connected.
	ErrNoSession = errors.New("no active wallet session")

	// ErrNoTransactor means the active identity source can authenticate but
	// cannot sign transactions from this process.
	ErrNoTransactor = errors.New("active wallet session cannot sign transactions")
)
