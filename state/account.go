// Package state holds the account-based chain state (C6): accounts,
// puzzle-solution records, and the tick certificate shape, plus the
// iteration/tick conversions shared by the tick processor.
package state

// Account is one address's balance, nonce, and delegation record.
type Account struct {
	Balance       uint64
	Nonce         uint64
	StakedAmount  uint64
	Delegation    *[32]byte
}

// NewAccount returns a zeroed account.
func NewAccount() Account {
	return Account{}
}
