package ledger

import (
	"errors"
	"fmt"
	"vaultd/util"
)

var (
	// ErrZeroAmount is returned when a mutation carries a zero amount.
	ErrZeroAmount = errors.New("amount must be greater than zero")

	// ErrInsufficientBalance is returned when a withdrawal exceeds the
	// stored balance of the (account, asset) pair.
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// Kind tags a mutation as deposit or withdraw.
type Kind int

// Mutation kinds.
const (
	Deposit Kind = iota + 1
	Withdraw
)

// Mutation describes one balance change request.
type Mutation struct {
	Kind    Kind
	Account string
	Asset   string
	// Amount is denominated in the asset's own native precision.
	Amount uint64
	// Value is the accounting value of Amount at the rate in effect
	// when the mutation is applied.
	Value uint64
}

// Receipt records an applied mutation together with the exact state
// delta, so a failed transfer can be reverted precisely.
type Receipt struct {
	Mutation
	NewBalance uint64

	// valueDelta is the change actually applied to the running total.
	// It differs from Value only when a withdrawal clamps at zero.
	valueDelta uint64
}

// Ledger owns per-account, per-asset balances plus the running total of
// deposited accounting value. The total is an independent counter, not
// a sum over balances: deposits add value at deposit-time rate and
// withdrawals subtract at withdrawal-time rate, so the two can drift
// apart when rates move.
//
// Ledger performs no cap or limit enforcement and is not safe for
// concurrent use; the vault service serializes every operation.
type Ledger struct {
	balances map[string]map[uint]uint64

	// Asset ids are interned to small integers to keep
	// the balance maps compact.
	assetAlias aliasTable
	total      uint64
}

type aliasTable struct {
	ids   map[string]uint
	maxID uint
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{
		balances:   make(map[string]map[uint]uint64),
		assetAlias: aliasTable{ids: make(map[string]uint)},
	}
}

// Apply validates and applies one mutation, returning a receipt that
// can be handed back to Revert.
func (l *Ledger) Apply(m Mutation) (Receipt, error) {
	if m.Amount == 0 {
		return Receipt{}, ErrZeroAmount
	}

	switch m.Kind {
	case Deposit:
		return l.deposit(m), nil
	case Withdraw:
		return l.withdraw(m)
	default:
		panic(fmt.Sprintf("unknown mutation kind: %d", m.Kind))
	}
}

func (l *Ledger) deposit(m Mutation) Receipt {
	balance := l.balanceOf(m.Account, m.Asset)

	// Overflow here means the vault passed an economically unreachable
	// scale under correct limits. Not recoverable.
	newBalance, ok := util.AddUint64(balance, m.Amount)
	if !ok {
		panic(fmt.Sprintf("balance overflow: account=%s asset=%s balance=%d amount=%d",
			m.Account, m.Asset, balance, m.Amount))
	}

	newTotal, ok := util.AddUint64(l.total, m.Value)
	if !ok {
		panic(fmt.Sprintf("total deposited value overflow: total=%d value=%d",
			l.total, m.Value))
	}

	l.setBalance(m.Account, m.Asset, newBalance)
	l.total = newTotal

	return Receipt{Mutation: m, NewBalance: newBalance, valueDelta: m.Value}
}

func (l *Ledger) withdraw(m Mutation) (Receipt, error) {
	balance := l.balanceOf(m.Account, m.Asset)

	// Re-checked here regardless of what the caller validated.
	if m.Amount > balance {
		return Receipt{}, ErrInsufficientBalance
	}

	// Withdrawals are valued at the current rate, not the deposit-time
	// rate, so under rate drift the value can exceed what deposits
	// accumulated. The deduction clamps at zero.
	delta := m.Value
	if delta > l.total {
		delta = l.total
	}

	newBalance := balance - m.Amount
	l.setBalance(m.Account, m.Asset, newBalance)
	l.total -= delta

	return Receipt{Mutation: m, NewBalance: newBalance, valueDelta: delta}, nil
}

// Revert undoes an applied mutation. It must only be called with a
// receipt returned by Apply, with no mutation in between.
func (l *Ledger) Revert(r Receipt) {
	balance := l.balanceOf(r.Account, r.Asset)

	switch r.Kind {
	case Deposit:
		newBalance, ok := util.SubUint64(balance, r.Amount)
		if !ok {
			panic(fmt.Sprintf("revert underflow: account=%s asset=%s balance=%d amount=%d",
				r.Account, r.Asset, balance, r.Amount))
		}
		total, ok := util.SubUint64(l.total, r.valueDelta)
		if !ok {
			panic(fmt.Sprintf("revert total underflow: total=%d delta=%d", l.total, r.valueDelta))
		}
		l.setBalance(r.Account, r.Asset, newBalance)
		l.total = total

	case Withdraw:
		newBalance, ok := util.AddUint64(balance, r.Amount)
		if !ok {
			panic(fmt.Sprintf("revert overflow: account=%s asset=%s balance=%d amount=%d",
				r.Account, r.Asset, balance, r.Amount))
		}
		total, ok := util.AddUint64(l.total, r.valueDelta)
		if !ok {
			panic(fmt.Sprintf("revert total overflow: total=%d delta=%d", l.total, r.valueDelta))
		}
		l.setBalance(r.Account, r.Asset, newBalance)
		l.total = total

	default:
		panic(fmt.Sprintf("unknown mutation kind: %d", r.Kind))
	}
}

// BalanceOf returns the stored balance, 0 for unseen pairs.
func (l *Ledger) BalanceOf(account, assetID string) uint64 {
	return l.balanceOf(account, assetID)
}

// TotalDepositedValue returns the running total in accounting units.
func (l *Ledger) TotalDepositedValue() uint64 {
	return l.total
}

// Restore sets a balance directly. Used when reloading persisted state
// at startup, never during normal operation.
func (l *Ledger) Restore(account, assetID string, balance uint64) {
	l.setBalance(account, assetID, balance)
}

// RestoreTotal sets the running total directly. Startup only.
func (l *Ledger) RestoreTotal(total uint64) {
	l.total = total
}

func (l *Ledger) balanceOf(account, assetID string) uint64 {
	assets, ok := l.balances[account]
	if !ok {
		return 0
	}

	return assets[l.alias(assetID)]
}

func (l *Ledger) setBalance(account, assetID string, balance uint64) {
	assets, ok := l.balances[account]
	if !ok {
		assets = make(map[uint]uint64)
		l.balances[account] = assets
	}

	assets[l.alias(assetID)] = balance
}

func (l *Ledger) alias(assetID string) uint {
	if alias, ok := l.assetAlias.ids[assetID]; ok {
		return alias
	}

	l.assetAlias.maxID++
	l.assetAlias.ids[assetID] = l.assetAlias.maxID
	return l.assetAlias.maxID
}
