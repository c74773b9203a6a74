package db

import (
	"database/sql"
	"time"
	"vaultd/ledger"
)

// Sink mirrors committed vault events into mysql: an append-only event
// journal, the balance table, and the counter row. The in-memory ledger
// stays authoritative; the mirror is what survives a restart.
//
// Events are delivered inside the vault's operation lock, so reading
// the ledger total here is consistent with the event being recorded.
type Sink struct {
	led *ledger.Ledger
}

// NewSink returns a sink mirroring the given ledger.
func NewSink(led *ledger.Ledger) *Sink {
	return &Sink{led: led}
}

// DepositCompleted implements the vault event sink.
func (s *Sink) DepositCompleted(account, assetID string, amount, value uint64) {
	err := transact(func(tx *sql.Tx) error {
		if err := insertEvent(tx, "deposit", account, assetID, amount, value); err != nil {
			return err
		}
		return updateCounter(tx, s.led.TotalDepositedValue(), 1, 0)
	})
	if err != nil {
		panic(err)
	}
}

// WithdrawCompleted implements the vault event sink.
func (s *Sink) WithdrawCompleted(account, assetID string, amount uint64) {
	err := transact(func(tx *sql.Tx) error {
		if err := insertEvent(tx, "withdraw", account, assetID, amount, 0); err != nil {
			return err
		}
		return updateCounter(tx, s.led.TotalDepositedValue(), 0, 1)
	})
	if err != nil {
		panic(err)
	}
}

// BalanceChanged implements the vault event sink.
func (s *Sink) BalanceChanged(account, assetID string, newBalance uint64) {
	err := transact(func(tx *sql.Tx) error {
		return upsertBalance(tx, account, assetID, newBalance)
	})
	if err != nil {
		panic(err)
	}
}

func insertEvent(tx *sql.Tx, kind, account, assetID string, amount, value uint64) error {
	const query = "INSERT INTO `vault_event` (`kind`, `account`, `asset_id`, `amount`, `accounting_value`, `created_at`) VALUES (?, ?, ?, ?, ?, ?)"

	_, err := tx.Exec(query, kind, account, assetID, amount, value, time.Now().Unix())
	return err
}

// RestoreLedger loads the mirrored balances and running total into an
// empty ledger at startup.
func RestoreLedger(led *ledger.Ledger) {
	for _, row := range GetBalances() {
		led.Restore(row.Account, row.AssetID, row.Balance)
	}

	led.RestoreTotal(GetTotalDepositedValue())
}
