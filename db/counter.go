package db

import (
	"database/sql"
)

// Counter db model. One row mirrors the ledger's running total plus
// per-kind event counts.
type Counter struct {
	ID                  uint
	TotalDepositedValue uint64
	CntDeposit          uint64
	CntWithdraw         uint64
}

// GetTotalDepositedValue returns the mirrored running total.
func GetTotalDepositedValue() uint64 {
	counter := getCounterInstance()
	return counter.TotalDepositedValue
}

func initCounterInstance() Counter {
	c := Counter{
		ID:                  1,
		TotalDepositedValue: 0,
		CntDeposit:          0,
		CntWithdraw:         0,
	}

	const query = "INSERT INTO `counter` (`id`, `total_deposited_value`, `cnt_deposit`, `cnt_withdraw`) VALUES (?, ?, ?, ?)"

	_, err := db.Exec(query,
		c.ID,
		c.TotalDepositedValue,
		c.CntDeposit,
		c.CntWithdraw,
	)
	if err != nil {
		panic(err)
	}

	return c
}

func getCounterInstance() Counter {
	const query = "SELECT `id`, `total_deposited_value`, `cnt_deposit`, `cnt_withdraw` FROM `counter` WHERE `id` = 1 LIMIT 1"

	var counter Counter
	err := db.QueryRow(query).Scan(
		&counter.ID,
		&counter.TotalDepositedValue,
		&counter.CntDeposit,
		&counter.CntWithdraw,
	)
	switch err {
	case sql.ErrNoRows:
		return initCounterInstance()
	case nil:
		return counter
	default:
		panic(err)
	}
}

func updateCounter(tx *sql.Tx, total uint64, deltaDeposit, deltaWithdraw uint64) error {
	const query = "UPDATE `counter` SET `total_deposited_value` = ?, " +
		"`cnt_deposit` = `cnt_deposit` + ?, `cnt_withdraw` = `cnt_withdraw` + ? WHERE `id` = 1 LIMIT 1"

	_, err := tx.Exec(query, total, deltaDeposit, deltaWithdraw)
	return err
}
