package db

import (
	"database/sql"
)

// BalanceRow is the balance db model.
type BalanceRow struct {
	Account string
	AssetID string
	Balance uint64
}

// GetBalances returns every stored (account, asset) balance.
func GetBalances() []BalanceRow {
	const query = "SELECT `account`, `asset_id`, `balance` FROM `balance`"

	result := []BalanceRow{}

	rows, err := wrappedQuery(query)
	if err != nil {
		panic(err)
	}
	defer rows.Close()

	for rows.Next() {
		row := BalanceRow{}

		if err := rows.Scan(&row.Account, &row.AssetID, &row.Balance); err != nil {
			panic(err)
		}

		result = append(result, row)
	}

	return result
}

func upsertBalance(tx *sql.Tx, account, assetID string, balance uint64) error {
	const query = "INSERT INTO `balance` (`account`, `asset_id`, `balance`) VALUES (?, ?, ?) " +
		"ON DUPLICATE KEY UPDATE `balance` = VALUES(`balance`)"

	_, err := tx.Exec(query, account, assetID, balance)
	return err
}
