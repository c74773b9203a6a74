package tasks

import (
	"time"
	"vaultd/log"
	"vaultd/mail"
	"vaultd/util"
	"vaultd/vault"
)

const statusInterval = 30 * time.Second

var (
	cntDeposit  util.SafeCounter
	cntWithdraw util.SafeCounter
)

// Run starts the background status loop.
func Run(svc *vault.Service) {
	go traceStatus(svc)
}

func traceStatus(svc *vault.Service) {
	defer mail.AlertIfErr()

	start := time.Now()

	for {
		time.Sleep(statusInterval)

		uptime := util.SecondsToHuman(uint64(time.Since(start) / time.Second))
		limits := svc.Limits()

		log.Printf("Vault status: deposits=%d withdraws=%d value=%d/%d, up %s\n",
			cntDeposit.Get(),
			cntWithdraw.Get(),
			svc.TotalDepositedValue(),
			limits.MaxTotalValue,
			uptime)
	}
}

// StatsSink counts committed operations for the status loop.
type StatsSink struct{}

// DepositCompleted implements the vault event sink.
func (StatsSink) DepositCompleted(account, assetID string, amount, value uint64) {
	cntDeposit.Add(1)
}

// WithdrawCompleted implements the vault event sink.
func (StatsSink) WithdrawCompleted(account, assetID string, amount uint64) {
	cntWithdraw.Add(1)
}

// BalanceChanged implements the vault event sink.
func (StatsSink) BalanceChanged(account, assetID string, newBalance uint64) {
}
