package vault

import (
	"vaultd/log"
)

// Sink receives observability events. Events fire only after an
// operation fully committed, transfer included.
type Sink interface {
	DepositCompleted(account, assetID string, amount, value uint64)
	WithdrawCompleted(account, assetID string, amount uint64)
	BalanceChanged(account, assetID string, newBalance uint64)
}

// Sinks fans events out to several sinks in order.
type Sinks []Sink

// DepositCompleted implements Sink.
func (s Sinks) DepositCompleted(account, assetID string, amount, value uint64) {
	for _, sink := range s {
		sink.DepositCompleted(account, assetID, amount, value)
	}
}

// WithdrawCompleted implements Sink.
func (s Sinks) WithdrawCompleted(account, assetID string, amount uint64) {
	for _, sink := range s {
		sink.WithdrawCompleted(account, assetID, amount)
	}
}

// BalanceChanged implements Sink.
func (s Sinks) BalanceChanged(account, assetID string, newBalance uint64) {
	for _, sink := range s {
		sink.BalanceChanged(account, assetID, newBalance)
	}
}

// LogSink writes every event to the normal logger.
type LogSink struct{}

// DepositCompleted implements Sink.
func (LogSink) DepositCompleted(account, assetID string, amount, value uint64) {
	log.Printf("Deposit completed: account=%s asset=%s amount=%d value=%d\n",
		account, assetID, amount, value)
}

// WithdrawCompleted implements Sink.
func (LogSink) WithdrawCompleted(account, assetID string, amount uint64) {
	log.Printf("Withdraw completed: account=%s asset=%s amount=%d\n",
		account, assetID, amount)
}

// BalanceChanged implements Sink.
func (LogSink) BalanceChanged(account, assetID string, newBalance uint64) {
	log.Printf("Balance changed: account=%s asset=%s balance=%d\n",
		account, assetID, newBalance)
}
