package vault

import (
	"errors"
	"fmt"
	"sync"
	"vaultd/asset"
	"vaultd/convert"
	"vaultd/ledger"
	"vaultd/log"
)

var (
	// ErrCapExceeded is returned when a deposit would push the running
	// total past the global value cap.
	ErrCapExceeded = errors.New("total deposited value cap exceeded")

	// ErrLimitExceeded is returned when a single withdrawal's value
	// exceeds the per-operation ceiling.
	ErrLimitExceeded = errors.New("withdrawal value limit exceeded")

	// ErrTransferFailed is returned when the settlement bridge reports
	// failure; the ledger mutation is rolled back before returning it.
	ErrTransferFailed = errors.New("asset transfer failed")

	// ErrWrongDepositPath is returned when the native identifier is
	// used with the asset deposit entry point.
	ErrWrongDepositPath = errors.New("wrong deposit path for asset")
)

// Bridge is the external asset transfer collaborator. Pull is the
// deposit path for non-native assets, Push the withdrawal path for
// everything.
type Bridge interface {
	Pull(account, assetID string, amount uint64) error
	Push(account, assetID string, amount uint64) error
}

// Limits holds the two value ceilings, in accounting units. Both are
// fixed for the lifetime of the service.
type Limits struct {
	MaxTotalValue    uint64
	MaxWithdrawValue uint64
}

// Service orchestrates the vault operations. Every operation runs
// under one exclusive lock from validation through transfer: the guard
// checks are only meaningful when nothing mutates the ledger between
// check and apply, and a re-entrant call during the bridge step must
// not observe mid-operation state.
type Service struct {
	mu     sync.Mutex
	ledger *ledger.Ledger
	conv   *convert.Converter
	bridge Bridge
	sink   Sink
	limits Limits
}

// New wires a vault service. A nil sink drops all events.
func New(l *ledger.Ledger, conv *convert.Converter, bridge Bridge, sink Sink, limits Limits) *Service {
	if sink == nil {
		sink = Sinks{}
	}

	return &Service{
		ledger: l,
		conv:   conv,
		bridge: bridge,
		sink:   sink,
		limits: limits,
	}
}

// DepositNative credits native currency to the account. Native funds
// settle with the request itself, so there is no pull step.
func (s *Service) DepositNative(account string, amount uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if amount == 0 {
		return ledger.ErrZeroAmount
	}

	value, err := s.conv.ValueOf(asset.NativeID, amount)
	if err != nil {
		return err
	}

	if err := checkCap(s.ledger.TotalDepositedValue(), value, s.limits.MaxTotalValue); err != nil {
		return err
	}

	r, err := s.ledger.Apply(ledger.Mutation{
		Kind:    ledger.Deposit,
		Account: account,
		Asset:   asset.NativeID,
		Amount:  amount,
		Value:   value,
	})
	if err != nil {
		return err
	}

	s.sink.DepositCompleted(account, asset.NativeID, amount, value)
	s.sink.BalanceChanged(account, asset.NativeID, r.NewBalance)

	return nil
}

// DepositAsset credits a non-native asset to the account, pulling the
// funds through the bridge after the ledger mutation. A pull failure
// reverts the mutation, so no partial state survives.
func (s *Service) DepositAsset(account, assetID string, amount uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if asset.IsNative(assetID) {
		return ErrWrongDepositPath
	}

	if amount == 0 {
		return ledger.ErrZeroAmount
	}

	value, err := s.conv.ValueOf(assetID, amount)
	if err != nil {
		return err
	}

	if err := checkCap(s.ledger.TotalDepositedValue(), value, s.limits.MaxTotalValue); err != nil {
		return err
	}

	r, err := s.ledger.Apply(ledger.Mutation{
		Kind:    ledger.Deposit,
		Account: account,
		Asset:   assetID,
		Amount:  amount,
		Value:   value,
	})
	if err != nil {
		return err
	}

	if err := s.bridge.Pull(account, assetID, amount); err != nil {
		s.ledger.Revert(r)
		log.Error.Printf("Pull failed, deposit rolled back: account=%s asset=%s amount=%d: %s\n",
			account, assetID, amount, err)
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}

	s.sink.DepositCompleted(account, assetID, amount, value)
	s.sink.BalanceChanged(account, assetID, r.NewBalance)

	return nil
}

// Withdraw debits the account and pushes the funds out through the
// bridge. A push failure reverts the mutation.
func (s *Service) Withdraw(account, assetID string, amount uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if amount == 0 {
		return ledger.ErrZeroAmount
	}

	value, err := s.conv.ValueOf(assetID, amount)
	if err != nil {
		return err
	}

	if err := checkWithdrawLimit(value, s.limits.MaxWithdrawValue); err != nil {
		return err
	}

	r, err := s.ledger.Apply(ledger.Mutation{
		Kind:    ledger.Withdraw,
		Account: account,
		Asset:   assetID,
		Amount:  amount,
		Value:   value,
	})
	if err != nil {
		return err
	}

	if err := s.bridge.Push(account, assetID, amount); err != nil {
		s.ledger.Revert(r)
		log.Error.Printf("Push failed, withdrawal rolled back: account=%s asset=%s amount=%d: %s\n",
			account, assetID, amount, err)
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}

	s.sink.WithdrawCompleted(account, assetID, amount)
	s.sink.BalanceChanged(account, assetID, r.NewBalance)

	return nil
}

// BalanceOf returns the stored balance, 0 for unseen pairs.
func (s *Service) BalanceOf(account, assetID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.ledger.BalanceOf(account, assetID)
}

// TotalDepositedValue returns the running total in accounting units.
func (s *Service) TotalDepositedValue() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.ledger.TotalDepositedValue()
}

// Limits returns the configured value ceilings.
func (s *Service) Limits() Limits {
	return s.limits
}
