package vault

import (
	"vaultd/util"
)

// checkCap verifies that adding incoming to the pre-mutation running
// total stays within the global cap.
func checkCap(currentTotal, incoming, maxTotal uint64) error {
	total, ok := util.AddUint64(currentTotal, incoming)
	if !ok || total > maxTotal {
		return ErrCapExceeded
	}

	return nil
}

// checkWithdrawLimit verifies a single withdrawal's value against the
// per-operation ceiling.
func checkWithdrawLimit(value, max uint64) error {
	if value > max {
		return ErrLimitExceeded
	}

	return nil
}
