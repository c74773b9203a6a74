package asset

import (
	"sync"
)

// Constants.
const (
	// NativeID is the reserved identifier of the platform native currency.
	NativeID = "native"

	// NativeDecimals is the precision native currency amounts are
	// denominated in.
	NativeDecimals = 18

	// PegDecimals is the assumed native precision of pegged assets.
	// Pegged assets carry no live price feed; their amounts are rescaled
	// from this precision straight to accounting precision.
	PegDecimals = 18

	// AccountingDecimals is the fixed precision of accounting values
	// used for cap and limit comparisons.
	AccountingDecimals = 6
)

var (
	registry     = make(map[string]bool)
	registryLock sync.Mutex
)

// IsNative reports whether assetID is the reserved native currency identifier.
func IsNative(assetID string) bool {
	return assetID == NativeID
}

// Load replaces the set of accepted non-native asset identifiers.
func Load(assetIDs []string) {
	registryLock.Lock()
	defer registryLock.Unlock()

	registry = make(map[string]bool)
	for _, id := range assetIDs {
		if id == NativeID {
			continue
		}
		registry[id] = true
	}
}

// Known reports whether assetID is accepted by the vault.
// The native identifier is always known.
func Known(assetID string) bool {
	if IsNative(assetID) {
		return true
	}

	registryLock.Lock()
	defer registryLock.Unlock()

	return registry[assetID]
}
