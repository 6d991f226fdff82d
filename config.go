// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txpool

import (
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
)

// Limits bounds the in-pool ancestor/descendant closure a transaction may
// have at admission (component D's calculate_ancestors check), plus the
// pool-wide size and expiry bounds component E's trim_to_size/expire enforce.
// All six are pass-through configuration: the pool never derives them from
// anything else.
type Limits struct {
	// MaxAncestorCount bounds the number of in-pool ancestors (including
	// the candidate itself) a transaction may have.
	MaxAncestorCount int64

	// MaxAncestorSize bounds the summed virtual size of a transaction's
	// in-pool ancestors, in bytes.
	MaxAncestorSize int64

	// MaxDescendantCount bounds the number of in-pool descendants
	// (including the ancestor itself) any ancestor of a newly admitted
	// transaction may end up with.
	MaxDescendantCount int64

	// MaxDescendantSize bounds the summed virtual size of any ancestor's
	// in-pool descendants, in bytes.
	MaxDescendantSize int64

	// SizeLimit is the pool-wide dynamic memory ceiling. The pool stores it
	// but does not read it: TrimToSize takes its limit as an argument.
	SizeLimit int64

	// ExpiryAge is the maximum duration, in seconds, an entry may sit in
	// the pool. The pool stores it but does not read it: Expire takes an
	// absolute cutoff time as an argument.
	ExpiryAge int64
}

// Clock abstracts wall-clock time, in Unix seconds, so tests can drive
// rolling fee decay deterministically instead of racing the real clock.
type Clock interface {
	Now() int64
}

// systemClock is the default Clock, backed by the real wall clock.
type systemClock struct{}

func (systemClock) Now() int64 { return time.Now().Unix() }

// CoinView resolves outpoints against the chain state the pool is layered
// over (component H). The pool never holds confirmed UTXOs itself; it asks
// the base view and overlays its own in-pool outputs on top.
type CoinView interface {
	// GetCoin returns the base chain's view of outpoint, or ok=false if
	// it is unknown or already spent there.
	GetCoin(outpoint wire.OutPoint) (coin Coin, ok bool)

	// BestHeight returns the height of the chain tip the view is rooted
	// at.
	BestHeight() int32
}

// FeeEstimator is the optional collaborator notified of mined and evicted
// transactions so it can maintain its own confirmation-time fee buckets. A
// nil FeeEstimator in Config disables estimation entirely; the pool runs
// identically either way.
type FeeEstimator interface {
	// ObserveMined records that tx, an entry previously seen by
	// ObserveTransaction, was included in a block at the given height.
	ObserveMined(e *Entry, blockHeight int32)

	// ObserveTransaction records a newly admitted entry as a candidate
	// for future fee-rate bucketing.
	ObserveTransaction(e *Entry)

	// ObserveRemoved records that an entry left the pool without being
	// mined (eviction, expiry, conflict, or reorg).
	ObserveRemoved(e *Entry, height int32)
}

// Config bundles the pool's limits and collaborator callbacks, mirroring the
// teacher's func-field injection style: the pool depends on behavior, not on
// concrete chain/validation types, so it can be exercised without a running
// node.
type Config struct {
	// Limits carries the ancestor/descendant/size/expiry bounds.
	Limits Limits

	// IncrementalRelayFee is the process-wide fee-rate floor component F's
	// rolling minimum decays toward and never drops below.
	IncrementalRelayFee btcutil.Amount

	// CoinView resolves outpoints against confirmed chain state.
	CoinView CoinView

	// Clock supplies the current time for rolling fee decay (GetMinFee)
	// and for the bump TrimToSize records. Entry timestamps are passed to
	// NewEntry and Expire takes an explicit cutoff, so neither reads it.
	// Defaults to the system clock if left nil.
	Clock Clock

	// FeeEstimator is notified of mined/removed entries. May be nil.
	FeeEstimator FeeEstimator
}

// clockOrDefault returns cfg.Clock, or the system clock if cfg.Clock is nil.
func (cfg Config) clockOrDefault() Clock {
	if cfg.Clock != nil {
		return cfg.Clock
	}
	return systemClock{}
}
