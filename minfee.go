// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txpool

import (
	"math"

	"github.com/btcsuite/btcd/btcutil"
)

// rollingFeeHalflife is the time, in seconds, over which the rolling minimum
// fee rate decays by half when the pool sits below its size limit. Mirrors
// ROLLING_FEE_HALFLIFE.
const rollingFeeHalflife = 60 * 60 * 12

// minFeeTracker implements component F: the dynamic minimum feerate a
// transaction must clear to be admitted while the pool is full, decaying back
// toward zero once the pool has room again.
type minFeeTracker struct {
	incrementalRelayFee btcutil.Amount

	rollingMinimumFeeRate       float64
	lastRollingFeeUpdate        int64
	blockSinceLastRollingFeeBump bool
}

func newMinFeeTracker(incrementalRelayFee btcutil.Amount) *minFeeTracker {
	// No bump has happened yet, so the first eviction may raise the floor.
	return &minFeeTracker{incrementalRelayFee: incrementalRelayFee, blockSinceLastRollingFeeBump: true}
}

// getMinFee returns the feerate (satoshis per kilobyte) a transaction must
// clear to enter the pool right now. If the pool's dynamic memory usage is
// below sizeLimit, the rolling rate is first decayed toward zero by however
// many halflives have elapsed since the last update.
func (m *minFeeTracker) getMinFee(now int64, poolUsage, sizeLimit int64) btcutil.Amount {
	if poolUsage < sizeLimit {
		if m.rollingMinimumFeeRate == 0 {
			return m.incrementalRelayFee
		}

		elapsed := now - m.lastRollingFeeUpdate
		if elapsed > 0 {
			halflives := float64(elapsed) / float64(rollingFeeHalflife)
			m.rollingMinimumFeeRate /= math.Pow(2.0, halflives)
			m.lastRollingFeeUpdate = now

			if m.rollingMinimumFeeRate < float64(m.incrementalRelayFee)/2 {
				m.rollingMinimumFeeRate = 0
				return m.incrementalRelayFee
			}
		}
	}

	rate := btcutil.Amount(m.rollingMinimumFeeRate)
	if rate < m.incrementalRelayFee {
		rate = m.incrementalRelayFee
	}
	return rate
}

// trackPackageRemoved bumps the rolling minimum up to rate when a package is
// evicted from a full pool for insufficient feerate, so the pool doesn't
// immediately readmit something just evicted. Only takes effect if rate
// exceeds the current rolling minimum and a block has connected since the
// last bump (or no bump has happened yet).
func (m *minFeeTracker) trackPackageRemoved(now int64, rate btcutil.Amount) {
	newRate := float64(rate)
	if newRate > m.rollingMinimumFeeRate && m.blockSinceLastRollingFeeBump {
		m.rollingMinimumFeeRate = newRate
		m.blockSinceLastRollingFeeBump = false
		m.lastRollingFeeUpdate = now
	}
}

// blockConnected records that a block has connected since the rolling fee
// was last bumped by a package eviction. The rolling rate itself only ever
// decays on a time basis, in getMinFee; this flag exists purely so a future
// trackPackageRemoved bump knows whether one has happened since.
func (m *minFeeTracker) blockConnected() {
	m.blockSinceLastRollingFeeBump = true
}
