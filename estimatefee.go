// Copyright (c) 2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txpool

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"

	"github.com/btcsuite/btcd/btcutil"
)

// TODO incorporate Alex Morcos' modifications to Gavin's initial model
// https://lists.linuxfoundation.org/pipermail/bitcoin-dev/2014-October/006824.html

const (
	// estimateFeeDepth is the maximum number of blocks before a transaction
	// is confirmed that we want to track.
	estimateFeeDepth = 25

	// estimateFeeBinSize is the number of txs stored in each bin.
	estimateFeeBinSize = 100

	// unminedHeight marks an observed transaction that hasn't confirmed
	// yet.
	unminedHeight = -1
)

// SatoshiPerByte is number with units of satoshis per byte.
type SatoshiPerByte float64

// ToSatoshiPerKb returns a float value that represents the given
// SatoshiPerByte converted to satoshis per kb.
func (rate SatoshiPerByte) ToSatoshiPerKb() float64 {
	if rate == SatoshiPerByte(-1.0) {
		return -1.0
	}
	return float64(rate) * 1024
}

// Fee returns the fee for a transaction of a given size for the given fee
// rate.
func (rate SatoshiPerByte) Fee(size uint32) btcutil.Amount {
	if rate == SatoshiPerByte(-1) {
		return btcutil.Amount(-1)
	}
	return btcutil.Amount(float64(rate) * float64(size))
}

// NewSatoshiPerByte creates a SatoshiPerByte from an Amount and a size in
// bytes.
func NewSatoshiPerByte(fee btcutil.Amount, size uint32) SatoshiPerByte {
	return SatoshiPerByte(float64(fee) / float64(size))
}

// observedEntry is an observed entry and the extra bookkeeping the fee
// estimation algorithm needs for it.
type observedEntry struct {
	id       ID
	feeRate  SatoshiPerByte
	observed int32
	mined    int32
}

// StandardFeeEstimator buckets recently observed entries by how many blocks
// they took to confirm, and answers "what feerate clears in N blocks" by
// reading off the bucket boundaries. It is this module's concrete
// FeeEstimator collaborator (see config.go); a Pool is built with one
// optionally, or with none at all.
type StandardFeeEstimator struct {
	binSize int

	// maxReplacements is the maximum number of reservoir replacements
	// made in a single bin per ObserveMined call.
	maxReplacements int

	// minRegisteredBlocks is the minimum number of distinct mined heights
	// that must have been observed before EstimateFee stops erroring.
	minRegisteredBlocks uint32

	lastKnownHeight int32

	sync.RWMutex
	observed            map[ID]observedEntry
	bin                 [estimateFeeDepth][]*observedEntry
	registeredHeights   map[int32]struct{}
	numBlocksRegistered uint32

	cached []SatoshiPerByte
}

// NewStandardFeeEstimator creates a StandardFeeEstimator that returns an
// error from EstimateFee until minRegisteredBlocks distinct heights have
// been observed via ObserveMined.
func NewStandardFeeEstimator(minRegisteredBlocks uint32) *StandardFeeEstimator {
	return &StandardFeeEstimator{
		minRegisteredBlocks: minRegisteredBlocks,
		lastKnownHeight:     unminedHeight,
		binSize:             estimateFeeBinSize,
		maxReplacements:     10,
		observed:            make(map[ID]observedEntry),
		registeredHeights:   make(map[int32]struct{}),
	}
}

// ObserveTransaction records e as a fee-estimation candidate the moment it is
// admitted to the pool.
func (ef *StandardFeeEstimator) ObserveTransaction(e *Entry) {
	ef.Lock()
	defer ef.Unlock()

	id := e.ID()
	if _, ok := ef.observed[id]; ok {
		return
	}
	size := uint32(e.Size())
	ef.observed[id] = observedEntry{
		id:       id,
		feeRate:  NewSatoshiPerByte(e.Fee(), size),
		observed: e.Height(),
		mined:    unminedHeight,
	}
}

// ObserveMined informs the estimator that e was confirmed at blockHeight. If
// e was never observed unconfirmed (it entered the pool and confirmed in the
// same scan, for instance), this is a no-op for estimation purposes.
func (ef *StandardFeeEstimator) ObserveMined(e *Entry, blockHeight int32) {
	ef.Lock()
	defer ef.Unlock()

	ef.cached = nil

	if blockHeight > ef.lastKnownHeight {
		ef.lastKnownHeight = blockHeight
	}
	if _, ok := ef.registeredHeights[blockHeight]; !ok {
		ef.registeredHeights[blockHeight] = struct{}{}
		ef.numBlocksRegistered++
	}

	o, ok := ef.observed[e.ID()]
	if !ok {
		return
	}
	o.mined = blockHeight
	delete(ef.observed, e.ID())

	blocksToConfirm := blockHeight - o.observed - 1
	if blocksToConfirm < 0 || blocksToConfirm >= estimateFeeDepth {
		return
	}

	bin := ef.bin[blocksToConfirm]
	if len(bin) >= ef.binSize {
		drop := rand.Intn(len(bin))
		bin[drop] = &o
	} else {
		ef.bin[blocksToConfirm] = append(bin, &o)
	}
}

// ObserveRemoved drops e from the observed set without crediting any bin: an
// eviction, expiry, conflict, or reorg removal says nothing about how long a
// *mined* transaction takes to confirm.
func (ef *StandardFeeEstimator) ObserveRemoved(e *Entry, _ int32) {
	ef.Lock()
	defer ef.Unlock()
	delete(ef.observed, e.ID())
}

// estimateFeeSet is a set of txs sorted by fee rate (satoshis per byte),
// highest first.
type estimateFeeSet struct {
	feeRate []SatoshiPerByte
	bin     [estimateFeeDepth]uint32
}

func (b *estimateFeeSet) Len() int           { return len(b.feeRate) }
func (b *estimateFeeSet) Less(i, j int) bool { return b.feeRate[i] > b.feeRate[j] }
func (b *estimateFeeSet) Swap(i, j int) {
	b.feeRate[i], b.feeRate[j] = b.feeRate[j], b.feeRate[i]
}

// estimateFee returns the estimated fee for a transaction to confirm in
// confirmations blocks from now, given the data set collected.
func (b *estimateFeeSet) estimateFee(confirmations int) SatoshiPerByte {
	if confirmations <= 0 {
		return SatoshiPerByte(math.Inf(1))
	}
	if confirmations > estimateFeeDepth {
		return 0
	}

	var min, max uint32
	for i := 0; i < confirmations-1; i++ {
		min += b.bin[i]
	}
	max = min + b.bin[confirmations-1]

	if min == 0 && max == 0 {
		return 0
	}

	return b.feeRate[(min+max-1)/2]
}

func (ef *StandardFeeEstimator) newEstimateFeeSet() *estimateFeeSet {
	set := &estimateFeeSet{}

	capacity := 0
	for i, b := range ef.bin {
		l := len(b)
		set.bin[i] = uint32(l)
		capacity += l
	}

	set.feeRate = make([]SatoshiPerByte, capacity)

	i := 0
	for _, b := range ef.bin {
		for _, o := range b {
			set.feeRate[i] = o.feeRate
			i++
		}
	}

	sort.Sort(set)
	return set
}

func (ef *StandardFeeEstimator) estimates() []SatoshiPerByte {
	set := ef.newEstimateFeeSet()

	estimates := make([]SatoshiPerByte, estimateFeeDepth)
	for i := 0; i < estimateFeeDepth; i++ {
		estimates[i] = set.estimateFee(i + 1)
	}
	return estimates
}

// EstimateFee estimates the fee per byte to have a tx confirmed a given
// number of blocks from now.
func (ef *StandardFeeEstimator) EstimateFee(numBlocks uint32) (SatoshiPerByte, error) {
	ef.Lock()
	defer ef.Unlock()

	if ef.numBlocksRegistered < ef.minRegisteredBlocks {
		return -1, errors.New("not enough blocks have been observed")
	}
	if numBlocks == 0 {
		return -1, errors.New("cannot confirm transaction in zero blocks")
	}
	if numBlocks > estimateFeeDepth {
		return -1, fmt.Errorf(
			"can only estimate fees for up to %d blocks from now",
			estimateFeeDepth)
	}

	if ef.cached == nil {
		ef.cached = ef.estimates()
	}
	return ef.cached[int(numBlocks)-1], nil
}
