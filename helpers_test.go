// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txpool

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
)

// testTxCounter guarantees every transaction built by the helpers below
// hashes to something unique, without reaching for time.Now or math/rand.
var testTxCounter int32

// externalOutpoint returns an outpoint that never names a pooled entry,
// standing in for a confirmed, already-spendable coin outside the pool.
func externalOutpoint() wire.OutPoint {
	testTxCounter++
	return wire.OutPoint{Index: uint32(testTxCounter)}
}

// buildTx constructs a transaction spending the given outpoints (or one
// external, manufactured outpoint if spends is empty) and producing numOuts
// identical outputs.
func buildTx(spends []wire.OutPoint, numOuts int) *btcutil.Tx {
	testTxCounter++
	msgTx := &wire.MsgTx{Version: testTxCounter}

	ins := spends
	if len(ins) == 0 {
		ins = []wire.OutPoint{externalOutpoint()}
	}
	for _, op := range ins {
		msgTx.TxIn = append(msgTx.TxIn, &wire.TxIn{
			PreviousOutPoint: op,
			Sequence:         wire.MaxTxInSequenceNum,
		})
	}
	for i := 0; i < numOuts; i++ {
		msgTx.TxOut = append(msgTx.TxOut, &wire.TxOut{
			Value:    50000,
			PkScript: []byte{0x51},
		})
	}
	return btcutil.NewTx(msgTx)
}

// outpoint names tx's output at index.
func outpoint(tx *btcutil.Tx, index uint32) wire.OutPoint {
	return wire.OutPoint{Hash: *tx.Hash(), Index: index}
}

// buildEntry wraps tx into an Entry with a deterministic weight derived from
// its serialized size.
func buildEntry(tx *btcutil.Tx, fee btcutil.Amount, height int32, entryTime int64) *Entry {
	weight := int64(tx.MsgTx().SerializeSize() * 4)
	return NewEntry(tx, fee, weight, entryTime, height, false, 0, LockPoints{})
}

// spending returns the single-element outpoint slice naming tx's output 0,
// the common case of one transaction spending another's only output.
func spending(tx *btcutil.Tx) []wire.OutPoint {
	return []wire.OutPoint{outpoint(tx, 0)}
}

// testLimits returns a generous, Bitcoin-Core-shaped set of chain limits
// that won't interfere with tests exercising small, hand-built chains.
func testLimits() Limits {
	return Limits{
		MaxAncestorCount:   25,
		MaxAncestorSize:    101000,
		MaxDescendantCount: 25,
		MaxDescendantSize:  101000,
		SizeLimit:          300000000,
		ExpiryAge:          60 * 60 * 336,
	}
}

// testPool builds a Pool with testLimits and no collaborators, suitable for
// tests that only care about admission/removal bookkeeping.
func testPool() *Pool {
	return NewPool(Config{Limits: testLimits()})
}
