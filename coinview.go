// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txpool

import "github.com/btcsuite/btcd/wire"

// MempoolHeight is the sentinel height recorded on a Coin synthesized from an
// in-pool (unconfirmed) entry, mirroring Bitcoin Core's MEMPOOL_HEIGHT. It is
// chosen far above any real chain height so lock-point and maturity checks
// that compare against it never mistake an unconfirmed output for a deeply
// buried one.
const MempoolHeight = 0x7fffffff

// Coin is a single transaction output as seen by component H's overlay: the
// output itself, the height it confirmed at (or MempoolHeight if it hasn't),
// and whether its parent transaction was a coinbase.
type Coin struct {
	Output     wire.TxOut
	Height     int32
	IsCoinBase bool
}

// poolCoinView overlays the pool's own unconfirmed outputs on top of a base,
// confirmed-chain CoinView. Spending an in-pool transaction's output resolves
// here without ever touching the base view, which is what lets admission
// validate chains of unconfirmed transactions against each other.
type poolCoinView struct {
	base    CoinView
	entries *idIndex
}

func newPoolCoinView(base CoinView, entries *idIndex) *poolCoinView {
	return &poolCoinView{base: base, entries: entries}
}

// GetCoin resolves outpoint first against in-pool entries, then falls back to
// the base view. An outpoint belonging to a pool entry synthesizes a Coin
// with Height == MempoolHeight, since the transaction it came from has no
// confirmed height yet.
func (v *poolCoinView) GetCoin(outpoint wire.OutPoint) (Coin, bool) {
	if e, ok := v.entries.get(outpoint.Hash); ok {
		outs := e.Tx().MsgTx().TxOut
		if int(outpoint.Index) >= len(outs) {
			return Coin{}, false
		}
		// Entries are themselves already-validated non-coinbase
		// transactions: coinbase outputs only ever enter a CoinView
		// through the base (confirmed) side.
		return Coin{
			Output:     *outs[outpoint.Index],
			Height:     MempoolHeight,
			IsCoinBase: false,
		}, true
	}
	if v.base == nil {
		return Coin{}, false
	}
	return v.base.GetCoin(outpoint)
}

func (v *poolCoinView) BestHeight() int32 {
	if v.base == nil {
		return 0
	}
	return v.base.BestHeight()
}
