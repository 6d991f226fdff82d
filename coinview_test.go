// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txpool

import (
	"testing"

	"github.com/btcsuite/btcd/wire"
)

type fakeBaseCoinView struct {
	coins  map[wire.OutPoint]Coin
	height int32
}

func newFakeBaseCoinView(height int32) *fakeBaseCoinView {
	return &fakeBaseCoinView{coins: make(map[wire.OutPoint]Coin), height: height}
}

func (v *fakeBaseCoinView) GetCoin(op wire.OutPoint) (Coin, bool) {
	c, ok := v.coins[op]
	return c, ok
}

func (v *fakeBaseCoinView) BestHeight() int32 { return v.height }

func TestPoolCoinViewResolvesInPoolOutputsAtMempoolHeight(t *testing.T) {
	idx := newIDIndex()
	tx := buildTx(nil, 2)
	e := buildEntry(tx, 1000, 50, 0)
	idx.put(e)

	base := newFakeBaseCoinView(100)
	view := newPoolCoinView(base, idx)

	coin, ok := view.GetCoin(outpoint(tx, 0))
	if !ok {
		t.Fatal("expected GetCoin to resolve an in-pool output")
	}
	if coin.Height != MempoolHeight {
		t.Errorf("in-pool coin height = %d, want MempoolHeight", coin.Height)
	}
	if coin.IsCoinBase {
		t.Error("an in-pool entry's output must never report IsCoinBase")
	}
	if coin.Output.Value != tx.MsgTx().TxOut[0].Value {
		t.Errorf("coin.Output.Value = %d, want %d", coin.Output.Value, tx.MsgTx().TxOut[0].Value)
	}
}

func TestPoolCoinViewFallsBackToBase(t *testing.T) {
	idx := newIDIndex()
	base := newFakeBaseCoinView(100)
	confirmed := wire.OutPoint{Index: 7}
	base.coins[confirmed] = Coin{Height: 42, IsCoinBase: true}

	view := newPoolCoinView(base, idx)

	coin, ok := view.GetCoin(confirmed)
	if !ok {
		t.Fatal("expected GetCoin to fall through to the base view")
	}
	if coin.Height != 42 || !coin.IsCoinBase {
		t.Errorf("coin = %+v, want {Height:42 IsCoinBase:true ...}", coin)
	}
}

func TestPoolCoinViewOutOfRangeIndex(t *testing.T) {
	idx := newIDIndex()
	tx := buildTx(nil, 1)
	e := buildEntry(tx, 1000, 50, 0)
	idx.put(e)

	view := newPoolCoinView(nil, idx)
	if _, ok := view.GetCoin(outpoint(tx, 5)); ok {
		t.Error("GetCoin should report false for an out-of-range output index")
	}
}

func TestPoolCoinViewBestHeightDelegatesToBase(t *testing.T) {
	base := newFakeBaseCoinView(123)
	view := newPoolCoinView(base, newIDIndex())
	if got := view.BestHeight(); got != 123 {
		t.Errorf("BestHeight = %d, want 123", got)
	}
}
