// Copyright (c) 2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txpool

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
)

type estimateFeeTester struct {
	version int32
	height  int32
}

func (eft *estimateFeeTester) testEntry(fee btcutil.Amount) *Entry {
	eft.version++
	tx := btcutil.NewTx(&wire.MsgTx{Version: eft.version})
	weight := int64(tx.MsgTx().SerializeSize() * 4)
	return NewEntry(tx, fee, weight, 0, eft.height, false, 0, LockPoints{})
}

func expectedFeePerByte(e *Entry) SatoshiPerByte {
	return NewSatoshiPerByte(e.Fee(), uint32(e.Size()))
}

func TestEstimateFee(t *testing.T) {
	ef := NewStandardFeeEstimator(0)
	eft := &estimateFeeTester{}

	expected := SatoshiPerByte(0.0)
	for i := uint32(1); i <= estimateFeeDepth; i++ {
		estimated, _ := ef.EstimateFee(i)
		if estimated != expected {
			t.Errorf("expected %f when estimator is empty; got %f", expected, estimated)
		}
	}

	e := eft.testEntry(1000000)
	ef.ObserveTransaction(e)

	expected = SatoshiPerByte(0.0)
	for i := uint32(1); i <= estimateFeeDepth; i++ {
		estimated, _ := ef.EstimateFee(i)
		if estimated != expected {
			t.Errorf("expected %f with one unconfirmed entry; got %f", expected, estimated)
		}
	}

	ef.minRegisteredBlocks = 1
	expected = SatoshiPerByte(-1.0)
	for i := uint32(1); i <= estimateFeeDepth; i++ {
		estimated, _ := ef.EstimateFee(i)
		if estimated != expected {
			t.Errorf("expected %f before any blocks registered; got %f", expected, estimated)
		}
	}

	eft.height++
	ef.ObserveMined(e, eft.height)
	expected = expectedFeePerByte(e)
	for i := uint32(1); i <= estimateFeeDepth; i++ {
		estimated, _ := ef.EstimateFee(i)
		if estimated != expected {
			t.Errorf("expected %f with one binned entry; got %f", expected, estimated)
		}
	}
}

func TestEstimateFeeObserveRemovedDropsUnconfirmed(t *testing.T) {
	ef := NewStandardFeeEstimator(0)
	eft := &estimateFeeTester{}

	e := eft.testEntry(500000)
	ef.ObserveTransaction(e)

	ef.ObserveRemoved(e, eft.height)

	eft.height++
	ef.ObserveMined(e, eft.height)

	if len(ef.bin[0]) != 0 {
		t.Error("entry dropped via ObserveRemoved should never land in a fee bin")
	}
}

func TestEstimateFeeBinsByConfirmationDelay(t *testing.T) {
	ef := NewStandardFeeEstimator(0)
	eft := &estimateFeeTester{}

	early := eft.testEntry(100000)
	ef.ObserveTransaction(early)

	for i := 0; i < 8; i++ {
		eft.height++
	}
	late := eft.testEntry(900000)
	ef.ObserveTransaction(late)

	eft.height++
	ef.ObserveMined(early, eft.height)
	ef.ObserveMined(late, eft.height)

	fast, _ := ef.EstimateFee(1)
	if fast != expectedFeePerByte(late) {
		t.Errorf("expected the 1-block estimate to reflect the fast confirmer; got %f", fast)
	}
}
