package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstrumentRegistryAddAndDuplicate(t *testing.T) {
	r := NewInstrumentRegistry(0.10)
	require.NoError(t, r.Add("600000", "Demo Bancorp", 1000))
	err := r.Add("600000", "Demo Bancorp", 1000)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStockAlreadyExists)
}

func TestInstrumentRegistryPriceBand(t *testing.T) {
	r := NewInstrumentRegistry(0.10)
	require.NoError(t, r.Add("600000", "Demo Bancorp", 1000))
	inst := r.Get("600000")
	require.NotNil(t, inst)
	assert.Equal(t, Price(900), inst.Band.Floor)
	assert.Equal(t, Price(1100), inst.Band.Ceiling)
}

func TestInstrumentRegistryRecordTradeUpdatesDaily(t *testing.T) {
	r := NewInstrumentRegistry(0.10)
	require.NoError(t, r.Add("600000", "Demo Bancorp", 1000))

	r.RecordTrade("600000", 0, 1000, 10)
	r.RecordTrade("600000", 30, 1010, 5)
	r.RecordTrade("600000", 60, 990, 3)

	inst := r.Get("600000")
	assert.Equal(t, Price(990), inst.CurrentPrice)
	assert.True(t, inst.Daily.HasOpen)
	assert.Equal(t, Price(1000), inst.Daily.Open)
	assert.Equal(t, Price(1010), inst.Daily.High)
	assert.Equal(t, Price(990), inst.Daily.Low)
	assert.Equal(t, Qty(18), inst.Daily.Volume)
}

func TestInstrumentCandleBucketingByMinute(t *testing.T) {
	r := NewInstrumentRegistry(0.10)
	require.NoError(t, r.Add("600000", "Demo Bancorp", 1000))

	r.RecordTrade("600000", 0, 1000, 10)  // minute 0
	r.RecordTrade("600000", 30, 1010, 5)  // still minute 0
	r.RecordTrade("600000", 61, 990, 3)   // minute 1

	inst := r.Get("600000")
	require.Len(t, inst.Candles, 2)
	assert.Equal(t, Price(1000), inst.Candles[0].Open)
	assert.Equal(t, Price(1010), inst.Candles[0].High)
	assert.Equal(t, Qty(15), inst.Candles[0].Volume)
	assert.Equal(t, Price(990), inst.Candles[1].Open)
}

func TestInstrumentHeartbeatCarriesPriceWithoutPerturbingHighLow(t *testing.T) {
	r := NewInstrumentRegistry(0.10)
	require.NoError(t, r.Add("600000", "Demo Bancorp", 1000))
	r.RecordTrade("600000", 0, 1000, 10)
	r.Heartbeat("600000", 30) // same minute, no trade

	inst := r.Get("600000")
	require.Len(t, inst.Candles, 1)
	c := inst.Candles[0]
	assert.Equal(t, Qty(10), c.Volume) // unchanged by heartbeat
	assert.Equal(t, Price(1000), c.High)
	assert.Equal(t, Price(1000), c.Low)
	assert.Equal(t, Price(1000), c.Close)
}

func TestInstrumentHeartbeatNewMinuteAppendsZeroQtyCandle(t *testing.T) {
	r := NewInstrumentRegistry(0.10)
	require.NoError(t, r.Add("600000", "Demo Bancorp", 1000))
	r.RecordTrade("600000", 0, 1000, 10)
	r.Heartbeat("600000", 65) // new minute, no trade

	inst := r.Get("600000")
	require.Len(t, inst.Candles, 2)
	hb := inst.Candles[1]
	assert.Equal(t, Qty(0), hb.Volume)
	assert.Equal(t, uint64(0), hb.Avg)
	assert.Equal(t, Price(1000), hb.Close)
}

func TestInstrumentCloseDaySetsDailyClose(t *testing.T) {
	r := NewInstrumentRegistry(0.10)
	require.NoError(t, r.Add("600000", "Demo Bancorp", 1000))
	r.RecordTrade("600000", 0, 1005, 1)
	r.CloseDay("600000")
	inst := r.Get("600000")
	assert.True(t, inst.Daily.HasClose)
	assert.Equal(t, Price(1005), inst.Daily.Close)
}

func TestInstrumentCandlesBetweenFiltersByRange(t *testing.T) {
	r := NewInstrumentRegistry(0.10)
	require.NoError(t, r.Add("600000", "Demo Bancorp", 1000))
	r.RecordTrade("600000", 0, 1000, 1)
	r.RecordTrade("600000", 120, 1001, 1)
	r.RecordTrade("600000", 240, 1002, 1)

	got := r.CandlesBetween("600000", 100, 200)
	require.Len(t, got, 1)
	assert.Equal(t, Price(1001), got[0].Open)
}
