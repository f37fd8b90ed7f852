package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunContinuousPriceTimePriority(t *testing.T) {
	store := NewOrderStore()
	book := NewOrderBook(store)

	sellEarly := store.Create(10, "600000", Sell, 100, 5, 0)
	sellLate := store.Create(11, "600000", Sell, 100, 5, 0)
	book.Add(sellEarly)
	book.Add(sellLate)

	buy := store.Create(1, "600000", Buy, 100, 5, 0)
	book.Add(buy)

	trades := RunContinuous(book, store, "600000", 100)
	require.Len(t, trades, 1)
	assert.Equal(t, sellEarly.ID, trades[0].SellOrderID)
	assert.Equal(t, Qty(0), sellEarly.RemainingQty)
	assert.Equal(t, Qty(5), sellLate.RemainingQty) // untouched: price-time priority
}

func TestRunContinuousRestingOrderDictatesPrice(t *testing.T) {
	store := NewOrderStore()
	book := NewOrderBook(store)

	sell := store.Create(10, "600000", Sell, 98, 10, 0)
	book.Add(sell)
	buy := store.Create(1, "600000", Buy, 100, 10, 0)
	book.Add(buy)

	trades := RunContinuous(book, store, "600000", 0)
	require.Len(t, trades, 1)
	assert.Equal(t, Price(98), trades[0].Price)
	assert.Equal(t, TickDown, trades[0].Direction)
}

func TestRunContinuousSelfTradeSkipsNotCancels(t *testing.T) {
	store := NewOrderStore()
	book := NewOrderBook(store)

	selfSell := store.Create(1, "600000", Sell, 100, 5, 0)
	otherSell := store.Create(2, "600000", Sell, 100, 5, 0)
	book.Add(selfSell)
	book.Add(otherSell)

	buy := store.Create(1, "600000", Buy, 100, 5, 0)
	book.Add(buy)

	trades := RunContinuous(book, store, "600000", 0)
	require.Len(t, trades, 1)
	assert.Equal(t, otherSell.ID, trades[0].SellOrderID)
	assert.Equal(t, Qty(5), selfSell.RemainingQty) // untouched, not cancelled
	_, ok := book.BestAsk()
	assert.True(t, ok) // selfSell still resting at 100
}

func TestRunContinuousPartialFillLeavesOrderResting(t *testing.T) {
	store := NewOrderStore()
	book := NewOrderBook(store)

	sell := store.Create(10, "600000", Sell, 100, 10, 0)
	book.Add(sell)
	buy := store.Create(1, "600000", Buy, 100, 4, 0)
	book.Add(buy)

	trades := RunContinuous(book, store, "600000", 0)
	require.Len(t, trades, 1)
	assert.Equal(t, Qty(4), trades[0].Qty)
	assert.Equal(t, Qty(0), buy.RemainingQty)
	assert.Equal(t, Qty(6), sell.RemainingQty)

	bids, asks := book.TopN(5)
	assert.Empty(t, bids)
	require.Len(t, asks, 1)
	assert.Equal(t, Qty(6), asks[0].Qty)
}

func TestRunContinuousNoCrossProducesNoTrades(t *testing.T) {
	store := NewOrderStore()
	book := NewOrderBook(store)
	book.Add(store.Create(1, "600000", Buy, 99, 5, 0))
	book.Add(store.Create(2, "600000", Sell, 101, 5, 0))

	trades := RunContinuous(book, store, "600000", 0)
	assert.Empty(t, trades)
}
