package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderBookBestBidAsk(t *testing.T) {
	store := NewOrderStore()
	book := NewOrderBook(store)

	book.Add(store.Create(1, "600000", Buy, 100, 10, 0))
	book.Add(store.Create(1, "600000", Buy, 102, 10, 0))
	book.Add(store.Create(2, "600000", Sell, 105, 10, 0))
	book.Add(store.Create(2, "600000", Sell, 103, 10, 0))

	bid, ok := book.BestBid()
	require.True(t, ok)
	assert.Equal(t, Price(102), bid)

	ask, ok := book.BestAsk()
	require.True(t, ok)
	assert.Equal(t, Price(103), ask)
}

func TestOrderBookTopNOrdering(t *testing.T) {
	store := NewOrderStore()
	book := NewOrderBook(store)
	book.Add(store.Create(1, "600000", Buy, 100, 5, 0))
	book.Add(store.Create(1, "600000", Buy, 101, 7, 0))
	book.Add(store.Create(2, "600000", Sell, 110, 3, 0))
	book.Add(store.Create(2, "600000", Sell, 109, 4, 0))

	bids, asks := book.TopN(10)
	require.Len(t, bids, 2)
	assert.Equal(t, Level{Price: 101, Qty: 7}, bids[0])
	assert.Equal(t, Level{Price: 100, Qty: 5}, bids[1])

	require.Len(t, asks, 2)
	assert.Equal(t, Level{Price: 109, Qty: 4}, asks[0])
	assert.Equal(t, Level{Price: 110, Qty: 3}, asks[1])
}

func TestOrderBookTopNRespectsLimit(t *testing.T) {
	store := NewOrderStore()
	book := NewOrderBook(store)
	for p := Price(100); p < 105; p++ {
		book.Add(store.Create(1, "600000", Buy, p, 1, 0))
	}
	bids, _ := book.TopN(2)
	assert.Len(t, bids, 2)
}

func TestOrderBookRemoveErasesEmptyLevel(t *testing.T) {
	store := NewOrderStore()
	book := NewOrderBook(store)
	o := store.Create(1, "600000", Buy, 100, 10, 0)
	book.Add(o)
	book.Remove(o, o.OriginalQty)
	_, ok := book.BestBid()
	assert.False(t, ok)
}

func TestOrderBookFillThenRetire(t *testing.T) {
	store := NewOrderStore()
	book := NewOrderBook(store)
	o := store.Create(1, "600000", Buy, 100, 10, 0)
	book.Add(o)

	book.Fill(Buy, 100, 4)
	bids, _ := book.TopN(1)
	require.Len(t, bids, 1)
	assert.Equal(t, Qty(6), bids[0].Qty)

	o.Execute(6, 100, 0)
	book.Fill(Buy, 100, 6)
	book.Retire(o)
	_, ok := book.BestBid()
	assert.False(t, ok)
}

func TestOrderBookMultipleOrdersSameLevelFIFO(t *testing.T) {
	store := NewOrderStore()
	book := NewOrderBook(store)
	first := store.Create(1, "600000", Buy, 100, 5, 0)
	second := store.Create(2, "600000", Buy, 100, 5, 0)
	book.Add(first)
	book.Add(second)

	levels := book.bidLevelsDesc()
	require.Len(t, levels, 1)
	assert.Equal(t, []OrderID{first.ID, second.ID}, levels[0].ids)
}
