// FILE: orderbook.go
// Package main – Per-instrument price-indexed order book.
//
// Parallel aggregate indices (bid_qty/ask_qty alongside bids/asks) are an
// error-prone pattern on their own (spec.md §9), so both the FIFO and the
// aggregate live on one PriceLevel rather than in separate maps. Add and
// Remove update both together through level.add/level.remove; Fill lowers
// only the aggregate and Retire drops only the FIFO entry, so a matcher calls
// Fill for every fill and Retire once an order is fully filled.
package main

import "sort"

// PriceLevel holds every resting order id at one price, FIFO, plus the live
// sum of their RemainingQty.
type PriceLevel struct {
	Price Price
	ids   []OrderID // FIFO, earliest first
	qty   Qty
}

func (pl *PriceLevel) add(id OrderID, qty Qty) {
	pl.ids = append(pl.ids, id)
	pl.qty += qty
}

// remove strips id from the FIFO and decrements the aggregate by qty (the
// order's RemainingQty when the façade cancels it). Reports whether the
// level is now empty.
func (pl *PriceLevel) remove(id OrderID, qty Qty) (empty bool) {
	for i, v := range pl.ids {
		if v == id {
			pl.ids = append(pl.ids[:i], pl.ids[i+1:]...)
			break
		}
	}
	if qty > pl.qty {
		qty = pl.qty
	}
	pl.qty -= qty
	return len(pl.ids) == 0
}

// OrderBook is the bid/ask book for a single instrument.
type OrderBook struct {
	bids map[Price]*PriceLevel
	asks map[Price]*PriceLevel
	// resolver for order lookups during add/remove bookkeeping; the book
	// itself holds only ids (spec.md §9: arena/ids, not pointer graphs).
	store *OrderStore
}

func NewOrderBook(store *OrderStore) *OrderBook {
	return &OrderBook{
		bids:  make(map[Price]*PriceLevel),
		asks:  make(map[Price]*PriceLevel),
		store: store,
	}
}

func (b *OrderBook) sideMap(side Side) map[Price]*PriceLevel {
	if side == Buy {
		return b.bids
	}
	return b.asks
}

// Add appends order.id to the FIFO at its limit price and increments the
// aggregate by OriginalQty.
func (b *OrderBook) Add(o *Order) {
	m := b.sideMap(o.Side)
	lvl, ok := m[o.LimitPrice]
	if !ok {
		lvl = &PriceLevel{Price: o.LimitPrice}
		m[o.LimitPrice] = lvl
	}
	lvl.add(o.ID, o.OriginalQty)
}

// Remove strips id from its level's FIFO and decrements the aggregate by
// qty. An empty level is erased entirely.
func (b *OrderBook) Remove(o *Order, qty Qty) {
	m := b.sideMap(o.Side)
	lvl, ok := m[o.LimitPrice]
	if !ok {
		return
	}
	if lvl.remove(o.ID, qty) {
		delete(m, o.LimitPrice)
	}
}

// Fill decrements the aggregate at (side, price) by qty without touching the
// FIFO — used mid-crossing for every fill; a fully filled order is then
// dropped from the FIFO by Retire.
func (b *OrderBook) Fill(side Side, price Price, qty Qty) {
	m := b.sideMap(side)
	if lvl, ok := m[price]; ok {
		if qty > lvl.qty {
			qty = lvl.qty
		}
		lvl.qty -= qty
	}
}

// Retire removes a fully-filled order's id from its level's FIFO. The
// aggregate has already been brought down to date via Fill calls, so this
// only touches the FIFO; an emptied level is erased.
func (b *OrderBook) Retire(o *Order) {
	m := b.sideMap(o.Side)
	lvl, ok := m[o.LimitPrice]
	if !ok {
		return
	}
	for i, v := range lvl.ids {
		if v == o.ID {
			lvl.ids = append(lvl.ids[:i], lvl.ids[i+1:]...)
			break
		}
	}
	if len(lvl.ids) == 0 {
		delete(m, o.LimitPrice)
	}
}

// BestBid returns the highest resting bid price and whether one exists.
func (b *OrderBook) BestBid() (Price, bool) {
	return bestPrice(b.bids, true)
}

// BestAsk returns the lowest resting ask price and whether one exists.
func (b *OrderBook) BestAsk() (Price, bool) {
	return bestPrice(b.asks, false)
}

func bestPrice(m map[Price]*PriceLevel, descending bool) (Price, bool) {
	if len(m) == 0 {
		return 0, false
	}
	prices := sortedPrices(m, descending)
	return prices[0], true
}

func sortedPrices(m map[Price]*PriceLevel, descending bool) []Price {
	prices := make([]Price, 0, len(m))
	for p := range m {
		prices = append(prices, p)
	}
	if descending {
		sort.Slice(prices, func(i, j int) bool { return prices[i] > prices[j] })
	} else {
		sort.Slice(prices, func(i, j int) bool { return prices[i] < prices[j] })
	}
	return prices
}

// TopN returns up to limit (price, aggregate qty) levels per side: bids
// descending, asks ascending.
func (b *OrderBook) TopN(limit int) (bidsDesc []Level, asksAsc []Level) {
	for _, p := range sortedPrices(b.bids, true) {
		if len(bidsDesc) >= limit {
			break
		}
		bidsDesc = append(bidsDesc, Level{Price: p, Qty: b.bids[p].qty})
	}
	for _, p := range sortedPrices(b.asks, false) {
		if len(asksAsc) >= limit {
			break
		}
		asksAsc = append(asksAsc, Level{Price: p, Qty: b.asks[p].qty})
	}
	return bidsDesc, asksAsc
}

// bidLevelsDesc/askLevelsAsc give matchers ordered access to every level
// (not capped to top-N) for crossing and auction discovery.
func (b *OrderBook) bidLevelsDesc() []*PriceLevel {
	out := make([]*PriceLevel, 0, len(b.bids))
	for _, p := range sortedPrices(b.bids, true) {
		out = append(out, b.bids[p])
	}
	return out
}

func (b *OrderBook) askLevelsAsc() []*PriceLevel {
	out := make([]*PriceLevel, 0, len(b.asks))
	for _, p := range sortedPrices(b.asks, false) {
		out = append(out, b.asks[p])
	}
	return out
}
