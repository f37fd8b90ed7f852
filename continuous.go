// FILE: continuous.go
// Package main – Continuous double-auction crossing with self-trade
// prevention and price-time priority (spec.md §4.7).
//
// One call processes the whole book for one instrument at the current tick:
// bid levels are visited highest price first, ask levels lowest price
// first, and within a level in FIFO (submission) order — the level's id
// slice already is FIFO since OrderBook.Add appends in submission order.
// The level lists are snapshotted once per call (no new orders arrive
// mid-tick); each *PriceLevel in the snapshot is the live object, so
// mutations during matching (Fill/Retire) are visible immediately without
// re-fetching from the book.
package main

import "github.com/google/uuid"

// Trade is an immutable print. TradeID is an externally-facing uuid,
// distinct from the monotonic u64 ids OrderStore hands out for orders —
// mirroring the teacher's own convention of internal monotonic bookkeeping
// plus uuid.New() for anything surfaced outside the process.
type Trade struct {
	TradeID     string
	BuyerID     UserID
	SellerID    UserID
	Instrument  string
	Price       Price
	Qty         Qty
	BuyOrderID  OrderID
	SellOrderID OrderID
	TS          Timestamp
	Direction   TickDirection
}

// RunContinuous crosses book for instrument at ts, mutating both the book
// and the underlying orders, and returns every trade printed.
func RunContinuous(book *OrderBook, store *OrderStore, instrument string, ts Timestamp) []Trade {
	var trades []Trade

	bidLevels := dropEmpty(book.bidLevelsDesc())
	askLevels := dropEmpty(book.askLevelsAsc())

	for _, bidLvl := range bidLevels {
		if len(askLevels) == 0 || bidLvl.Price < askLevels[0].Price {
			// Remaining bid levels are even lower (descending order) and
			// can never cross once the best ask outprices the best bid.
			break
		}
		buyIDs := append([]OrderID(nil), bidLvl.ids...)
		for _, buyID := range buyIDs {
			buy := store.Get(buyID)
			if buy == nil || buy.RemainingQty == 0 {
				continue
			}
			trades = append(trades, matchBuyAgainstAsks(buy, askLevels, book, store, instrument, ts)...)
		}
	}

	return trades
}

// matchBuyAgainstAsks walks askLevels ascending, crossing buy against each
// eligible resting sell until buy is filled, the price no longer crosses,
// or the asks are exhausted.
func matchBuyAgainstAsks(buy *Order, askLevels []*PriceLevel, book *OrderBook, store *OrderStore, instrument string, ts Timestamp) []Trade {
	var trades []Trade
	for _, askLvl := range askLevels {
		if buy.RemainingQty == 0 {
			break
		}
		if askLvl.Price > buy.LimitPrice {
			break
		}
		i := 0
		for i < len(askLvl.ids) && buy.RemainingQty > 0 {
			sell := store.Get(askLvl.ids[i])
			if sell == nil || sell.RemainingQty == 0 {
				i++
				continue
			}
			if sell.UserID == buy.UserID {
				// Self-trade prevention (spec.md §4.7 rule 1): skip this
				// resting counterparty, don't cancel it, and keep scanning
				// the rest of the level — a blocked order must not stall
				// matching against everyone else at the level.
				i++
				continue
			}

			q := buy.RemainingQty
			if sell.RemainingQty < q {
				q = sell.RemainingQty
			}
			price := sell.LimitPrice // resting ask dictates price
			direction := TickFlat
			switch {
			case price > buy.LimitPrice:
				direction = TickUp
			case price < buy.LimitPrice:
				direction = TickDown
			}

			buy.Execute(q, price, ts)
			sell.Execute(q, price, ts)
			book.Fill(Buy, buy.LimitPrice, q)
			book.Fill(Sell, sell.LimitPrice, q)

			trades = append(trades, Trade{
				TradeID:     uuid.New().String(),
				BuyerID:     buy.UserID,
				SellerID:    sell.UserID,
				Instrument:  instrument,
				Price:       price,
				Qty:         q,
				BuyOrderID:  buy.ID,
				SellOrderID: sell.ID,
				TS:          ts,
				Direction:   direction,
			})

			if sell.IsFilled() {
				// Removed before the next price level is considered
				// (spec.md §4.7 edge case b); the slice shifts left so the
				// next candidate lands at the same index i.
				book.Retire(sell)
				continue
			}
			i++
		}
	}
	if buy.IsFilled() {
		book.Retire(buy)
	}
	return trades
}

func dropEmpty(levels []*PriceLevel) []*PriceLevel {
	out := make([]*PriceLevel, 0, len(levels))
	for _, l := range levels {
		if l.qty > 0 {
			out = append(out, l)
		}
	}
	return out
}
