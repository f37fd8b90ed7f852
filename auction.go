// FILE: auction.go
// Package main – Uniform-price call-auction discovery.
//
// Pure, side-effect-free: callers decide whether to execute fills (opening
// and closing auctions) or only probe the price (the cancellable call phase;
// the no-cancel call phase does not run it at all), per spec.md §4.6. The sweep itself mirrors the reference
// algorithm (utils::calculate_max_volume_price): accumulate total bid
// quantity up front, then walk prices ascending, adding ask quantity into a
// running "supply so far" and subtracting bid quantity out of a running
// "demand at or above" — executable(p) = min(demand(p), supply(p)).
package main

// TieBreak selects among prices tied for maximum executable volume.
type TieBreak int

const (
	TieBreakMiddle TieBreak = iota
	TieBreakNearest
)

// AuctionResult is the outcome of one uniform-price discovery pass.
type AuctionResult struct {
	Price Price
	Qty   Qty
}

// RunCallAuction computes the clearing price and volume for book under the
// given tie-break policy. nearestRef is only used by TieBreakNearest.
func RunCallAuction(book *OrderBook, tie TieBreak, nearestRef Price) AuctionResult {
	bidQty := make(map[Price]Qty)
	askQty := make(map[Price]Qty)
	for _, lvl := range book.bidLevelsDesc() {
		if lvl.qty > 0 {
			bidQty[lvl.Price] += lvl.qty
		}
	}
	for _, lvl := range book.askLevelsAsc() {
		if lvl.qty > 0 {
			askQty[lvl.Price] += lvl.qty
		}
	}
	if len(bidQty) == 0 || len(askQty) == 0 {
		return AuctionResult{}
	}

	priceSet := make(map[Price]struct{}, len(bidQty)+len(askQty))
	for p := range bidQty {
		priceSet[p] = struct{}{}
	}
	for p := range askQty {
		priceSet[p] = struct{}{}
	}
	prices := make([]Price, 0, len(priceSet))
	for p := range priceSet {
		prices = append(prices, p)
	}
	sortPricesAsc(prices)

	var demand Qty
	for _, q := range bidQty {
		demand += q
	}

	executable := make([]Qty, len(prices))
	var best Qty
	var supply Qty
	for i, p := range prices {
		supply += askQty[p]
		exec := min64(demand, supply)
		executable[i] = exec
		if exec > best {
			best = exec
		}
		demand -= bidQty[p]
	}
	if best == 0 {
		return AuctionResult{}
	}

	var tied []Price
	for i, p := range prices {
		if executable[i] == best {
			tied = append(tied, p)
		}
	}

	var chosen Price
	switch tie {
	case TieBreakNearest:
		chosen = tied[0]
		bestDiff := absDiff(chosen, nearestRef)
		for _, p := range tied[1:] {
			if d := absDiff(p, nearestRef); d < bestDiff {
				chosen = p
				bestDiff = d
			}
		}
	default: // TieBreakMiddle
		chosen = tied[len(tied)/2]
	}

	return AuctionResult{Price: chosen, Qty: best}
}

func sortPricesAsc(p []Price) {
	for i := 1; i < len(p); i++ {
		for j := i; j > 0 && p[j-1] > p[j]; j-- {
			p[j-1], p[j] = p[j], p[j-1]
		}
	}
}

func min64(a, b Qty) Qty {
	if a < b {
		return a
	}
	return b
}

func absDiff(a, b Price) int64 {
	d := int64(a) - int64(b)
	if d < 0 {
		return -d
	}
	return d
}
