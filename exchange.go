// FILE: exchange.go
// Package main – Exchange façade: orchestrates clock, stores, ledger, books,
// registry, and the two matchers behind phase-gated entrypoints.
//
// Concurrency (spec.md §5): single-threaded and cooperative. Every public
// method takes mu for its whole duration — unlike the teacher's Trader.step,
// there is no external I/O inside the core to release the lock around; book
// and matcher mutation is pure in-process work, so one exclusive lock for
// the call's lifetime is both correct and simplest.
package main

import (
	"sync"

	"github.com/google/uuid"
)

type instrumentBook struct {
	book *OrderBook
}

// Exchange is the single aggregate owning every piece of exchange state.
type Exchange struct {
	mu sync.Mutex

	session      *Session
	store        *OrderStore
	ledger       *UserLedger
	registry     *InstrumentRegistry
	books        map[string]*instrumentBook
	trades       []Trade // append-only, chronological, across every instrument
	tieBreak     TieBreak
	referenceFor func(code string) Price // used by TieBreakNearest
}

// NewExchange wires a fresh exchange using the reference schedule and a
// +/-10% price-limit band.
func NewExchange() *Exchange {
	return NewExchangeWithSchedule(DefaultSchedule(), 0.10)
}

// NewExchangeWithSchedule allows tests (and the main.go driver) to supply a
// compressed phase list and a different price-limit fraction.
func NewExchangeWithSchedule(phases []Phase, limitPct float64) *Exchange {
	ex := &Exchange{
		session:  NewSession(phases),
		store:    NewOrderStore(),
		ledger:   NewUserLedger(),
		registry: NewInstrumentRegistry(limitPct),
		books:    make(map[string]*instrumentBook),
		tieBreak: TieBreakMiddle,
	}
	ex.referenceFor = func(code string) Price {
		if inst := ex.registry.Get(code); inst != nil {
			return inst.ReferencePrice
		}
		return 0
	}
	return ex
}

// AddInstrument registers a new tradable instrument.
func (ex *Exchange) AddInstrument(code, name string, referencePrice Price) error {
	ex.mu.Lock()
	defer ex.mu.Unlock()
	if err := ex.registry.Add(code, name, referencePrice); err != nil {
		return err
	}
	ex.books[code] = &instrumentBook{book: NewOrderBook(ex.store)}
	return nil
}

// AddUser registers a new user with an initial cash balance.
func (ex *Exchange) AddUser(name string, initialCash uint64) UserID {
	ex.mu.Lock()
	defer ex.mu.Unlock()
	return ex.ledger.CreateUser(name, initialCash)
}

// GrantHoldings seeds an initial position for a user (e.g. a bot).
func (ex *Exchange) GrantHoldings(user UserID, code string, qty Qty) error {
	ex.mu.Lock()
	defer ex.mu.Unlock()
	return ex.ledger.GrantHoldings(user, code, qty)
}

// SubmitOrder gates on allow_submit, enforces the price band, checks
// cash/holdings, and inserts the order into the store and book.
func (ex *Exchange) SubmitOrder(user UserID, code string, side Side, price Price, qty Qty) (OrderID, error) {
	ex.mu.Lock()
	defer ex.mu.Unlock()

	const op = "submit_order"
	reject := func(code ErrorCode, detail string) (OrderID, error) {
		IncOrderRejected(code)
		return 0, newErr(op, code, detail)
	}
	if !ex.session.AllowSubmit() {
		return reject(CodeActionNotAllowed, "submit not allowed in current phase")
	}
	if qty == 0 {
		return reject(CodeInvalidQuantity, "quantity must be > 0")
	}
	inst := ex.registry.Get(code)
	if inst == nil {
		return reject(CodeStockNotFound, code)
	}
	if price < inst.Band.Floor || price > inst.Band.Ceiling {
		return reject(CodePriceOutOfLimit, FormatTimestamp(ex.session.Current()))
	}
	u := ex.ledger.Get(user)
	if u == nil {
		return reject(CodeUserNotFound, "")
	}

	switch side {
	case Buy:
		if u.Cash < price*qty {
			return reject(CodeInsufficientBalance, "")
		}
	case Sell:
		h := u.Holding[code]
		if h == nil || h.Available < qty {
			return reject(CodeInsufficientHoldings, "")
		}
	}

	o := ex.store.Create(user, code, side, price, qty, ex.session.Current())
	ex.books[code].book.Add(o)
	IncOrderSubmitted(side)
	return o.ID, nil
}

// CancelOrder gates on allow_cancel and rejects non-cancellable orders.
func (ex *Exchange) CancelOrder(orderID OrderID) error {
	ex.mu.Lock()
	defer ex.mu.Unlock()

	const op = "cancel_order"
	o := ex.store.Get(orderID)
	if o == nil {
		return newErr(op, CodeOrderNotFound, "")
	}
	if !ex.session.AllowCancel() {
		return newErr(op, CodeActionNotAllowed, "cancel not allowed in current phase")
	}
	if !o.IsCancellable() {
		return newErr(op, CodeOrderNotCancellable, "")
	}
	ib := ex.books[o.Instrument]
	if ib != nil {
		ib.book.Remove(o, o.RemainingQty)
	}
	o.Cancel()
	IncOrderCancelled()
	return nil
}

// AdvanceTo parses "HH:MM:SS", drives the session FSM, and invokes the
// matcher dictated by the resulting phase for every instrument.
func (ex *Exchange) AdvanceTo(hhmmss string) error {
	ts, err := ParseTimestamp(hhmmss)
	if err != nil {
		return newErr("advance_to", CodeActionNotAllowed, err.Error())
	}
	ex.mu.Lock()
	defer ex.mu.Unlock()
	if ts <= ex.session.Current() && ex.session.ActivePhase() != nil {
		// Matches the reference's next_timestamp early return for a
		// regressed/stale tick: no phase recompute, no matcher re-run.
		return nil
	}
	ex.session.Advance(ts)
	ex.runPhaseActions(ts)
	return nil
}

func (ex *Exchange) runPhaseActions(ts Timestamp) {
	phase := ex.session.ActivePhase()
	if phase == nil {
		return
	}
	SetActivePhaseMetric(ex.session.phases, phase.Name)
	for code, ib := range ex.books {
		switch phase.Kind {
		case CallAuctionCancellable:
			// Probe mode (spec.md §4.6): no order is filled here, but the
			// indicative clearing price still publishes into open/candle/
			// daily stats, mirroring the reference's add_price_to_history
			// for the cancellable call-auction phase. Qty is reported as 0
			// since nothing actually traded, so Volume/Turnover are untouched.
			res := RunCallAuction(ib.book, ex.tieBreak, ex.referenceFor(code))
			if res.Qty > 0 {
				ex.registry.RecordTrade(code, ts, res.Price, 0)
			}
		case CallAuctionFrozen:
			// True no-op, matching the reference's execute_match_trades stub:
			// no-cancel call auction neither fills nor updates stats.
		case OpeningAuction, ClosingAuction:
			ex.runAuctionFill(code, ib, ts)
		case Continuous:
			trades := RunContinuous(ib.book, ex.store, code, ts)
			for _, t := range trades {
				ex.trades = append(ex.trades, t)
				ex.registry.RecordTrade(code, ts, t.Price, t.Qty)
				ObserveTrade(code, t.Qty)
			}
		case MiddayBreak:
			// no matching
		}
		if phase.Kind == ClosingAuction && ts == phase.EndTS {
			ex.registry.CloseDay(code)
		}
		if phase.RecordHistory {
			ex.registry.Heartbeat(code, ts)
		}
	}
}

// runAuctionFill resolves Open Question 1: opening and closing auctions
// execute real fills at the uniform clearing price rather than only probing
// it, walking both sides best price first (FIFO within a level) up to the
// cleared volume.
func (ex *Exchange) runAuctionFill(code string, ib *instrumentBook, ts Timestamp) {
	res := RunCallAuction(ib.book, ex.tieBreak, ex.referenceFor(code))
	if res.Qty == 0 {
		return
	}
	IncAuctionClear(code)

	remaining := res.Qty
	bidIDs := collectEligible(ib.book.bidLevelsDesc(), ex.store, res.Price, Buy)
	askIDs := collectEligible(ib.book.askLevelsAsc(), ex.store, res.Price, Sell)

	bi, ai := 0, 0
	for remaining > 0 && bi < len(bidIDs) && ai < len(askIDs) {
		buy := ex.store.Get(bidIDs[bi])
		sell := ex.store.Get(askIDs[ai])
		if buy == nil || buy.RemainingQty == 0 {
			bi++
			continue
		}
		if sell == nil || sell.RemainingQty == 0 {
			ai++
			continue
		}
		q := buy.RemainingQty
		if sell.RemainingQty < q {
			q = sell.RemainingQty
		}
		if remaining < q {
			q = remaining
		}
		if buy.UserID == sell.UserID {
			// Self-trade prevention applies here too; skip the sell side
			// forward without cancelling it. Unlike the continuous matcher,
			// the skipped sell is not offered to later buys in this auction.
			ai++
			continue
		}

		direction := TickFlat
		switch {
		case res.Price > buy.LimitPrice:
			direction = TickUp
		case res.Price < buy.LimitPrice:
			direction = TickDown
		}
		buy.Execute(q, res.Price, ts)
		sell.Execute(q, res.Price, ts)
		ib.book.Fill(Buy, buy.LimitPrice, q)
		ib.book.Fill(Sell, sell.LimitPrice, q)
		remaining -= q
		ex.trades = append(ex.trades, Trade{
			TradeID:     newTradeID(),
			BuyerID:     buy.UserID,
			SellerID:    sell.UserID,
			Instrument:  code,
			Price:       res.Price,
			Qty:         q,
			BuyOrderID:  buy.ID,
			SellOrderID: sell.ID,
			TS:          ts,
			Direction:   direction,
		})
		ex.registry.RecordTrade(code, ts, res.Price, q)
		ObserveTrade(code, q)
		if buy.IsFilled() {
			ib.book.Retire(buy)
			bi++
		}
		if sell.IsFilled() {
			ib.book.Retire(sell)
			ai++
		}
	}
}

// collectEligible flattens every resting order id on side whose limit price
// crosses the clearing price: levels best price first, FIFO within a level.
func collectEligible(levels []*PriceLevel, store *OrderStore, clearing Price, side Side) []OrderID {
	var out []OrderID
	for _, lvl := range levels {
		if side == Buy && lvl.Price < clearing {
			break
		}
		if side == Sell && lvl.Price > clearing {
			break
		}
		out = append(out, lvl.ids...)
	}
	return out
}

// NextTradingDay clears the order store, resets available holdings, and
// resets the clock. It deliberately does not consult a trading calendar —
// that is a Non-goal external collaborator (spec.md §6); a caller deciding
// *when* to call this should use its own weekday-and-holiday check.
func (ex *Exchange) NextTradingDay() {
	ex.mu.Lock()
	defer ex.mu.Unlock()
	ex.store.ClearAll()
	ex.ledger.ResetAvailable()
	ex.session.Reset()
	for code, ib := range ex.books {
		ib.book = NewOrderBook(ex.store)
		if inst := ex.registry.Get(code); inst != nil {
			inst.ReferencePrice = inst.CurrentPrice
			inst.Band = priceBand(inst.ReferencePrice, ex.limitPct())
		}
	}
}

func (ex *Exchange) limitPct() float64 { return ex.registry.limitPct }

// InstrumentInfo is the read-only projection returned by Instrument().
type InstrumentInfo struct {
	Code           string
	Name           string
	ReferencePrice Price
	CurrentPrice   Price
	Band           PriceBand
	Daily          DailyStats
}

// Instrument returns a snapshot of one instrument's public state.
func (ex *Exchange) Instrument(code string) (InstrumentInfo, error) {
	ex.mu.Lock()
	defer ex.mu.Unlock()
	inst := ex.registry.Get(code)
	if inst == nil {
		return InstrumentInfo{}, newErr("stock_info", CodeStockNotFound, code)
	}
	return InstrumentInfo{
		Code: inst.Code, Name: inst.Name, ReferencePrice: inst.ReferencePrice,
		CurrentPrice: inst.CurrentPrice, Band: inst.Band, Daily: inst.Daily,
	}, nil
}

// TopOfBook returns up to n (price, qty) levels per side.
func (ex *Exchange) TopOfBook(code string, n int) (bids, asks []Level, err error) {
	ex.mu.Lock()
	defer ex.mu.Unlock()
	ib, ok := ex.books[code]
	if !ok {
		return nil, nil, newErr("order_queue", CodeStockNotFound, code)
	}
	b, a := ib.book.TopN(n)
	return b, a, nil
}

// Candles returns minute candles in [startHHMMSS, endHHMMSS] inclusive.
func (ex *Exchange) Candles(code, startHHMMSS, endHHMMSS string) ([]Candle, error) {
	start, err := ParseTimestamp(startHHMMSS)
	if err != nil {
		return nil, newErr("candle_history", CodeActionNotAllowed, err.Error())
	}
	end, err := ParseTimestamp(endHHMMSS)
	if err != nil {
		return nil, newErr("candle_history", CodeActionNotAllowed, err.Error())
	}
	ex.mu.Lock()
	defer ex.mu.Unlock()
	if ex.registry.Get(code) == nil {
		return nil, newErr("candle_history", CodeStockNotFound, code)
	}
	return ex.registry.CandlesBetween(code, start, end), nil
}

// Trades returns a page of trade history filtered by instrument code ("" for
// every instrument). total is the count of matching records regardless of
// offset/limit (spec.md §9, Open Question 3); trades is the
// [offset, offset+limit) slice of that same filtered, chronological set.
func (ex *Exchange) Trades(code string, offset, limit int) (trades []Trade, total int, err error) {
	ex.mu.Lock()
	defer ex.mu.Unlock()
	var matching []Trade
	for _, t := range ex.trades {
		if code == "" || t.Instrument == code {
			matching = append(matching, t)
		}
	}
	total = len(matching)
	if limit <= 0 || offset < 0 || offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return append([]Trade(nil), matching[offset:end]...), total, nil
}

func newTradeID() string { return uuid.New().String() }
