// FILE: instrument.go
// Package main – Instrument metadata, price-limit bands, and minute-candle
// aggregation.
//
// Candle aggregation is kept as a small state machine keyed on
// floor(ts/60), isolated here rather than sprinkled across the façade
// (spec.md §9).
package main

import "sync"

// PriceBand is the daily permissible [floor, ceiling] for submitted prices.
type PriceBand struct {
	Floor   Price
	Ceiling Price
}

// Candle is one aggregated per-minute OHLCV record.
type Candle struct {
	MinuteTS Timestamp
	Open     Price
	High     Price
	Low      Price
	Close    Price
	Volume   Qty
	Turnover uint64
	Avg      uint64 // Turnover / Volume; 0 when Volume == 0 (heartbeat candle)
}

// DailyStats accumulates the whole-day OHLCV aggregate.
type DailyStats struct {
	Open      Price
	Close     Price
	HasOpen   bool
	HasClose  bool
	High      Price
	Low       Price
	Amplitude float64 // (High-Low)/Low * 100, when both > 0
	Volume    Qty
	Turnover  uint64
}

// Instrument is one tradable stock: reference price, current price, band,
// daily aggregate, and minute-candle history.
type Instrument struct {
	Code           string
	Name           string
	ReferencePrice Price
	CurrentPrice   Price
	Band           PriceBand
	Daily          DailyStats
	Candles        []Candle
}

// InstrumentRegistry owns every Instrument for the process lifetime.
type InstrumentRegistry struct {
	mu         sync.RWMutex
	instruments map[string]*Instrument
	limitPct   float64
}

// NewInstrumentRegistry builds a registry with the given price-limit
// fraction (e.g. 0.10 for +/-10%).
func NewInstrumentRegistry(limitPct float64) *InstrumentRegistry {
	return &InstrumentRegistry{instruments: make(map[string]*Instrument), limitPct: limitPct}
}

// Add registers a new instrument, deriving its price band from
// referencePrice. Rejects duplicates.
func (r *InstrumentRegistry) Add(code, name string, referencePrice Price) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.instruments[code]; ok {
		return newErr("add_instrument", CodeStockAlreadyExists, code)
	}
	band := priceBand(referencePrice, r.limitPct)
	r.instruments[code] = &Instrument{
		Code:           code,
		Name:           name,
		ReferencePrice: referencePrice,
		CurrentPrice:   referencePrice,
		Band:           band,
	}
	return nil
}

func priceBand(reference Price, pct float64) PriceBand {
	floor := roundPrice(float64(reference) * (1 - pct))
	ceil := roundPrice(float64(reference) * (1 + pct))
	return PriceBand{Floor: floor, Ceiling: ceil}
}

func roundPrice(v float64) Price {
	if v < 0 {
		return 0
	}
	return Price(v + 0.5)
}

// Get returns the instrument by code, or nil if unknown.
func (r *InstrumentRegistry) Get(code string) *Instrument {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.instruments[code]
}

// Codes returns every registered instrument code.
func (r *InstrumentRegistry) Codes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	codes := make([]string, 0, len(r.instruments))
	for c := range r.instruments {
		codes = append(codes, c)
	}
	return codes
}

// RecordTrade folds one print into the instrument's minute candle and daily
// aggregate. It sets CurrentPrice and, on the first print of the day, Open.
func (r *InstrumentRegistry) RecordTrade(code string, ts Timestamp, price Price, qty Qty) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inst, ok := r.instruments[code]
	if !ok {
		return
	}
	inst.CurrentPrice = price
	applyDailyTrade(&inst.Daily, price, qty)
	appendCandle(inst, ts, price, qty)
}

// Heartbeat stamps a qty=0 candle carrying the current price forward for a
// minute with no fills. Only called for phases with RecordHistory set.
func (r *InstrumentRegistry) Heartbeat(code string, ts Timestamp) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inst, ok := r.instruments[code]
	if !ok {
		return
	}
	appendCandle(inst, ts, inst.CurrentPrice, 0)
}

func applyDailyTrade(d *DailyStats, price Price, qty Qty) {
	if !d.HasOpen {
		d.Open = price
		d.HasOpen = true
		d.High = price
		d.Low = price
	} else {
		if price > d.High {
			d.High = price
		}
		if price < d.Low {
			d.Low = price
		}
	}
	if d.High > 0 && d.Low > 0 {
		d.Amplitude = float64(d.High-d.Low) / float64(d.Low) * 100
	}
	d.Volume += qty
	d.Turnover += uint64(price) * uint64(qty)
}

// CloseDay sets the daily close to the current price. Called at the end of
// the closing-auction phase.
func (r *InstrumentRegistry) CloseDay(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inst, ok := r.instruments[code]
	if !ok {
		return
	}
	inst.Daily.Close = inst.CurrentPrice
	inst.Daily.HasClose = true
}

// appendCandle updates the last candle in place when ts falls in the same
// minute, otherwise appends a new one. qty == 0 marks a heartbeat: it
// carries price forward as Close but never perturbs High/Low of an existing
// candle for that minute, and its Avg stays 0.
func appendCandle(inst *Instrument, ts Timestamp, price Price, qty Qty) {
	minute := ts / 60
	if n := len(inst.Candles); n > 0 && inst.Candles[n-1].MinuteTS == minute {
		c := &inst.Candles[n-1]
		if qty > 0 {
			c.Volume += qty
			c.Turnover += uint64(price) * uint64(qty)
			c.Avg = c.Turnover / c.Volume
			if price > c.High {
				c.High = price
			}
			if price < c.Low {
				c.Low = price
			}
		}
		c.Close = price
		return
	}
	c := Candle{MinuteTS: minute, Open: price, High: price, Low: price, Close: price}
	if qty > 0 {
		c.Volume = qty
		c.Turnover = uint64(price) * uint64(qty)
		c.Avg = c.Turnover / c.Volume
	}
	inst.Candles = append(inst.Candles, c)
}

// CandlesBetween returns minute candles whose MinuteTS*60 falls within
// [startTS, endTS] inclusive.
func (r *InstrumentRegistry) CandlesBetween(code string, startTS, endTS Timestamp) []Candle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inst, ok := r.instruments[code]
	if !ok {
		return nil
	}
	var out []Candle
	for _, c := range inst.Candles {
		t := c.MinuteTS * 60
		if t >= startTS && t <= endTS {
			out = append(out, c)
		}
	}
	return out
}
