// FILE: metrics.go
// Package main – Prometheus metrics for observability.
//
// Exposes the primary metrics the exchange updates during operation:
//   • exchange_orders_submitted_total{side}   – Count of accepted orders
//   • exchange_orders_rejected_total{code}    – Count of rejected submissions, by ErrorCode
//   • exchange_orders_cancelled_total         – Count of accepted cancels
//   • exchange_trades_total{instrument}       – Count of printed trades
//   • exchange_trade_volume{instrument}       – Cumulative traded quantity (gauge)
//   • exchange_phase{phase}                   – Active-phase indicator (0/1 per label)
//   • exchange_auction_clears_total{instrument} – Count of non-zero auction clears
//
// These are registered in init() and served by the HTTP handler started in
// main.go at /metrics (Prometheus text exposition format).
package main

import "github.com/prometheus/client_golang/prometheus"

var (
	mtxOrdersSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exchange_orders_submitted_total",
			Help: "Orders accepted into the book",
		},
		[]string{"side"},
	)

	mtxOrdersRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exchange_orders_rejected_total",
			Help: "Orders rejected at submission, by error code",
		},
		[]string{"code"},
	)

	mtxOrdersCancelled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "exchange_orders_cancelled_total",
			Help: "Orders successfully cancelled",
		},
	)

	mtxTrades = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exchange_trades_total",
			Help: "Trades printed, by instrument",
		},
		[]string{"instrument"},
	)

	mtxTradeVolume = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "exchange_trade_volume",
			Help: "Cumulative traded quantity, by instrument",
		},
		[]string{"instrument"},
	)

	mtxPhase = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "exchange_phase",
			Help: "Active-phase indicator; one labeled series per phase name is set to 1.",
		},
		[]string{"phase"},
	)

	mtxAuctionClears = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exchange_auction_clears_total",
			Help: "Call/closing auctions that cleared a non-zero volume, by instrument",
		},
		[]string{"instrument"},
	)
)

func init() {
	prometheus.MustRegister(mtxOrdersSubmitted, mtxOrdersRejected, mtxOrdersCancelled)
	prometheus.MustRegister(mtxTrades, mtxTradeVolume)
	prometheus.MustRegister(mtxPhase, mtxAuctionClears)
}

// SetActivePhaseMetric flips every known phase series to 0 except active,
// which is set to 1 — mirrors the teacher's labeled-series-flip pattern for
// a single active indicator (metrics.go's SetModelModeMetric).
func SetActivePhaseMetric(phases []Phase, active string) {
	for _, p := range phases {
		if p.Name == active {
			mtxPhase.WithLabelValues(p.Name).Set(1)
		} else {
			mtxPhase.WithLabelValues(p.Name).Set(0)
		}
	}
}

func IncOrderSubmitted(side Side)     { mtxOrdersSubmitted.WithLabelValues(string(side)).Inc() }
func IncOrderRejected(code ErrorCode) { mtxOrdersRejected.WithLabelValues(string(code)).Inc() }
func IncOrderCancelled()              { mtxOrdersCancelled.Inc() }
func IncAuctionClear(instrument string) {
	mtxAuctionClears.WithLabelValues(instrument).Inc()
}

func ObserveTrade(instrument string, qty Qty) {
	mtxTrades.WithLabelValues(instrument).Inc()
	mtxTradeVolume.WithLabelValues(instrument).Add(float64(qty))
}
