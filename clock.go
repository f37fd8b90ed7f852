// FILE: clock.go
// Package main – Tick-driven session clock.
//
// A Session holds the ordered list of trading-day phases and the current
// timestamp. advance(ts) rejects regressions and otherwise recomputes the
// active/next phase by linear scan — the reference schedule has only seven
// entries, so a scan beats maintaining an index structure for no benefit.
package main

import (
	"fmt"
	"strconv"
	"strings"
)

// PhaseKind is a tagged sum of the phases a trading day can be in. Keeping
// this as an explicit enum (rather than a string key like "opening_auction")
// lets callers switch over it exhaustively.
type PhaseKind int

const (
	CallAuctionCancellable PhaseKind = iota
	CallAuctionFrozen
	OpeningAuction
	Continuous
	MiddayBreak
	ClosingAuction
)

func (k PhaseKind) String() string {
	switch k {
	case CallAuctionCancellable:
		return "CallAuctionCancellable"
	case CallAuctionFrozen:
		return "CallAuctionFrozen"
	case OpeningAuction:
		return "OpeningAuction"
	case Continuous:
		return "Continuous"
	case MiddayBreak:
		return "MiddayBreak"
	case ClosingAuction:
		return "ClosingAuction"
	default:
		return "Unknown"
	}
}

// Phase is one named window of the trading day and the policy flags that
// apply while it is active.
type Phase struct {
	Name           string
	StartTS        Timestamp
	EndTS          Timestamp
	Kind           PhaseKind
	AllowSubmit    bool
	AllowCancel    bool
	AllowMatch     bool
	RecordHistory bool
}

func (p Phase) String() string {
	return fmt.Sprintf("%s (%s-%s)", p.Name, FormatTimestamp(p.StartTS), FormatTimestamp(p.EndTS))
}

// DefaultSchedule is the reference mainland-China trading day (spec.md §6).
func DefaultSchedule() []Phase {
	mustTS := func(s string) Timestamp {
		ts, err := ParseTimestamp(s)
		if err != nil {
			panic(err)
		}
		return ts
	}
	return []Phase{
		{
			Name: "call-auction-cancellable", Kind: CallAuctionCancellable,
			StartTS: mustTS("09:15:00"), EndTS: mustTS("09:19:59"),
			AllowSubmit: true, AllowCancel: true, AllowMatch: false, RecordHistory: false,
		},
		{
			Name: "call-auction-frozen", Kind: CallAuctionFrozen,
			StartTS: mustTS("09:20:00"), EndTS: mustTS("09:24:59"),
			AllowSubmit: true, AllowCancel: false, AllowMatch: false, RecordHistory: false,
		},
		{
			Name: "opening-auction", Kind: OpeningAuction,
			StartTS: mustTS("09:25:00"), EndTS: mustTS("09:29:59"),
			AllowSubmit: true, AllowCancel: false, AllowMatch: true, RecordHistory: false,
		},
		{
			Name: "continuous-morning", Kind: Continuous,
			StartTS: mustTS("09:30:00"), EndTS: mustTS("11:29:59"),
			AllowSubmit: true, AllowCancel: true, AllowMatch: true, RecordHistory: true,
		},
		{
			Name: "midday-break", Kind: MiddayBreak,
			StartTS: mustTS("11:30:00"), EndTS: mustTS("13:00:00"),
			AllowSubmit: false, AllowCancel: false, AllowMatch: false, RecordHistory: false,
		},
		{
			Name: "continuous-afternoon", Kind: Continuous,
			StartTS: mustTS("13:00:00"), EndTS: mustTS("14:56:59"),
			AllowSubmit: true, AllowCancel: true, AllowMatch: true, RecordHistory: true,
		},
		{
			Name: "closing-auction", Kind: ClosingAuction,
			StartTS: mustTS("14:57:00"), EndTS: mustTS("15:00:00"),
			AllowSubmit: true, AllowCancel: false, AllowMatch: true, RecordHistory: true,
		},
	}
}

// Session tracks the current timestamp against an ordered phase list.
type Session struct {
	phases  []Phase
	current Timestamp
	active  *Phase
	next    *Phase
}

// NewSession builds a Session over the given phase list. Phases need not be
// disjoint — when two windows overlap (the reference schedule has 13:00:00
// as both the midday break's end and the afternoon session's start) the
// earliest phase in list order wins; callers must supply phases in the order
// they want that tie resolved.
func NewSession(phases []Phase) *Session {
	return &Session{phases: phases}
}

// Advance moves the clock to ts. Regressions (ts < current) are a no-op, and
// so is a repeat of the current tick once a phase is active.
func (s *Session) Advance(ts Timestamp) {
	if ts < s.current || (ts == s.current && s.active != nil) {
		return
	}
	s.current = ts
	s.recompute()
}

func (s *Session) recompute() {
	s.active = nil
	s.next = nil
	for i := range s.phases {
		p := &s.phases[i]
		if s.active == nil && s.current >= p.StartTS && s.current <= p.EndTS {
			s.active = p
		}
		if s.next == nil && s.current < p.StartTS {
			s.next = p
		}
	}
}

// Reset returns the clock to 0 (day rollover).
func (s *Session) Reset() {
	s.current = 0
	s.recompute()
}

func (s *Session) Current() Timestamp { return s.current }

// ActivePhase returns the currently active phase, or nil outside trading
// hours.
func (s *Session) ActivePhase() *Phase { return s.active }

// NextPhase returns the next phase to start after the current timestamp, or
// nil if none remain today.
func (s *Session) NextPhase() *Phase { return s.next }

func (s *Session) AllowSubmit() bool { return s.active != nil && s.active.AllowSubmit }
func (s *Session) AllowCancel() bool { return s.active != nil && s.active.AllowCancel }
func (s *Session) AllowMatch() bool  { return s.active != nil && s.active.AllowMatch }
func (s *Session) RecordHistory() bool {
	return s.active != nil && s.active.RecordHistory
}

// ParseTimestamp parses "HH:MM:SS" (24h) into seconds since midnight.
func ParseTimestamp(s string) (Timestamp, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("malformed timestamp %q: want HH:MM:SS", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("malformed timestamp %q: bad hour", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("malformed timestamp %q: bad minute", s)
	}
	sec, err := strconv.Atoi(parts[2])
	if err != nil || sec < 0 || sec > 59 {
		return 0, fmt.Errorf("malformed timestamp %q: bad second", s)
	}
	return Timestamp(h*3600 + m*60 + sec), nil
}

// FormatTimestamp renders seconds-since-midnight as "HH:MM:SS".
func FormatTimestamp(ts Timestamp) string {
	h := ts / 3600
	m := (ts % 3600) / 60
	s := ts % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
