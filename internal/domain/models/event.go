package models

import "time"

// EventKind is the declared type of a classified stream event.
type EventKind string

const (
	KindDepth EventKind = "depth"
	KindTrade EventKind = "trade"
)

// DepthEvent is a scalar summary of order-book depth at sampling time.
type DepthEvent struct {
	Timestamp time.Time `json:"ts"`
	Value     float64   `json:"value"`
}

// TradeEvent is a single trade print.
type TradeEvent struct {
	Timestamp time.Time `json:"ts"`
	Price     float64   `json:"price"`
	Quantity  float64   `json:"quantity"`
}

// Event is the unit handed from the feed to the buffer.
// Exactly one of Depth or Trade is set, matching Kind.
type Event struct {
	Kind  EventKind
	Depth *DepthEvent
	Trade *TradeEvent
}

// NewDepthEvent wraps a depth sample.
func NewDepthEvent(ts time.Time, value float64) Event {
	return Event{Kind: KindDepth, Depth: &DepthEvent{Timestamp: ts, Value: value}}
}

// NewTradeEvent wraps a trade print.
func NewTradeEvent(ts time.Time, price, qty float64) Event {
	return Event{Kind: KindTrade, Trade: &TradeEvent{Timestamp: ts, Price: price, Quantity: qty}}
}

// DepthSnapshot is a point-in-time copy of the depth stream.
// Seq is the total number of depth events ever appended, evicted ones included.
type DepthSnapshot struct {
	Events []DepthEvent
	Seq    uint64
}

// TradeSnapshot is a point-in-time copy of the trade stream.
type TradeSnapshot struct {
	Events []TradeEvent
	Seq    uint64
}
