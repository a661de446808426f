package models

import "time"

// Metrics is the fixed-shape output of one compute tick.
type Metrics struct {
	D     float64 `json:"D"`
	OFI   float64 `json:"OFI"`
	S     float64 `json:"S"`
	CI    float64 `json:"CI"`
	Sigma float64 `json:"sigma"`
	TL    float64 `json:"T_L"`
	Phi   float64 `json:"phi"`
	Kappa float64 `json:"kappa"`
	MuDot float64 `json:"mu_dot"`
}

// Fields returns the metrics keyed by their wire names.
func (m Metrics) Fields() map[string]float64 {
	return map[string]float64{
		"D":      m.D,
		"OFI":    m.OFI,
		"S":      m.S,
		"CI":     m.CI,
		"sigma":  m.Sigma,
		"T_L":    m.TL,
		"phi":    m.Phi,
		"kappa":  m.Kappa,
		"mu_dot": m.MuDot,
	}
}

// Regime is a coarse market-state label. The zero value means unclassified.
type Regime string

const (
	RegimeUnclassified Regime = ""
	RegimeFlat         Regime = "FLAT"
	RegimeTrend        Regime = "TREND"
	RegimeTurbulence   Regime = "TURBULENCE"
)

func (r Regime) String() string {
	if r == RegimeUnclassified {
		return "UNCLASSIFIED"
	}
	return string(r)
}

// Transition records a regime change.
type Transition struct {
	Symbol  string    `json:"symbol"`
	From    Regime    `json:"from"`
	To      Regime    `json:"to"`
	At      time.Time `json:"at"`
	Metrics Metrics   `json:"metrics"`
}

// Snapshot is the read model exposed to dashboards.
type Snapshot struct {
	Symbol     string    `json:"symbol"`
	Regime     Regime    `json:"regime"`
	Metrics    Metrics   `json:"metrics"`
	ComputedAt time.Time `json:"computed_at"`
	DepthLen   int       `json:"depth_len"`
	TradeLen   int       `json:"trade_len"`
}

// Alert is the payload pushed to machine-readable channels (Kafka, webhooks).
type Alert struct {
	ID      string    `json:"id"`
	Symbol  string    `json:"symbol"`
	Regime  Regime    `json:"regime"`
	At      time.Time `json:"at"`
	Metrics Metrics   `json:"metrics"`
}
