package regime

import (
	"math"
	"sync"
	"time"

	"RegimeWatch/internal/domain/models"
	"RegimeWatch/pkg/logger"
)

// flatCI is the concentration index above which a quiet market is FLAT.
const flatCI = 0.6

// Thresholds are the externally configured decision constants.
type Thresholds struct {
	MuEps     float64
	SigmaLow  float64
	SigmaMed  float64
	SigmaHigh float64
	KappaCrit float64
}

// Classifier maps metrics to a regime, remembering the last regime for hysteresis.
type Classifier struct {
	th  Thresholds
	log *logger.Logger
	now func() time.Time

	mu      sync.Mutex
	current models.Regime
}

func New(th Thresholds, l *logger.Logger) *Classifier {
	if l == nil {
		l = logger.Nop()
	}
	return &Classifier{th: th, log: l, now: time.Now}
}

// Decide applies the priority rules to m. prev is returned when no rule matches,
// or FLAT if prev is unclassified.
func Decide(th Thresholds, m models.Metrics, prev models.Regime) models.Regime {
	mu := math.Abs(m.MuDot)
	switch {
	case m.CI > flatCI && mu < th.MuEps && m.Sigma < th.SigmaLow:
		return models.RegimeFlat
	case mu >= th.MuEps && m.Sigma < th.SigmaMed:
		return models.RegimeTrend
	case m.Sigma >= th.SigmaHigh || m.Kappa > th.KappaCrit:
		return models.RegimeTurbulence
	case prev != models.RegimeUnclassified:
		return prev
	default:
		return models.RegimeFlat
	}
}

// Classify returns the regime for m. The transition is non-nil only when the regime changed,
// including the first classification.
func (c *Classifier) Classify(m models.Metrics) (models.Regime, *models.Transition) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := Decide(c.th, m, c.current)
	if next == c.current {
		return next, nil
	}

	tr := &models.Transition{From: c.current, To: next, At: c.now(), Metrics: m}
	c.log.Info("regime transition",
		logger.String("from", c.current.String()),
		logger.String("to", next.String()),
	)
	c.current = next
	return next, tr
}

// Current returns the held regime (unclassified before the first call).
func (c *Classifier) Current() models.Regime {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}
