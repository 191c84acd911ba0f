package execution

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/AMOL-023/fx-microstructure-alpha/internal/market"
)

const (
	// SlippageNone disables the impact penalty; fills pay only the spread.
	SlippageNone = "none"
	// SlippageLinear scales the penalty linearly with order size over displayed size.
	SlippageLinear = "linear"
	// SlippageSqrt scales the penalty with the square root of size over displayed size.
	SlippageSqrt = "sqrt"

	// LatencyFixed delays every order by the same duration.
	LatencyFixed = "fixed"
	// LatencyUniform draws each delay uniformly from [min, max] using the run seed.
	LatencyUniform = "uniform"
)

// Params expresses the friction knobs applied to every simulated order.
type Params struct {
	SlippageModel string
	ImpactCoeff   float64
	LatencyModel  string
	Latency       time.Duration
	LatencyMin    time.Duration
	LatencyMax    time.Duration
	Seed          int64
}

// Model prices intents against prevailing quotes. One model serves one run; the
// latency generator is seeded per run so replays are deterministic.
type Model struct {
	impact  func(ratio float64) float64
	coeff   float64
	latency func() time.Duration
}

// NewModel validates the closed variant sets and resolves them into a pricing model.
func NewModel(params Params) (*Model, error) {
	if params.ImpactCoeff < 0 {
		return nil, fmt.Errorf("impact coefficient must be non-negative, got %.4f", params.ImpactCoeff)
	}

	m := &Model{coeff: params.ImpactCoeff}

	switch strings.ToLower(strings.TrimSpace(params.SlippageModel)) {
	case "", SlippageNone:
		m.impact = func(float64) float64 { return 0 }
		m.coeff = 0
	case SlippageLinear:
		m.impact = func(ratio float64) float64 { return ratio }
	case SlippageSqrt:
		m.impact = math.Sqrt
	default:
		return nil, fmt.Errorf("unknown slippage model %q", params.SlippageModel)
	}

	switch strings.ToLower(strings.TrimSpace(params.LatencyModel)) {
	case "", LatencyFixed:
		if params.Latency < 0 {
			return nil, fmt.Errorf("latency must be non-negative, got %s", params.Latency)
		}
		fixed := params.Latency
		m.latency = func() time.Duration { return fixed }
	case LatencyUniform:
		lo, hi := params.LatencyMin, params.LatencyMax
		if lo < 0 || hi < lo {
			return nil, fmt.Errorf("uniform latency requires 0 <= min <= max, got [%s, %s]", lo, hi)
		}
		rng := rand.New(rand.NewSource(params.Seed))
		m.latency = func() time.Duration {
			return lo + time.Duration(rng.Int63n(int64(hi-lo)+1))
		}
	default:
		return nil, fmt.Errorf("unknown latency model %q", params.LatencyModel)
	}

	return m, nil
}

// Latency returns the modeled submission delay for the next order.
func (m *Model) Latency() time.Duration { return m.latency() }

// Execute prices an intent against the quote prevailing at its execution time. The
// order always crosses the spread: buys lift the ask, sells hit the bid, and the
// impact penalty pushes the price further in the adverse direction. Zero-size intents
// must be filtered by the caller.
func (m *Model) Execute(seq int64, intent Intent, q market.Quote) Fill {
	size := math.Abs(intent.Delta)
	half := q.Spread() / 2

	side := Buy
	price := q.Ask
	displayed := q.AskSize
	if intent.Delta < 0 {
		side = Sell
		price = q.Bid
		displayed = q.BidSize
	}

	// Zero displayed depth means the order consumes the whole level.
	ratio := 1.0
	if displayed > 0 {
		ratio = size / displayed
	}
	penalty := m.coeff * m.impact(ratio) * half
	if side == Buy {
		price += penalty
	} else {
		price -= penalty
	}

	return Fill{
		Seq:          seq,
		DecisionTs:   intent.DecisionTs,
		ExecTs:       q.Ts,
		Side:         side,
		Size:         size,
		Price:        price,
		Mid:          q.Mid(),
		SpreadCost:   half * size,
		SlippageCost: penalty * size,
		Reason:       intent.Reason,
	}
}
