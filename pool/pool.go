// Package pool implements the collateral pool of spec §3/§4.4: an ordered
// set of assets plus aggregate state re-derivable from its elements.
package pool

import (
	"github.com/cloanalytics/dealengine/asset"
	"github.com/cloanalytics/dealengine/dealerr"
	"github.com/cloanalytics/dealengine/money"
	"github.com/cloanalytics/dealengine/pool/filter"
	"github.com/cloanalytics/dealengine/rating"
)

// Pool is an ordered set of assets plus the aggregate state of spec §3:
// total par, defaulted par, and weighted-average metrics. Aggregates are
// never cached incrementally across mutations — Totals and WeightedAverage
// always re-derive from the current element list, satisfying the
// re-derivation invariant directly rather than by construction.
type Pool struct {
	assets []*asset.Asset
}

// New constructs a Pool from an initial asset list.
func New(assets []*asset.Asset) *Pool {
	p := &Pool{}
	p.assets = append(p.assets, assets...)
	return p
}

// Add appends a to the pool (deal inception or reinvestment purchase).
func (p *Pool) Add(a *asset.Asset) {
	p.assets = append(p.assets, a)
}

// Remove deletes the asset with the given id (sale, maturity, or full
// paydown) and reports whether it was found.
func (p *Pool) Remove(id string) bool {
	for i, a := range p.assets {
		if a.ID == id {
			p.assets = append(p.assets[:i], p.assets[i+1:]...)
			return true
		}
	}
	return false
}

// Assets returns the pool's current elements. The returned slice shares
// backing storage with the pool and must not be mutated by callers that
// also intend to call Add/Remove concurrently.
func (p *Pool) Assets() []*asset.Asset {
	return p.assets
}

// TotalPar returns the sum of current balances across non-defaulted and
// defaulted assets alike (spec §3: "total par").
func (p *Pool) TotalPar() money.Decimal {
	total := money.Zero
	for _, a := range p.assets {
		total = total.Add(a.CurrentBalance)
	}
	return total
}

// DefaultedPar returns the sum of current balances of assets flagged
// defaulted.
func (p *Pool) DefaultedPar() money.Decimal {
	total := money.Zero
	for _, a := range p.assets {
		if a.Defaulted {
			total = total.Add(a.CurrentBalance)
		}
	}
	return total
}

// Metric identifies a weighted-average aggregate computed by WeightedAverage.
type Metric int

const (
	MetricCoupon Metric = iota
	MetricSpread
	MetricRecovery
	MetricRatingFactor
)

// WeightedAverage computes the par-weighted average of metric across the
// pool's non-defaulted assets (spec §4.6: WAS, WARF, weighted-average
// recovery). Returns zero for an empty pool.
func (p *Pool) WeightedAverage(m Metric) (money.Decimal, error) {
	totalWeight := money.Zero
	weighted := money.Zero

	for _, a := range p.assets {
		if a.Defaulted || a.CurrentBalance.IsZero() {
			continue
		}
		var value money.Decimal
		switch m {
		case MetricCoupon:
			value = a.FixedRate
		case MetricSpread:
			value = a.Spread
		case MetricRecovery:
			r, err := rating.Recovery(a.Rating.Moody)
			if err != nil {
				continue
			}
			value = money.NewFromFloat(r)
		case MetricRatingFactor:
			f, err := rating.Factor(a.Rating.Moody)
			if err != nil {
				continue
			}
			value = money.NewFromInt(int64(f))
		default:
			return money.Zero, dealerr.NewBadInput("pool: unknown weighted-average metric %d", m)
		}
		weighted = weighted.Add(a.CurrentBalance.Mul(value))
		totalWeight = totalWeight.Add(a.CurrentBalance)
	}

	if totalWeight.IsZero() {
		return money.Zero, nil
	}
	return weighted.Div(totalWeight), nil
}

// Filter evaluates expr against every asset and returns the matching subset.
// getter adapts asset fields into filter.Value lookups by name.
func (p *Pool) Filter(expr filter.Expr) ([]*asset.Asset, error) {
	var out []*asset.Asset
	for _, a := range p.assets {
		ok, err := filter.Eval(expr, assetGetter(a))
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, a)
		}
	}
	return out, nil
}

// assetGetter exposes the field vocabulary the pool filter grammar supports,
// per spec §4.4.
func assetGetter(a *asset.Asset) filter.Getter {
	return func(field string) (filter.Value, error) {
		switch field {
		case "seniority":
			return filter.Value{IsString: true, Str: string(a.Seniority)}, nil
		case "industry_moody":
			return filter.Value{IsString: true, Str: a.IndustryMoody}, nil
		case "industry_sp":
			return filter.Value{IsString: true, Str: a.IndustrySP}, nil
		case "country":
			return filter.Value{IsString: true, Str: a.Country}, nil
		case "group":
			return filter.Value{IsString: true, Str: a.GroupCategory}, nil
		case "rating_moody":
			return filter.Value{IsString: true, Str: string(a.Rating.Moody)}, nil
		case "cov_lite":
			return filter.Value{Num: boolToFloat(a.CovLite)}, nil
		case "dip":
			return filter.Value{Num: boolToFloat(a.DIP)}, nil
		case "defaulted":
			return filter.Value{Num: boolToFloat(a.Defaulted)}, nil
		case "current_pay":
			return filter.Value{Num: boolToFloat(a.CurrentPay)}, nil
		case "current_balance":
			f, _ := a.CurrentBalance.Float64()
			return filter.Value{Num: f}, nil
		case "initial_par":
			f, _ := a.InitialPar.Float64()
			return filter.Value{Num: f}, nil
		case "spread":
			f, _ := a.Spread.Float64()
			return filter.Value{Num: f}, nil
		case "fixed_rate":
			f, _ := a.FixedRate.Float64()
			return filter.Value{Num: f}, nil
		default:
			return filter.Value{}, dealerr.NewBadInput("pool: unknown filter field %q", field)
		}
	}
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
