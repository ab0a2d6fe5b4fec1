package scenario

import (
	"strings"
	"time"

	"github.com/cloanalytics/dealengine/asset"
	"github.com/cloanalytics/dealengine/compliance"
	"github.com/cloanalytics/dealengine/feesacct"
	"github.com/cloanalytics/dealengine/liability"
	"github.com/cloanalytics/dealengine/money"
	"github.com/cloanalytics/dealengine/pool"
)

// longDatedYears is the maturity horizon beyond which an asset counts
// toward the "long-dated asset" concentration test (test 37).
const longDatedYears = 7.0

// emergingMarketCountries is a small reference set used by the
// country:emerging_market concentration key; deals needing a different
// definition should supply their own RecomputeComplianceInputs instead of
// this default.
var emergingMarketCountries = map[string]bool{
	"BR": true, "MX": true, "IN": true, "CN": true,
	"ID": true, "TR": true, "ZA": true, "AR": true,
}

// DefaultComplianceInputs is a best-effort compliance.Inputs builder
// derived purely from pool/tranche/ledger state, matching the
// dealengine.DealConfig.RecomputeComplianceInputs contract exactly. It
// computes every concentration and metric key the 54-test registry of
// package compliance looks up (compliance.NewRegistry), and OC_x/IC_x
// coverage keys only for the classes A/B/C the deal's tranches resolve to,
// so coverage tests of absent classes are not applicable. It approximates
// the handful of metrics (WAL, Moody diversity score, JROC) that a fully
// faithful implementation would instead derive from the projected
// cash-flow stream (spec §4.6). scenario.Build installs it as the deal's
// RecomputeComplianceInputs, so it is the builder cmd/dealrunner runs with.
func DefaultComplianceInputs(p *pool.Pool, tranches map[string]*liability.Tranche, ledger *feesacct.Ledger, period int, asOf time.Time) compliance.Inputs {
	assets := p.Assets()
	total := p.TotalPar()

	m := metrics(assets, total, asOf)
	m["JROC"] = jrocRatio(total, tranches)

	in := compliance.Inputs{
		Pool:           p,
		AsOf:           asOf,
		Concentrations: concentrations(assets, total),
		CoverageRatios: coverageRatios(p, tranches, ledger),
		Metrics:        m,
	}
	return in
}

// jrocRatio approximates the junior-class relative overcollateralization
// test (spec §4.6 JROC) as total collateral par over the balance of every
// tranche senior to the single most-junior tranche (the junior-most
// tranche's own balance is excluded from the liability base, which is
// what makes the ratio "relative" to that class).
func jrocRatio(total money.Decimal, tranches map[string]*liability.Tranche) money.Decimal {
	if len(tranches) == 0 {
		return money.Zero
	}
	juniorMost := 0
	for _, t := range tranches {
		if t.Seniority > juniorMost {
			juniorMost = t.Seniority
		}
	}
	seniorBase := money.Zero
	for _, t := range tranches {
		if t.Seniority < juniorMost {
			seniorBase = seniorBase.Add(t.CurrentBalance)
		}
	}
	if seniorBase.IsZero() {
		return money.Zero
	}
	return total.Div(seniorBase)
}

func concentrations(assets []*asset.Asset, total money.Decimal) map[string]money.Decimal {
	out := make(map[string]money.Decimal)
	if total.IsZero() {
		for _, key := range concentrationKeys() {
			out[key] = money.Zero
		}
		return out
	}

	moodyPar := shareByKey(assets, total, func(a *asset.Asset) string { return a.IndustryMoody })
	spPar := shareByKey(assets, total, func(a *asset.Asset) string { return a.IndustrySP })
	moodyRanked := rankShares(moodyPar)

	out["industry_sp:largest"] = topShare(spPar, 0)
	out["industry_moody:largest"] = topNShare(moodyRanked, 1)
	out["industry_moody:second_largest"] = nthShare(moodyRanked, 1)
	out["industry_moody:industry_1"] = nthShare(moodyRanked, 0)
	out["industry_moody:industry_2"] = nthShare(moodyRanked, 1)
	out["industry_moody:industry_3"] = nthShare(moodyRanked, 2)
	out["industry_moody:industry_4"] = nthShare(moodyRanked, 3)
	out["industry_moody:top2"] = topNShare(moodyRanked, 2)
	out["industry_moody:top3"] = topNShare(moodyRanked, 3)
	out["industry_moody:top5"] = topNShare(moodyRanked, 5)

	out["group:I"] = groupShare(assets, total, "I")
	out["group:II"] = groupShare(assets, total, "II")
	out["group:III"] = groupShare(assets, total, "III")

	out["country:non_us"] = flagShareOf(assets, total, func(a *asset.Asset) bool { return a.Country != "US" })
	out["country:US"] = flagShareOf(assets, total, func(a *asset.Asset) bool { return a.Country == "US" })
	out["country:GB"] = flagShareOf(assets, total, func(a *asset.Asset) bool { return a.Country == "GB" })
	out["country:CA"] = flagShareOf(assets, total, func(a *asset.Asset) bool { return a.Country == "CA" })
	out["country:DE"] = flagShareOf(assets, total, func(a *asset.Asset) bool { return a.Country == "DE" })
	out["country:emerging_market"] = flagShareOf(assets, total, func(a *asset.Asset) bool { return emergingMarketCountries[a.Country] })

	countryOutsideGroupI := shareByKey(assets, total, func(a *asset.Asset) string {
		if a.GroupCategory == "I" {
			return ""
		}
		return a.Country
	})
	delete(countryOutsideGroupI, "")
	out["country:largest_outside_group_i"] = topShare(countryOutsideGroupI, 0)

	return out
}

func concentrationKeys() []string {
	return []string{
		"industry_sp:largest", "industry_moody:largest", "industry_moody:second_largest",
		"industry_moody:industry_1", "industry_moody:industry_2", "industry_moody:industry_3", "industry_moody:industry_4",
		"industry_moody:top2", "industry_moody:top3", "industry_moody:top5",
		"group:I", "group:II", "group:III",
		"country:non_us", "country:US", "country:GB", "country:CA", "country:DE",
		"country:largest_outside_group_i", "country:emerging_market",
	}
}

// shareByKey sums CurrentBalance by key(a), dividing by total, skipping
// assets for which key returns "".
func shareByKey(assets []*asset.Asset, total money.Decimal, key func(*asset.Asset) string) map[string]money.Decimal {
	sums := make(map[string]money.Decimal)
	for _, a := range assets {
		k := key(a)
		if k == "" {
			continue
		}
		sums[k] = sums[k].Add(a.CurrentBalance)
	}
	for k, v := range sums {
		sums[k] = v.Div(total)
	}
	return sums
}

func flagShareOf(assets []*asset.Asset, total money.Decimal, flag func(*asset.Asset) bool) money.Decimal {
	sum := money.Zero
	for _, a := range assets {
		if flag(a) {
			sum = sum.Add(a.CurrentBalance)
		}
	}
	return sum.Div(total)
}

func groupShare(assets []*asset.Asset, total money.Decimal, group string) money.Decimal {
	return flagShareOf(assets, total, func(a *asset.Asset) bool { return a.GroupCategory == group })
}

// rankShares orders a share map descending, most concentrated first.
func rankShares(shares map[string]money.Decimal) []money.Decimal {
	out := make([]money.Decimal, 0, len(shares))
	for _, v := range shares {
		out = append(out, v)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].GreaterThan(out[j-1]); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

func nthShare(ranked []money.Decimal, n int) money.Decimal {
	if n < 0 || n >= len(ranked) {
		return money.Zero
	}
	return ranked[n]
}

func topNShare(ranked []money.Decimal, n int) money.Decimal {
	total := money.Zero
	for i := 0; i < n && i < len(ranked); i++ {
		total = total.Add(ranked[i])
	}
	return total
}

func topShare(shares map[string]money.Decimal, _ int) money.Decimal {
	return nthShare(rankShares(shares), 0)
}

func metrics(assets []*asset.Asset, total money.Decimal, asOf time.Time) map[string]money.Decimal {
	out := map[string]money.Decimal{
		"deferrable_share":  money.Zero,
		"bridge_loan_share": money.Zero,
	}
	if total.IsZero() {
		out["WAL"] = money.Zero
		out["DIVERSITY"] = money.Zero
		out["JROC"] = money.Zero
		out["WA_MARKET_PRICE"] = money.Zero
		out["long_dated_share"] = money.Zero
		return out
	}

	walWeighted := money.Zero
	priceWeighted := money.Zero
	longDated := money.Zero
	for _, a := range assets {
		years := a.MaturityDate.Sub(asOf).Hours() / 24 / 365
		if years < 0 {
			years = 0
		}
		walWeighted = walWeighted.Add(a.CurrentBalance.Mul(money.NewFromFloat(years)))
		priceWeighted = priceWeighted.Add(a.CurrentBalance.Mul(a.MarketPrice))
		if years > longDatedYears {
			longDated = longDated.Add(a.CurrentBalance)
		}
	}
	out["WAL"] = walWeighted.Div(total)
	out["WA_MARKET_PRICE"] = priceWeighted.Div(total)
	out["long_dated_share"] = longDated.Div(total)

	moodyPar := shareByKey(assets, total, func(a *asset.Asset) string { return a.IndustryMoody })
	hhi := money.Zero
	for _, share := range moodyPar {
		hhi = hhi.Add(share.Mul(share))
	}
	if hhi.IsPositive() {
		out["DIVERSITY"] = money.One.Div(hhi)
	} else {
		out["DIVERSITY"] = money.Zero
	}

	return out
}

// coverageRatios computes OC/IC ratios for the three canonical classes
// (A, B, C) the compliance registry's coverage tests (49-54) name, by
// matching each tranche's Name against a trailing class letter ("Class A",
// "A", "class-a", ...). Tranches that don't resolve to A/B/C are included
// in the liability base of every class at or junior to their own
// Seniority rank but never produce their own OC_x/IC_x key.
func coverageRatios(p *pool.Pool, tranches map[string]*liability.Tranche, ledger *feesacct.Ledger) map[string]money.Decimal {
	out := make(map[string]money.Decimal)
	if len(tranches) == 0 {
		return out
	}

	byLetter := make(map[string]*liability.Tranche)
	for _, t := range tranches {
		if letter := classLetter(t.Name); letter != "" {
			byLetter[letter] = t
		}
	}

	collateral := p.TotalPar()
	interestCollected := ledger.Account(feesacct.InterestCollection).Balance

	for _, letter := range []string{"A", "B", "C"} {
		target, ok := byLetter[letter]
		if !ok {
			continue
		}
		seniorOrEqual := money.Zero
		seniorOrEqualRate := money.Zero
		for _, t := range tranches {
			if t.Seniority <= target.Seniority {
				seniorOrEqual = seniorOrEqual.Add(t.CurrentBalance)
				seniorOrEqualRate = seniorOrEqualRate.Add(t.CurrentBalance.Mul(t.FixedRate.Add(t.Spread)))
			}
		}
		if seniorOrEqual.IsPositive() {
			out["OC_"+letter] = collateral.Div(seniorOrEqual)
		}
		if seniorOrEqualRate.IsPositive() {
			// Quarterly accrual approximation: the default RecomputeComplianceInputs
			// has no period boundary dates to derive an exact day-count fraction from.
			dueApprox := seniorOrEqualRate.Div(money.NewFromInt(4))
			out["IC_"+letter] = interestCollected.Div(dueApprox)
		}
	}
	return out
}

// classLetter extracts a trailing "A"/"B"/"C"-style class letter from a
// tranche name such as "Class A" or "A-1", returning "" if none matches.
func classLetter(name string) string {
	name = strings.ToUpper(strings.TrimSpace(name))
	name = strings.TrimPrefix(name, "CLASS ")
	name = strings.TrimPrefix(name, "CLASS-")
	if name == "" {
		return ""
	}
	switch name[0] {
	case 'A', 'B', 'C':
		return string(name[0])
	default:
		return ""
	}
}
