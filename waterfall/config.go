package waterfall

import (
	"github.com/cloanalytics/dealengine/feesacct"
	"github.com/cloanalytics/dealengine/money"
)

// TrancheSpec names one tranche in sequence order (senior to junior) for
// factory-built strategies.
type TrancheSpec struct {
	Name       string
	PIKAllowed bool
}

// Config is the typed configuration a strategy factory consumes to build a
// Strategy (spec §4.7: "a user-defined strategy is obtained by providing
// the three pieces [sequence, triggers, amounts]; a registry maps a
// strategy name to a factory").
type Config struct {
	Tranches []TrancheSpec

	InterestSource   feesacct.AccountName
	PrincipalSource  feesacct.AccountName
	ResidualDest     feesacct.AccountName

	SeniorExpenseFormula  string
	JuniorFeeFormula      string
	InterestFormula       string // applied per tranche, e.g. "tranche_balance * coupon_rate / 4"
	PrincipalFormula      string // applied per tranche when principal is unlocked
	ReserveFundingFormula string
	SubordinatedFormula   string

	// NonCall marks the strategy as currently in its non-call period (Call
	// Protection).
	NonCall bool

	// MagVersion selects a Magnetar feature set ("Mag6".."Mag17"); empty
	// means no Mag overlay.
	MagVersion string
	// MagHurdleRate is required when MagVersion == "Mag12" (spec §9 Open
	// Question (ii): the documented hurdle table has conflicting values
	// for Mag 12, so it must be supplied explicitly rather than defaulted).
	MagHurdleRate money.Decimal
	CatchUpRate   money.Decimal

	// ClawBackHurdleRate is the cumulative equity IRR hurdle for the
	// standalone Equity Claw-Back strategy (spec §4.7), independent of any
	// Mag overlay's hurdle table.
	ClawBackHurdleRate money.Decimal
}
