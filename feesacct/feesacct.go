// Package feesacct implements the named cash accounts, recurring fees, and
// the audited ledger transfers between them (spec §3 Account/Fee entities).
// Every balance movement between accounts is recorded as a LedgerEntry,
// the audit trail against which cash conservation (spec §8:
// "sum(cash_in) == sum(cash_out) + delta(all_account_balances)") can be
// reconciled; the deal engine itself does not run that check.
package feesacct

import (
	"github.com/cloanalytics/dealengine/dealerr"
	"github.com/cloanalytics/dealengine/money"
)

// AccountName enumerates the named cash buckets of spec §3.
type AccountName string

const (
	InterestCollection AccountName = "INTEREST_COLLECTION"
	PrincipalCollection AccountName = "PRINCIPAL_COLLECTION"
	InterestReserve     AccountName = "INTEREST_RESERVE"
	PrincipalReserve    AccountName = "PRINCIPAL_RESERVE"
	Custodial           AccountName = "CUSTODIAL"
)

// Account is a named, monotone-non-negative cash bucket.
type Account struct {
	Name    AccountName
	Balance money.Decimal
}

// LedgerEntry records one audited transfer between accounts (spec §3:
// "transfers are audited entries").
type LedgerEntry struct {
	Period int
	From    AccountName
	To      AccountName
	Amount  money.Decimal
}

// Ledger is the append-only transfer journal for one deal engine run.
type Ledger struct {
	accounts map[AccountName]*Account
	entries  []LedgerEntry
}

// NewLedger constructs a ledger seeded with the five standard accounts at
// zero balance.
func NewLedger() *Ledger {
	l := &Ledger{accounts: make(map[AccountName]*Account)}
	for _, n := range []AccountName{InterestCollection, PrincipalCollection, InterestReserve, PrincipalReserve, Custodial} {
		l.accounts[n] = &Account{Name: n}
	}
	return l
}

// Account returns the named account, creating it at zero balance if it does
// not already exist (supports deal-specific escrow sub-accounts, e.g. the
// equity claw-back escrow).
func (l *Ledger) Account(name AccountName) *Account {
	a, ok := l.accounts[name]
	if !ok {
		a = &Account{Name: name}
		l.accounts[name] = a
	}
	return a
}

// Deposit credits amount into the named account directly (collateral
// collections entering the ledger for the first time in a period, not a
// transfer between two existing accounts).
func (l *Ledger) Deposit(period int, name AccountName, amount money.Decimal) error {
	if amount.IsNegative() {
		return dealerr.NewBadInput("feesacct: deposit amount must be non-negative, got %s", amount)
	}
	a := l.Account(name)
	a.Balance = a.Balance.Add(amount)
	l.entries = append(l.entries, LedgerEntry{Period: period, To: name, Amount: amount})
	return nil
}

// Transfer moves min(amount, from.Balance) from one account to another,
// recording an audited LedgerEntry, and returns the amount actually moved.
// Per spec §4.7's waterfall harness contract ("transfers min(due,
// available_cash)"), Transfer never overdraws the source account.
func (l *Ledger) Transfer(period int, from, to AccountName, amount money.Decimal) money.Decimal {
	src := l.Account(from)
	dst := l.Account(to)

	moved := money.Min(amount, src.Balance)
	if moved.IsNegative() {
		moved = money.Zero
	}
	src.Balance = src.Balance.Sub(moved)
	dst.Balance = dst.Balance.Add(moved)
	l.entries = append(l.entries, LedgerEntry{Period: period, From: from, To: to, Amount: moved})
	return moved
}

// Entries returns the full audit trail recorded so far.
func (l *Ledger) Entries() []LedgerEntry {
	return l.entries
}

// AccrualBasis identifies what balance a Fee's rate applies to.
type AccrualBasis int

const (
	BasisCollateralPar AccrualBasis = iota
	BasisTrancheBalance
)

// Fee is a recurring charge accrued against a basis balance (spec §3).
type Fee struct {
	Name             string
	AccrualRate      money.Decimal // annualized fraction, e.g. 0.005 for 50bps
	Basis            AccrualBasis
	DeferralAllowed  bool
	PaidToDate       money.Decimal
	DeferredBalance  money.Decimal
}

// Accrue computes the period's fee due against basisBalance over
// yearFraction and applies cash toward it; any shortfall accrues into
// DeferredBalance as an unpaid obligation.
func (f *Fee) Accrue(basisBalance, yearFraction, cash money.Decimal) (due, paid money.Decimal) {
	due = basisBalance.Mul(f.AccrualRate).Mul(yearFraction)
	paid = money.Min(due, cash)
	f.PaidToDate = f.PaidToDate.Add(paid)
	shortfall := due.Sub(paid)
	if shortfall.IsPositive() {
		f.DeferredBalance = f.DeferredBalance.Add(shortfall)
	}
	return due, paid
}
