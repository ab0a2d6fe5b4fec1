package asset

import "github.com/cloanalytics/dealengine/dealerr"

func errInvalidBalance(id string) error {
	return dealerr.NewBadInput("asset %s: current balance must be >= 0", id)
}

func errMaturityBeforeOrigination(id string) error {
	return dealerr.NewBadInput("asset %s: maturity date before origination date", id)
}
