// Package rating holds the Moody's/S&P rating lookup tables the spec
// requires: rating -> recovery rate and rating -> Moody's rating factor
// (WARF), per spec §3 ("ratings map to a recovery rate through a
// documented lookup") and §4.6 (WARF). These are typed tables, not raw
// scenario blobs — the scenario loader populates them at load time (spec
// §9's "scenario table -> typed config" re-architecture).
package rating

import "fmt"

// MoodyRating enumerates the Moody's long-term rating scale used for WARF
// and recovery lookups.
type MoodyRating string

const (
	Aaa  MoodyRating = "Aaa"
	Aa1  MoodyRating = "Aa1"
	Aa2  MoodyRating = "Aa2"
	Aa3  MoodyRating = "Aa3"
	A1   MoodyRating = "A1"
	A2   MoodyRating = "A2"
	A3   MoodyRating = "A3"
	Baa1 MoodyRating = "Baa1"
	Baa2 MoodyRating = "Baa2"
	Baa3 MoodyRating = "Baa3"
	Ba1  MoodyRating = "Ba1"
	Ba2  MoodyRating = "Ba2"
	Ba3  MoodyRating = "Ba3"
	B1   MoodyRating = "B1"
	B2   MoodyRating = "B2"
	B3   MoodyRating = "B3"
	Caa1 MoodyRating = "Caa1"
	Caa2 MoodyRating = "Caa2"
	Caa3 MoodyRating = "Caa3"
	Ca   MoodyRating = "Ca"
	C    MoodyRating = "C"
)

// factorTable is Moody's published idealized rating factor per notch (used
// to compute WARF). Values are the standard published table.
var factorTable = map[MoodyRating]int{
	Aaa: 1, Aa1: 10, Aa2: 20, Aa3: 40,
	A1: 70, A2: 120, A3: 180,
	Baa1: 260, Baa2: 360, Baa3: 610,
	Ba1: 940, Ba2: 1350, Ba3: 1766,
	B1: 2220, B2: 2720, B3: 3490,
	Caa1: 4770, Caa2: 6500, Caa3: 8070,
	Ca: 9998, C: 10000,
}

// recoveryTable is the documented rating -> recovery-rate lookup (decimal
// fraction of par), approximating typical senior-secured loan recovery
// assumptions by seniority-implied rating band.
var recoveryTable = map[MoodyRating]float64{
	Aaa: 0.70, Aa1: 0.68, Aa2: 0.66, Aa3: 0.64,
	A1: 0.62, A2: 0.60, A3: 0.58,
	Baa1: 0.56, Baa2: 0.54, Baa3: 0.52,
	Ba1: 0.50, Ba2: 0.48, Ba3: 0.46,
	B1: 0.44, B2: 0.42, B3: 0.40,
	Caa1: 0.35, Caa2: 0.30, Caa3: 0.25,
	Ca: 0.15, C: 0.05,
}

// Factor returns Moody's idealized rating factor for r.
func Factor(r MoodyRating) (int, error) {
	f, ok := factorTable[r]
	if !ok {
		return 0, fmt.Errorf("rating: unknown rating %q", r)
	}
	return f, nil
}

// Recovery returns the documented recovery rate (decimal fraction of par)
// for r.
func Recovery(r MoodyRating) (float64, error) {
	rr, ok := recoveryTable[r]
	if !ok {
		return 0, fmt.Errorf("rating: unknown rating %q", r)
	}
	return rr, nil
}

// SetRecovery overrides the recovery assumption for r, used by the scenario
// loader to install deal-specific recovery assumptions over the default
// table.
func SetRecovery(r MoodyRating, recovery float64) {
	recoveryTable[r] = recovery
}

// Ratings returns the full ordered rating scale from Aaa to C.
func Ratings() []MoodyRating {
	return []MoodyRating{
		Aaa, Aa1, Aa2, Aa3, A1, A2, A3, Baa1, Baa2, Baa3,
		Ba1, Ba2, Ba3, B1, B2, B3, Caa1, Caa2, Caa3, Ca, C,
	}
}

// Index returns the position of r in the ordered rating scale (0 = Aaa),
// used by the credit migration simulator to map a sampled bin back to a
// rating.
func Index(r MoodyRating) (int, error) {
	for i, rr := range Ratings() {
		if rr == r {
			return i, nil
		}
	}
	return 0, fmt.Errorf("rating: unknown rating %q", r)
}
