package grouping

import (
	"github.com/cuportal/smallgroups-api/pkg/models"
)

// Verify checks a result against the roster it was built from and returns an
// *InvariantViolationError describing the first postcondition that fails.
func Verify(roster []models.Registrant, size int, res *models.GroupingResult) error {
	if res == nil {
		return violation("result", "no result")
	}

	if expected := GroupCount(len(roster), size); len(res.Groups) != expected {
		return violation("group count", "got %d groups, want %d", len(res.Groups), expected)
	}

	want := make(map[string]models.Registrant, len(roster))
	for _, r := range roster {
		want[r.Phone] = r
	}

	seen := make(map[string]bool, len(roster))
	total := 0
	pastors, withoutPastor, maxPastors := 0, 0, 0
	last := len(res.Groups) - 1
	for i, g := range res.Groups {
		n := len(g.Members)
		switch {
		case n == 0:
			return violation("non-empty groups", "group %d is empty", i+1)
		case n > size:
			return violation("group size", "group %d has %d members, target is %d", i+1, n, size)
		case i < last && n != size:
			return violation("group size", "group %d has %d members but only the last group may be short of %d", i+1, n, size)
		}

		for _, m := range g.Members {
			if seen[m.Phone] {
				return violation("unique placement", "phone %s appears in more than one place", m.Phone)
			}
			seen[m.Phone] = true

			orig, ok := want[m.Phone]
			if !ok {
				return violation("completeness", "phone %s is not in the roster", m.Phone)
			}
			if orig != m {
				return violation("unchanged registrants", "registrant %s was modified", m.Phone)
			}
		}
		total += n

		p := g.PastorCount()
		pastors += p
		if p == 0 {
			withoutPastor++
		}
		if p > maxPastors {
			maxPastors = p
		}
	}

	if total != len(roster) {
		return violation("completeness", "placed %d of %d registrants", total, len(roster))
	}
	if pastors >= len(res.Groups) && withoutPastor > 0 {
		return violation("pastor coverage", "%d pastors for %d groups but %d groups have none", pastors, len(res.Groups), withoutPastor)
	}
	if withoutPastor > 0 && maxPastors > 1 {
		return violation("pastor coverage", "a group has %d pastors while %d groups have none", maxPastors, withoutPastor)
	}
	return nil
}
