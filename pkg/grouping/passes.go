package grouping

import (
	"sort"

	"github.com/cuportal/smallgroups-api/pkg/models"
)

// residenceBlock is one residence's share of the roster. Its groups occupy the
// virtual indices [FirstGroup, FirstGroup+GroupsNeeded).
type residenceBlock struct {
	Residence    string
	Members      []models.Registrant
	GroupsNeeded int
	FirstGroup   int
}

// blockByResidence buckets the roster by residence in lexicographic order and
// sizes each bucket's block of groups
func blockByResidence(roster []models.Registrant, size int) []residenceBlock {
	byResidence := make(map[string][]models.Registrant)
	for _, r := range roster {
		byResidence[r.Residence] = append(byResidence[r.Residence], r)
	}

	names := make([]string, 0, len(byResidence))
	for name := range byResidence {
		names = append(names, name)
	}
	sort.Strings(names)

	blocks := make([]residenceBlock, 0, len(names))
	next := 0
	for _, name := range names {
		members := byResidence[name]
		need := GroupCount(len(members), size)
		blocks = append(blocks, residenceBlock{
			Residence:    name,
			Members:      members,
			GroupsNeeded: need,
			FirstGroup:   next,
		})
		next += need
	}
	return blocks
}

type mixKey struct {
	year   int
	gender models.Gender
}

func genderRank(g models.Gender) int {
	switch g {
	case models.GenderMale:
		return 0
	case models.GenderFemale:
		return 1
	}
	return 2
}

// diversityQueue mixes every block and concatenates them in residence order
func diversityQueue(blocks []residenceBlock, rng Shuffler) []models.Registrant {
	var queue []models.Registrant
	for _, b := range blocks {
		queue = append(queue, mixResidence(b.Members, b.GroupsNeeded, rng)...)
	}
	return queue
}

// mixResidence interleaves one residence's members across (year, gender) buckets,
// deals the interleaved queue over the residence's local groups and flattens them.
// The deal starts one group later on every pass so a bucket cycle whose length is a
// multiple of groupsNeeded cannot pin one gender to one group.
func mixResidence(members []models.Registrant, groupsNeeded int, rng Shuffler) []models.Registrant {
	buckets := make(map[mixKey][]models.Registrant)
	gendersByYear := make(map[int][]models.Gender)
	for _, m := range members {
		k := mixKey{year: m.YearOfStudy, gender: m.Gender}
		if _, ok := buckets[k]; !ok {
			gendersByYear[m.YearOfStudy] = append(gendersByYear[m.YearOfStudy], m.Gender)
		}
		buckets[k] = append(buckets[k], m)
	}

	years := make([]int, 0, len(gendersByYear))
	for y := range gendersByYear {
		years = append(years, y)
	}
	sort.Ints(years)
	rng.Shuffle(len(years), func(i, j int) {
		years[i], years[j] = years[j], years[i]
	})

	var order []mixKey
	for _, y := range years {
		genders := gendersByYear[y]
		sort.Slice(genders, func(i, j int) bool {
			ri, rj := genderRank(genders[i]), genderRank(genders[j])
			if ri != rj {
				return ri < rj
			}
			return genders[i] < genders[j]
		})
		for _, g := range genders {
			order = append(order, mixKey{year: y, gender: g})
		}
	}
	for _, k := range order {
		b := buckets[k]
		rng.Shuffle(len(b), func(i, j int) {
			b[i], b[j] = b[j], b[i]
		})
	}

	interleaved := make([]models.Registrant, 0, len(members))
	for len(interleaved) < len(members) {
		for _, k := range order {
			if b := buckets[k]; len(b) > 0 {
				interleaved = append(interleaved, b[0])
				buckets[k] = b[1:]
			}
		}
	}

	local := make([][]models.Registrant, groupsNeeded)
	for i, m := range interleaved {
		g := (i + i/groupsNeeded) % groupsNeeded
		local[g] = append(local[g], m)
	}

	out := make([]models.Registrant, 0, len(interleaved))
	for _, l := range local {
		out = append(out, l...)
	}
	return out
}

// layout is where the mixed queue would land if it were cut into consecutive
// groups of the target size. Residence blocks that do not divide evenly share
// their boundary group with the next residence.
type layout struct {
	caps   []int
	spans  map[string][]int
	counts []map[string]int
}

func newLayout(queue []models.Registrant, size int) layout {
	n := GroupCount(len(queue), size)
	lay := layout{
		caps:   make([]int, n),
		spans:  make(map[string][]int),
		counts: make([]map[string]int, n),
	}
	for g := range lay.caps {
		lay.caps[g] = size
		lay.counts[g] = make(map[string]int)
	}
	lay.caps[n-1] = len(queue) - (n-1)*size

	for pos, r := range queue {
		g := pos / size
		if lay.counts[g][r.Residence] == 0 {
			lay.spans[r.Residence] = append(lay.spans[r.Residence], g)
		}
		lay.counts[g][r.Residence]++
	}
	return lay
}

// assignPastors places every pastor into a group. Phase A keeps pastors inside their
// own residence's groups, one per group; phase B hands the rest to pastor-less groups,
// nearest residence first.
func assignPastors(blocks []residenceBlock, queue []models.Registrant, lay layout) [][]models.Registrant {
	placed := make([][]models.Registrant, len(lay.caps))

	byResidence := make(map[string][]models.Registrant)
	for _, r := range queue {
		if r.IsPastor {
			byResidence[r.Residence] = append(byResidence[r.Residence], r)
		}
	}

	var unassigned []models.Registrant
	for _, b := range blocks {
		pastors := byResidence[b.Residence]
		next := 0
		for _, g := range lay.spans[b.Residence] {
			if next == len(pastors) {
				break
			}
			if len(placed[g]) > 0 {
				continue
			}
			placed[g] = append(placed[g], pastors[next])
			next++
		}
		unassigned = append(unassigned, pastors[next:]...)
	}

	for _, p := range unassigned {
		g := pastorlessNear(placed, lay, p.Residence)
		if g < 0 {
			g = firstPastorless(placed)
		}
		if g < 0 {
			g = mostResidents(placed, lay, p.Residence)
		}
		placed[g] = append(placed[g], p)
	}
	return placed
}

func pastorlessNear(placed [][]models.Registrant, lay layout, residence string) int {
	for g := range placed {
		if len(placed[g]) == 0 && lay.counts[g][residence] > 0 {
			return g
		}
	}
	return -1
}

func firstPastorless(placed [][]models.Registrant) int {
	for g := range placed {
		if len(placed[g]) == 0 {
			return g
		}
	}
	return -1
}

// mostResidents picks, among groups with room left and the fewest pastors, the one
// holding the most members of residence. Lowest index wins ties.
func mostResidents(placed [][]models.Registrant, lay layout, residence string) int {
	best := -1
	for g := range placed {
		if len(placed[g]) >= lay.caps[g] {
			continue
		}
		if best < 0 {
			best = g
			continue
		}
		if len(placed[g]) < len(placed[best]) ||
			(len(placed[g]) == len(placed[best]) && lay.counts[g][residence] > lay.counts[best][residence]) {
			best = g
		}
	}
	return best
}

// fill appends the non-pastor queue to the groups in order, topping each up to its
// capacity before moving on. The last group absorbs anything left.
func fill(pastors [][]models.Registrant, queue []models.Registrant, lay layout) []models.Group {
	groups := make([]models.Group, len(lay.caps))
	for g := range groups {
		groups[g].Members = append([]models.Registrant(nil), pastors[g]...)
	}

	g := 0
	for _, r := range queue {
		if r.IsPastor {
			continue
		}
		for g < len(groups)-1 && len(groups[g].Members) >= lay.caps[g] {
			g++
		}
		groups[g].Members = append(groups[g].Members, r)
	}

	for i := range groups {
		members := groups[i].Members
		sort.SliceStable(members, func(a, b int) bool {
			return members[a].IsPastor && !members[b].IsPastor
		})
	}
	return groups
}
