package grouping

import (
	"math/rand"
	"time"

	"github.com/cuportal/smallgroups-api/pkg/models"
)

// Shuffler is the random source the diversity pass draws from. *rand.Rand satisfies it.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// Partition splits the roster into groups of roughly TargetGroupSize members.
// The result is fully determined by the roster, the size and the seed; when the
// request carries no seed one is taken from the wall clock and echoed back.
func Partition(req models.GroupingRequest) (*models.GroupingResult, error) {
	seed := time.Now().UnixNano()
	if req.Seed != nil {
		seed = *req.Seed
	}

	res, err := PartitionWith(req, rand.New(rand.NewSource(seed)))
	if err != nil {
		return nil, err
	}
	res.Seed = seed
	return res, nil
}

// Reshuffle partitions the same roster again with a seed different from previousSeed.
// A seed on the request is honoured unless it equals previousSeed.
func Reshuffle(req models.GroupingRequest, previousSeed int64) (*models.GroupingResult, error) {
	seed := time.Now().UnixNano()
	if req.Seed != nil {
		seed = *req.Seed
	}
	if seed == previousSeed {
		seed++
	}
	req.Seed = &seed
	return Partition(req)
}

// PartitionWith runs the four passes using the given random source. The caller's
// roster slice is never modified.
func PartitionWith(req models.GroupingRequest, rng Shuffler) (*models.GroupingResult, error) {
	if len(req.Roster) == 0 {
		return nil, ErrEmptyRoster
	}
	if req.TargetGroupSize <= 0 {
		return nil, ErrInvalidGroupSize
	}

	roster := append([]models.Registrant(nil), req.Roster...)
	seen := make(map[string]bool, len(roster))
	for _, r := range roster {
		if seen[r.Phone] {
			return nil, &DuplicatePhoneError{Phone: r.Phone}
		}
		seen[r.Phone] = true
	}

	size := req.TargetGroupSize
	blocks := blockByResidence(roster, size)
	queue := diversityQueue(blocks, rng)
	lay := newLayout(queue, size)
	pastors := assignPastors(blocks, queue, lay)
	groups := fill(pastors, queue, lay)

	res := &models.GroupingResult{
		Groups:          groups,
		TargetGroupSize: size,
		Coverage:        coverage(groups),
	}
	if err := Verify(req.Roster, size, res); err != nil {
		return nil, err
	}
	return res, nil
}

// GroupCount is the number of groups a roster of n registrants is split into
func GroupCount(n, size int) int {
	if n <= 0 || size <= 0 {
		return 0
	}
	return (n + size - 1) / size
}

func coverage(groups []models.Group) models.PastorCoverage {
	c := models.PastorCoverage{TotalGroups: len(groups), GroupsWithoutPastor: []int{}}
	for i, g := range groups {
		n := g.PastorCount()
		c.TotalPastors += n
		if n == 0 {
			c.GroupsWithoutPastor = append(c.GroupsWithoutPastor, i)
		}
	}
	return c
}
