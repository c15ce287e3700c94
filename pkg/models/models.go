package models

import (
	"sort"
)

// Gender is the binary category used for diversity balancing
type Gender string

const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
)

// Registrant represents a person eligible for grouping. Phone is the roster key.
type Registrant struct {
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	Residence   string `json:"residence"`
	YearOfStudy int    `json:"year_of_study"`
	Gender      Gender `json:"gender"`
	IsPastor    bool   `json:"is_pastor"`
}

// GroupingRequest is the partitioner input
type GroupingRequest struct {
	Roster          []Registrant `json:"roster"`
	TargetGroupSize int          `json:"target_group_size"`
	// Seed is optional; nil means a wall-clock seed is chosen.
	Seed *int64 `json:"seed,omitempty"`
}

// Group is one output bucket, pastors first
type Group struct {
	Members []Registrant `json:"members"`
}

// Size returns the member count
func (g Group) Size() int {
	return len(g.Members)
}

// PastorCount returns how many members are pastors
func (g Group) PastorCount() int {
	n := 0
	for _, m := range g.Members {
		if m.IsPastor {
			n++
		}
	}
	return n
}

// HasPastor reports whether the group has at least one pastor
func (g Group) HasPastor() bool {
	return g.PastorCount() > 0
}

// GenderCounts returns member counts keyed by gender
func (g Group) GenderCounts() map[Gender]int {
	counts := make(map[Gender]int)
	for _, m := range g.Members {
		counts[m.Gender]++
	}
	return counts
}

// YearCounts returns member counts keyed by year of study
func (g Group) YearCounts() map[int]int {
	counts := make(map[int]int)
	for _, m := range g.Members {
		counts[m.YearOfStudy]++
	}
	return counts
}

// Residences returns the distinct residences represented, sorted
func (g Group) Residences() []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range g.Members {
		if !seen[m.Residence] {
			seen[m.Residence] = true
			out = append(out, m.Residence)
		}
	}
	sort.Strings(out)
	return out
}

// PastorCoverage reports how the pastor supply was spread over the groups
type PastorCoverage struct {
	TotalPastors int `json:"total_pastors"`
	TotalGroups  int `json:"total_groups"`
	// GroupsWithoutPastor holds zero-based group indices.
	GroupsWithoutPastor []int `json:"groups_without_pastor"`
}

// Sufficient reports whether there were enough pastors to cover every group
func (c PastorCoverage) Sufficient() bool {
	return c.TotalPastors >= c.TotalGroups
}

// GroupingResult is the partitioner output. Index+1 is the group's display number.
type GroupingResult struct {
	Groups          []Group        `json:"groups"`
	Seed            int64          `json:"seed"`
	TargetGroupSize int            `json:"target_group_size"`
	Coverage        PastorCoverage `json:"coverage"`
}

// MemberCount returns the total number of placed registrants
func (r *GroupingResult) MemberCount() int {
	n := 0
	for _, g := range r.Groups {
		n += g.Size()
	}
	return n
}

// PartitionInput is the data structure for the partition endpoint.
// A nil TargetGroupSize selects the configured default.
type PartitionInput struct {
	Registrants     []Registrant `json:"registrants"`
	TargetGroupSize *int         `json:"target_group_size,omitempty"`
	Seed            *int64       `json:"seed,omitempty"`
}

// GroupSummary is the per-group breakdown returned alongside a result
type GroupSummary struct {
	Number          int            `json:"number"`
	Size            int            `json:"size"`
	Pastors         int            `json:"pastors"`
	Genders         map[Gender]int `json:"genders"`
	Years           map[int]int    `json:"years"`
	Residences      []string       `json:"residences"`
	MissingShepherd bool           `json:"missing_shepherd"`
}

// PartitionResponse is the data structure for the partition result
type PartitionResponse struct {
	RunID     string          `json:"run_id,omitempty"`
	Result    *GroupingResult `json:"result"`
	Summaries []GroupSummary  `json:"summaries"`
	Warnings  []string        `json:"warnings,omitempty"`
}
