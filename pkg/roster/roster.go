package roster

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"html"
	"io"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/cuportal/smallgroups-api/pkg/models"
)

// Provider supplies the registrants to be grouped
type Provider interface {
	Registrants(ctx context.Context) ([]models.Registrant, error)
}

// Static is a Provider over an in-memory roster
type Static []models.Registrant

func (s Static) Registrants(context.Context) ([]models.Registrant, error) {
	return append([]models.Registrant(nil), s...), nil
}

// RowError describes a CSV row that could not be turned into a registrant
type RowError struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

var stripper = bluemonday.StrictPolicy()

var columnAliases = map[string]string{
	"name":          "name",
	"full_name":     "name",
	"phone":         "phone",
	"phone_number":  "phone",
	"residence":     "residence",
	"hostel":        "residence",
	"year":          "year",
	"year_of_study": "year",
	"gender":        "gender",
	"sex":           "gender",
	"pastor":        "pastor",
	"is_pastor":     "pastor",
}

// ParseCSV reads a header-addressed roster. Rows that cannot be parsed are reported
// and skipped; the returned error is only set when the file itself is unreadable.
func ParseCSV(r io.Reader) ([]models.Registrant, []RowError, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, errors.New("roster file is empty")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read roster header: %w", err)
	}

	cols := make(map[string]int)
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if canonical, ok := columnAliases[key]; ok {
			cols[canonical] = i
		}
	}
	for _, required := range []string{"name", "phone"} {
		if _, ok := cols[required]; !ok {
			return nil, nil, fmt.Errorf("roster header is missing the %q column", required)
		}
	}

	field := func(record []string, col string) string {
		i, ok := cols[col]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}

	var out []models.Registrant
	var problems []RowError
	line := 1
	for {
		record, err := reader.Read()
		line++
		if err == io.EOF {
			break
		}
		if err != nil {
			problems = append(problems, RowError{Line: line, Reason: err.Error()})
			continue
		}

		year := 0
		if raw := strings.TrimSpace(field(record, "year")); raw != "" {
			year, err = strconv.Atoi(raw)
			if err != nil {
				problems = append(problems, RowError{Line: line, Reason: fmt.Sprintf("year %q is not a number", raw)})
				continue
			}
		}

		reg := Normalize(models.Registrant{
			Name:        field(record, "name"),
			Phone:       field(record, "phone"),
			Residence:   field(record, "residence"),
			YearOfStudy: year,
			Gender:      models.Gender(field(record, "gender")),
			IsPastor:    parseBool(field(record, "pastor")),
		})
		if reg.Name == "" || reg.Phone == "" {
			problems = append(problems, RowError{Line: line, Reason: "name and phone are required"})
			continue
		}
		out = append(out, reg)
	}
	return out, problems, nil
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y", "x", "pastor":
		return true
	}
	return false
}

// Normalize trims and strips markup from the free-text fields and canonicalizes gender.
// Unrecognized genders are kept as written.
func Normalize(r models.Registrant) models.Registrant {
	r.Name = clean(r.Name)
	r.Phone = strings.Join(strings.Fields(clean(r.Phone)), "")
	r.Residence = clean(r.Residence)

	switch strings.ToLower(clean(string(r.Gender))) {
	case "m", "male", "man", "brother":
		r.Gender = models.GenderMale
	case "f", "female", "woman", "sister":
		r.Gender = models.GenderFemale
	default:
		r.Gender = models.Gender(clean(string(r.Gender)))
	}
	return r
}

func clean(s string) string {
	return strings.TrimSpace(html.UnescapeString(stripper.Sanitize(s)))
}

// Validate lists the problems that would make a roster unusable or surprising.
// An empty result means the roster is fine to partition.
func Validate(roster []models.Registrant) []string {
	var problems []string
	if len(roster) == 0 {
		return []string{"at least one registrant is required"}
	}

	phones := make(map[string]bool, len(roster))
	for i, r := range roster {
		label := fmt.Sprintf("registrant %d", i+1)
		if r.Name != "" {
			label = fmt.Sprintf("registrant %d (%s)", i+1, r.Name)
		}
		if r.Name == "" {
			problems = append(problems, label+": name is required")
		}
		if r.Phone == "" {
			problems = append(problems, label+": phone is required")
		} else if phones[r.Phone] {
			problems = append(problems, label+": duplicate phone "+r.Phone)
		}
		phones[r.Phone] = true
		if r.Gender != models.GenderMale && r.Gender != models.GenderFemale {
			problems = append(problems, fmt.Sprintf("%s: gender %q is neither M nor F", label, r.Gender))
		}
	}
	return problems
}
