package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/cuportal/smallgroups-api/pkg/models"
)

// Format is an export format understood by Write
type Format string

const (
	FormatCSV  Format = "csv"
	FormatText Format = "text"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatHTML Format = "html"
)

// Formats lists every supported format
var Formats = []Format{FormatCSV, FormatText, FormatYAML, FormatJSON, FormatHTML}

// ParseFormat accepts a format name case-insensitively; empty means text
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if f == "" {
		return FormatText, nil
	}
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown format %q", s)
}

// ContentType is the HTTP media type for f
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatYAML:
		return "application/yaml; charset=utf-8"
	case FormatJSON:
		return "application/json; charset=utf-8"
	case FormatHTML:
		return "text/html; charset=utf-8"
	}
	return "text/plain; charset=utf-8"
}

// Summaries returns the per-group breakdown, numbered from 1
func Summaries(res *models.GroupingResult) []models.GroupSummary {
	out := make([]models.GroupSummary, len(res.Groups))
	for i, g := range res.Groups {
		out[i] = models.GroupSummary{
			Number:          i + 1,
			Size:            g.Size(),
			Pastors:         g.PastorCount(),
			Genders:         g.GenderCounts(),
			Years:           g.YearCounts(),
			Residences:      g.Residences(),
			MissingShepherd: !g.HasPastor(),
		}
	}
	return out
}

// Warnings describes the parts of a result staff should look at before printing it
func Warnings(res *models.GroupingResult) []string {
	var out []string
	if n := len(res.Coverage.GroupsWithoutPastor); n > 0 {
		nums := make([]string, n)
		for i, g := range res.Coverage.GroupsWithoutPastor {
			nums[i] = strconv.Itoa(g + 1)
		}
		out = append(out, fmt.Sprintf("%d pastors for %d groups; groups without a pastor: %s",
			res.Coverage.TotalPastors, res.Coverage.TotalGroups, strings.Join(nums, ", ")))
	}
	if len(res.Groups) > 0 {
		last := res.Groups[len(res.Groups)-1]
		if last.Size() < res.TargetGroupSize {
			out = append(out, fmt.Sprintf("group %d has %d of %d members", len(res.Groups), last.Size(), res.TargetGroupSize))
		}
	}
	return out
}

// Write renders res in format f
func Write(w io.Writer, f Format, title string, res *models.GroupingResult) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, res)
	case FormatYAML:
		return WriteYAML(w, res)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case FormatHTML:
		return WriteHTML(w, title, res)
	case FormatText, "":
		return WriteText(w, res)
	}
	return fmt.Errorf("unknown format %q", f)
}

// WriteCSV writes one row per member
func WriteCSV(w io.Writer, res *models.GroupingResult) error {
	writer := csv.NewWriter(w)
	writer.Write([]string{"group", "name", "phone", "residence", "year", "gender", "pastor"})
	for i, g := range res.Groups {
		for _, m := range g.Members {
			writer.Write([]string{
				strconv.Itoa(i + 1),
				m.Name,
				m.Phone,
				m.Residence,
				strconv.Itoa(m.YearOfStudy),
				string(m.Gender),
				strconv.FormatBool(m.IsPastor),
			})
		}
	}
	writer.Flush()
	return writer.Error()
}

func countsLine[K comparable](counts map[K]int, less func(a, b K) bool) string {
	keys := make([]K, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return less(keys[i], keys[j]) })
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%v:%d", k, counts[k])
	}
	return strings.Join(parts, " ")
}

// WriteText writes an aligned table per group
func WriteText(w io.Writer, res *models.GroupingResult) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, g := range res.Groups {
		fmt.Fprintf(tw, "Group %d\t(%d members, genders %s, years %s)\n", i+1, g.Size(),
			countsLine(g.GenderCounts(), func(a, b models.Gender) bool { return a < b }),
			countsLine(g.YearCounts(), func(a, b int) bool { return a < b }))
		for _, m := range g.Members {
			role := ""
			if m.IsPastor {
				role = "pastor"
			}
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%d\t%s\t%s\n", m.Name, m.Phone, m.Residence, m.YearOfStudy, m.Gender, role)
		}
		fmt.Fprintln(tw)
	}
	for _, warn := range Warnings(res) {
		fmt.Fprintf(tw, "warning: %s\n", warn)
	}
	return tw.Flush()
}

type yamlMember struct {
	Name      string `yaml:"name"`
	Phone     string `yaml:"phone"`
	Residence string `yaml:"residence"`
	Year      int    `yaml:"year"`
	Gender    string `yaml:"gender"`
	Pastor    bool   `yaml:"pastor,omitempty"`
}

type yamlGroup struct {
	Number  int          `yaml:"number"`
	Members []yamlMember `yaml:"members"`
}

type yamlReport struct {
	Seed            int64       `yaml:"seed"`
	TargetGroupSize int         `yaml:"target_group_size"`
	Groups          []yamlGroup `yaml:"groups"`
	Warnings        []string    `yaml:"warnings,omitempty"`
}

// WriteYAML writes the groups as a YAML document
func WriteYAML(w io.Writer, res *models.GroupingResult) error {
	doc := yamlReport{
		Seed:            res.Seed,
		TargetGroupSize: res.TargetGroupSize,
		Groups:          make([]yamlGroup, len(res.Groups)),
		Warnings:        Warnings(res),
	}
	for i, g := range res.Groups {
		yg := yamlGroup{Number: i + 1, Members: make([]yamlMember, len(g.Members))}
		for j, m := range g.Members {
			yg.Members[j] = yamlMember{
				Name:      m.Name,
				Phone:     m.Phone,
				Residence: m.Residence,
				Year:      m.YearOfStudy,
				Gender:    string(m.Gender),
				Pastor:    m.IsPastor,
			}
		}
		doc.Groups[i] = yg
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

var printable = template.Must(template.New("groups").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; }
section { page-break-inside: avoid; margin-bottom: 1.5em; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #999; padding: 4px 8px; text-align: left; }
.pastor { font-weight: bold; }
.warning { color: #a00; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{range .Warnings}}<p class="warning">{{.}}</p>
{{end}}{{range $i, $g := .Result.Groups}}<section>
<h2>Group {{inc $i}}</h2>
<table>
<tr><th>Name</th><th>Phone</th><th>Residence</th><th>Year</th><th>Gender</th></tr>
{{range $g.Members}}<tr{{if .IsPastor}} class="pastor"{{end}}><td>{{.Name}}</td><td>{{.Phone}}</td><td>{{.Residence}}</td><td>{{.YearOfStudy}}</td><td>{{.Gender}}</td></tr>
{{end}}</table>
</section>
{{end}}</body>
</html>
`))

// WriteHTML writes a printable page with one table per group
func WriteHTML(w io.Writer, title string, res *models.GroupingResult) error {
	if title == "" {
		title = "Bible study groups"
	}
	return printable.Execute(w, struct {
		Title    string
		Warnings []string
		Result   *models.GroupingResult
	}{title, Warnings(res), res})
}
