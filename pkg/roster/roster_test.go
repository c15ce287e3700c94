package roster

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuportal/smallgroups-api/internal/config"
	"github.com/cuportal/smallgroups-api/pkg/database"
	"github.com/cuportal/smallgroups-api/pkg/models"
)

const sampleCSV = `Name,Phone,Hostel,Year_of_Study,Sex,Pastor
Grace Wanjiru,0711 000 001,Hall 2,1,female,no
<b>Peter</b> Otieno,0711000002,Hall 2,3,M,yes
Missing Phone,,Hall 1,2,F,
Bad Year,0711000004,Hall 1,second,F,
O'Neil & Co,0711000005,Annex,2,brother,1
`

func TestParseCSV(t *testing.T) {
	regs, problems, err := ParseCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	require.Len(t, regs, 3)
	assert.Equal(t, models.Registrant{
		Name: "Grace Wanjiru", Phone: "0711000001", Residence: "Hall 2", YearOfStudy: 1, Gender: models.GenderFemale,
	}, regs[0])
	assert.Equal(t, "Peter Otieno", regs[1].Name)
	assert.True(t, regs[1].IsPastor)
	assert.Equal(t, models.GenderMale, regs[1].Gender)
	assert.Equal(t, "O'Neil & Co", regs[2].Name)
	assert.Equal(t, models.GenderMale, regs[2].Gender)
	assert.True(t, regs[2].IsPastor)

	require.Len(t, problems, 2)
	assert.Equal(t, 4, problems[0].Line)
	assert.Contains(t, problems[0].Reason, "required")
	assert.Equal(t, 5, problems[1].Line)
	assert.Contains(t, problems[1].Error(), "second")
}

func TestParseCSV_BadHeader(t *testing.T) {
	_, _, err := ParseCSV(strings.NewReader("residence,year\nHall,1\n"))
	assert.ErrorContains(t, err, "name")

	_, _, err = ParseCSV(strings.NewReader(""))
	assert.Error(t, err)
}

func TestNormalize(t *testing.T) {
	r := Normalize(models.Registrant{Name: "  Ann  ", Phone: " 07 11 ", Residence: "<i>Annex</i>", Gender: "Unknown"})
	assert.Equal(t, "Ann", r.Name)
	assert.Equal(t, "0711", r.Phone)
	assert.Equal(t, "Annex", r.Residence)
	assert.Equal(t, models.Gender("Unknown"), r.Gender)
}

func TestValidate(t *testing.T) {
	assert.Equal(t, []string{"at least one registrant is required"}, Validate(nil))

	problems := Validate([]models.Registrant{
		{Name: "A", Phone: "1", Gender: models.GenderMale},
		{Name: "B", Phone: "1", Gender: models.GenderFemale},
		{Name: "", Phone: "", Gender: "X"},
	})
	require.Len(t, problems, 4)
	assert.Contains(t, problems[0], "duplicate phone 1")
	assert.Contains(t, problems[1], "name is required")
	assert.Contains(t, problems[2], "phone is required")
	assert.Contains(t, problems[3], `"X"`)

	assert.Empty(t, Validate([]models.Registrant{{Name: "A", Phone: "1", Gender: models.GenderFemale}}))
}

func TestStore(t *testing.T) {
	db, err := database.Open(config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "roster.db")})
	require.NoError(t, err)
	store := NewStore(db)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, []models.Registrant{
		{Name: "Zed", Phone: "1", Residence: "B", YearOfStudy: 2, Gender: models.GenderMale},
		{Name: "Amy", Phone: "2", Residence: "A", YearOfStudy: 1, Gender: models.GenderFemale, IsPastor: true},
	}))
	require.NoError(t, store.Upsert(ctx, []models.Registrant{
		{Name: "Zed Updated", Phone: "1", Residence: "A", YearOfStudy: 3, Gender: models.GenderMale},
	}))

	regs, err := store.Registrants(ctx)
	require.NoError(t, err)
	require.Len(t, regs, 2)
	assert.Equal(t, models.Registrant{Name: "Amy", Phone: "2", Residence: "A", YearOfStudy: 1, Gender: models.GenderFemale, IsPastor: true}, regs[0])
	assert.Equal(t, models.Registrant{Name: "Zed Updated", Phone: "1", Residence: "A", YearOfStudy: 3, Gender: models.GenderMale}, regs[1])

	removed, err := store.Delete(ctx, "2")
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = store.Delete(ctx, "2")
	require.NoError(t, err)
	assert.False(t, removed)

	n, err := store.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	var p Provider = store
	regs, err = p.Registrants(ctx)
	require.NoError(t, err)
	assert.Empty(t, regs)
}

func TestStatic(t *testing.T) {
	src := Static{{Name: "A", Phone: "1"}}
	regs, err := src.Registrants(context.Background())
	require.NoError(t, err)
	regs[0].Name = "changed"
	assert.Equal(t, "A", src[0].Name)
}
