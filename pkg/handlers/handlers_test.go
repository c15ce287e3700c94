package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"

	"github.com/cuportal/smallgroups-api/internal/config"
	"github.com/cuportal/smallgroups-api/pkg/auth"
	"github.com/cuportal/smallgroups-api/pkg/database"
	"github.com/cuportal/smallgroups-api/pkg/models"
	"github.com/cuportal/smallgroups-api/pkg/roster"
)

type testServer struct {
	r      *gin.Engine
	h      *Handler
	apiKey string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Open(config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)

	svc := auth.NewService(config.AuthConfig{
		JWTSecret:    "jwt-secret",
		MasterSecret: "master-secret",
		BcryptCost:   bcrypt.MinCost,
		TokenTTL:     time.Hour,
	})
	_, err = svc.EnsureAdminExists(db, "admin", "letmein")
	require.NoError(t, err)

	h := New(db, svc, zaptest.NewLogger(t), 4)
	r := gin.New()
	h.Routes(r)
	return &testServer{r: r, h: h, apiKey: svc.GenerateHMACKey("registration.desk")}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.r.ServeHTTP(w, req)
	return w
}

func (s *testServer) upload(t *testing.T, path, token, csvBody string, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("roster_file", "roster.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte(csvBody))
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	s.r.ServeHTTP(w, req)
	return w
}

func (s *testServer) login(t *testing.T) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/admin/login", "", gin.H{"username": "admin", "password": "letmein"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var body struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotEmpty(t, body.AccessToken)
	return body.AccessToken
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func testRoster(n int) []models.Registrant {
	regs := make([]models.Registrant, n)
	for i := range regs {
		g := models.GenderMale
		if i%2 == 1 {
			g = models.GenderFemale
		}
		regs[i] = models.Registrant{
			Name:        fmt.Sprintf("Student %02d", i+1),
			Phone:       fmt.Sprintf("07000000%02d", i+1),
			Residence:   []string{"Hall A", "Hall B", "Annex"}[i%3],
			YearOfStudy: 1 + i%4,
			Gender:      g,
			IsPastor:    i%5 == 0,
		}
	}
	return regs
}

func intp(n int) *int       { return &n }
func int64p(n int64) *int64 { return &n }

const uploadCSV = `name,phone,hostel,year,sex,pastor
Ann,0711000001,Hall A,1,female,yes
Ben,0711000002,Hall A,2,male,
Cara,0711000003,Hall B,1,F,
Dan,,Hall B,3,M,
Eve,0711000005,Hall B,2,F,yes
`

func TestIndexAndAdminPage(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Small Groups API")

	w = s.do(t, http.MethodGet, "/admin", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "Small Groups Admin")
}

func TestPartitionJSON(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/partition", s.apiKey, models.PartitionInput{
		Registrants:     testRoster(12),
		TargetGroupSize: intp(5),
		Seed:            int64p(42),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[models.PartitionResponse](t, w)
	require.NotNil(t, resp.Result)
	assert.Len(t, resp.Result.Groups, 3)
	assert.Equal(t, 12, resp.Result.MemberCount())
	assert.Equal(t, int64(42), resp.Result.Seed)
	assert.Len(t, resp.Summaries, 3)
	assert.Equal(t, 1, resp.Summaries[0].Number)
	assert.Empty(t, resp.RunID)

	// Same seed, same groups.
	again := decode[models.PartitionResponse](t, s.do(t, http.MethodPost, "/api/partition", s.apiKey, models.PartitionInput{
		Registrants:     testRoster(12),
		TargetGroupSize: intp(5),
		Seed:            int64p(42),
	}))
	assert.Equal(t, resp.Result.Groups, again.Result.Groups)

	w = s.do(t, http.MethodGet, "/api/usage", s.apiKey, nil)
	require.Equal(t, http.StatusOK, w.Code)
	usage := decode[struct {
		KeyName string `json:"key_name"`
		Totals  struct {
			Requests    int64 `json:"requests"`
			Registrants int64 `json:"registrants"`
			Groups      int64 `json:"groups"`
		} `json:"totals"`
	}](t, w)
	assert.Equal(t, "registration.desk", usage.KeyName)
	assert.Equal(t, int64(2), usage.Totals.Requests)
	assert.Equal(t, int64(24), usage.Totals.Registrants)
	assert.Equal(t, int64(6), usage.Totals.Groups)
}

func TestPartitionJSON_DefaultSizeAndNormalize(t *testing.T) {
	s := newTestServer(t)

	regs := testRoster(10)
	regs[0].Gender = "male"
	regs[1].Name = "<b>Student 02</b>"

	w := s.do(t, http.MethodPost, "/api/partition", s.apiKey, models.PartitionInput{Registrants: regs, Seed: int64p(3)})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[models.PartitionResponse](t, w)
	assert.Equal(t, 4, resp.Result.TargetGroupSize)
	assert.Len(t, resp.Result.Groups, 3)

	names := map[string]models.Gender{}
	for _, g := range resp.Result.Groups {
		for _, m := range g.Members {
			names[m.Name] = m.Gender
		}
	}
	assert.Contains(t, names, "Student 02")
	assert.Equal(t, models.GenderMale, names["Student 01"])
}

func TestPartitionJSON_Errors(t *testing.T) {
	s := newTestServer(t)

	dup := testRoster(4)
	dup[3].Phone = dup[0].Phone

	tests := []struct {
		name  string
		input models.PartitionInput
	}{
		{"empty roster", models.PartitionInput{Registrants: nil, TargetGroupSize: intp(4)}},
		{"zero size", models.PartitionInput{Registrants: testRoster(4), TargetGroupSize: intp(0)}},
		{"negative size", models.PartitionInput{Registrants: testRoster(4), TargetGroupSize: intp(-2)}},
		{"duplicate phone", models.PartitionInput{Registrants: dup, TargetGroupSize: intp(2)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, "/api/partition", s.apiKey, tt.input)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Contains(t, w.Body.String(), "error")
		})
	}

	w := s.do(t, http.MethodPost, "/api/partition", "", models.PartitionInput{Registrants: testRoster(4)})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/api/partition", "registration.desk.bad", models.PartitionInput{Registrants: testRoster(4)})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPartitionJSON_Export(t *testing.T) {
	s := newTestServer(t)
	input := models.PartitionInput{Registrants: testRoster(6), TargetGroupSize: intp(3), Seed: int64p(9)}

	w := s.do(t, http.MethodPost, "/api/partition?format=csv", s.apiKey, input)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "groups.csv")
	assert.Contains(t, w.Body.String(), "group,name,phone,residence,year,gender,pastor")

	w = s.do(t, http.MethodPost, "/api/partition?format=html&title=Spring", s.apiKey, input)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<title>Spring</title>")

	w = s.do(t, http.MethodPost, "/api/partition?format=pdf", s.apiKey, input)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPartitionCSV(t *testing.T) {
	s := newTestServer(t)

	w := s.upload(t, "/api/partition/csv", s.apiKey, uploadCSV, map[string]string{"target_group_size": "2", "seed": "5"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[models.PartitionResponse](t, w)
	assert.Equal(t, 4, resp.Result.MemberCount())
	assert.Len(t, resp.Result.Groups, 2)
	assert.Equal(t, int64(5), resp.Result.Seed)
	require.NotEmpty(t, resp.Warnings)
	assert.Contains(t, resp.Warnings[len(resp.Warnings)-1], "line 5")

	w = s.upload(t, "/api/partition/csv", s.apiKey, uploadCSV, map[string]string{"target_group_size": "two"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.upload(t, "/api/partition/csv", s.apiKey, "residence\nHall A\n", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestValidateInput(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/validate", s.apiKey, models.PartitionInput{Registrants: testRoster(10), TargetGroupSize: intp(3)})
	require.Equal(t, http.StatusOK, w.Code)
	ok := decode[struct {
		Valid bool `json:"valid"`
		Stats struct {
			RegistrantCount int `json:"registrant_count"`
			PastorCount     int `json:"pastor_count"`
			ResidenceCount  int `json:"residence_count"`
			ExpectedGroups  int `json:"expected_groups"`
		} `json:"stats"`
	}](t, w)
	assert.True(t, ok.Valid)
	assert.Equal(t, 10, ok.Stats.RegistrantCount)
	assert.Equal(t, 2, ok.Stats.PastorCount)
	assert.Equal(t, 3, ok.Stats.ResidenceCount)
	assert.Equal(t, 4, ok.Stats.ExpectedGroups)

	bad := testRoster(3)
	bad[2].Phone = bad[1].Phone
	w = s.do(t, http.MethodPost, "/api/validate", s.apiKey, models.PartitionInput{Registrants: bad, TargetGroupSize: intp(0)})
	require.Equal(t, http.StatusOK, w.Code)
	notOK := decode[struct {
		Valid    bool     `json:"valid"`
		Problems []string `json:"problems"`
	}](t, w)
	assert.False(t, notOK.Valid)
	assert.Len(t, notOK.Problems, 2)
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.h.DB.Create(&database.APIKey{Key: s.apiKey, Name: "registration.desk", RateLimit: 1}).Error)

	input := models.PartitionInput{Registrants: testRoster(4), TargetGroupSize: intp(2)}
	w := s.do(t, http.MethodPost, "/api/partition", s.apiKey, input)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPost, "/api/partition", s.apiKey, input)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestAdminAuth(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/admin/groups", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodGet, "/admin/groups", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/admin/login", "", gin.H{"username": "admin", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestKeyManagement(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)

	w := s.do(t, http.MethodPost, "/admin/keys", token, gin.H{"name": "signup.form"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	created := decode[struct {
		ID  uint   `json:"id"`
		Key string `json:"key"`
	}](t, w)

	w = s.do(t, http.MethodGet, "/api/usage", created.Key, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/admin/keys", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "signup.form")
	assert.NotContains(t, w.Body.String(), created.Key)

	path := fmt.Sprintf("/admin/keys/%d", created.ID)
	w = s.do(t, http.MethodPut, path, token, gin.H{"rate_limit": 5})
	assert.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodPut, path, token, gin.H{"rate_limit": -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, fmt.Sprintf("/admin/usage/%d", created.ID), token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodDelete, path, token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRosterEndpoints(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)

	regs := testRoster(6)
	update := regs[0]
	update.Residence = "Annex"
	w := s.do(t, http.MethodPost, "/admin/roster", token, gin.H{"registrants": append(regs, update)})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(6), decode[map[string]any](t, w)["imported"])

	w = s.do(t, http.MethodPost, "/admin/roster", token, gin.H{"registrants": []models.Registrant{{Name: "No Phone"}}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.upload(t, "/admin/roster/csv", token, uploadCSV, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	imported := decode[struct {
		Imported int `json:"imported"`
		Skipped  []struct {
			Line int `json:"line"`
		} `json:"skipped"`
	}](t, w)
	assert.Equal(t, 4, imported.Imported)
	require.Len(t, imported.Skipped, 1)
	assert.Equal(t, 5, imported.Skipped[0].Line)

	w = s.do(t, http.MethodGet, "/admin/roster", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	listed := decode[struct {
		Count       int `json:"count"`
		Registrants []struct {
			Phone     string `json:"phone"`
			Residence string `json:"residence"`
		} `json:"registrants"`
	}](t, w)
	assert.Equal(t, 10, listed.Count)
	for _, r := range listed.Registrants {
		if r.Phone == regs[0].Phone {
			assert.Equal(t, "Annex", r.Residence)
		}
	}

	w = s.do(t, http.MethodDelete, "/admin/roster/"+regs[1].Phone, token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodDelete, "/admin/roster/"+regs[1].Phone, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodDelete, "/admin/roster", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(9), decode[map[string]any](t, w)["removed"])
}

func TestGroupingRunLifecycle(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)

	w := s.do(t, http.MethodPost, "/admin/groups", token, gin.H{"target_group_size": 3})
	assert.Equal(t, http.StatusBadRequest, w.Code, "empty stored roster")

	w = s.do(t, http.MethodPost, "/admin/roster", token, gin.H{"registrants": testRoster(11)})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPost, "/admin/groups", token, gin.H{"target_group_size": 3, "seed": 5})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	first := decode[models.PartitionResponse](t, w)
	require.NotEmpty(t, first.RunID)
	assert.Len(t, first.Result.Groups, 4)
	assert.Equal(t, int64(5), first.Result.Seed)

	w = s.do(t, http.MethodGet, "/admin/groups/"+first.RunID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	fetched := decode[models.PartitionResponse](t, w)
	assert.Equal(t, first.Result.Groups, fetched.Result.Groups)
	assert.Equal(t, first.RunID, fetched.RunID)

	w = s.do(t, http.MethodPost, "/admin/groups/"+first.RunID+"/reshuffle", token, gin.H{})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	second := decode[models.PartitionResponse](t, w)
	assert.NotEqual(t, first.RunID, second.RunID)
	assert.NotEqual(t, first.Result.Seed, second.Result.Seed)
	assert.Equal(t, 11, second.Result.MemberCount())
	assert.Equal(t, 3, second.Result.TargetGroupSize)

	var run database.GroupingRun
	require.NoError(t, s.h.DB.Where("id = ?", second.RunID).First(&run).Error)
	assert.Equal(t, first.RunID, run.ParentID)
	assert.Equal(t, "admin", run.CreatedBy)

	w = s.do(t, http.MethodGet, "/admin/groups", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[struct {
		Runs []database.GroupingRun `json:"runs"`
	}](t, w).Runs, 2)

	w = s.do(t, http.MethodGet, "/admin/groups/"+first.RunID+"/export", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "Group 1")

	w = s.do(t, http.MethodGet, "/admin/groups/"+first.RunID+"/export?format=csv", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "groups-"+first.RunID+".csv")

	w = s.do(t, http.MethodGet, "/admin/groups/"+first.RunID+"/export?format=yaml", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "groups:")

	w = s.do(t, http.MethodDelete, "/admin/groups/"+first.RunID, token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodGet, "/admin/groups/"+first.RunID, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = s.do(t, http.MethodDelete, "/admin/groups/"+first.RunID, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPost, "/admin/groups/"+first.RunID+"/reshuffle", token, gin.H{})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExportRun_DefaultsToText(t *testing.T) {
	s := newTestServer(t)
	s.h.Source = roster.Static(testRoster(7))
	token := s.login(t)

	w := s.do(t, http.MethodPost, "/admin/groups", token, gin.H{"target_group_size": 4, "seed": 2})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	runID := decode[models.PartitionResponse](t, w).RunID

	w = s.do(t, http.MethodGet, "/admin/groups/"+runID+"/export", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "Group 2")

	w = s.do(t, http.MethodGet, "/admin/groups/"+runID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))

	w = s.do(t, http.MethodGet, "/admin/groups/"+runID+"?format=text", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))
}

func TestCreateRun_ReadsRosterSource(t *testing.T) {
	s := newTestServer(t)
	s.h.Source = roster.Static(testRoster(9))
	token := s.login(t)

	w := s.do(t, http.MethodPost, "/admin/groups", token, gin.H{"target_group_size": 3, "seed": 4})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	resp := decode[models.PartitionResponse](t, w)
	assert.Equal(t, 9, resp.Result.MemberCount())
	assert.Len(t, resp.Result.Groups, 3)

	w = s.do(t, http.MethodGet, "/admin/roster", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), decode[map[string]any](t, w)["count"])
}

func TestUsageReport(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.h.DB.Create(&database.APIKey{Key: s.apiKey, Name: "registration.desk", RateLimit: 5}).Error)

	for _, size := range []int{3, 4} {
		w := s.do(t, http.MethodPost, "/api/partition", s.apiKey, models.PartitionInput{Registrants: testRoster(12), TargetGroupSize: intp(size)})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	type report struct {
		RequestsToday    int     `json:"requests_today"`
		RemainingToday   int     `json:"remaining_today"`
		AverageGroupSize float64 `json:"average_group_size"`
		Totals           struct {
			Requests    int64 `json:"requests"`
			Registrants int64 `json:"registrants"`
			Groups      int64 `json:"groups"`
		} `json:"totals"`
		History []database.APIUsage `json:"usage_history"`
	}

	w := s.do(t, http.MethodGet, "/api/usage", s.apiKey, nil)
	require.Equal(t, http.StatusOK, w.Code)
	mine := decode[report](t, w)
	assert.Equal(t, 2, mine.RequestsToday)
	assert.Equal(t, 3, mine.RemainingToday)
	assert.Equal(t, int64(24), mine.Totals.Registrants)
	assert.Equal(t, int64(7), mine.Totals.Groups)
	assert.InDelta(t, 24.0/7.0, mine.AverageGroupSize, 1e-9)
	assert.Len(t, mine.History, 1)

	token := s.login(t)
	var key database.APIKey
	require.NoError(t, s.h.DB.Where("name = ?", "registration.desk").First(&key).Error)

	w = s.do(t, http.MethodGet, fmt.Sprintf("/admin/usage/%d", key.ID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, mine.Totals, decode[report](t, w).Totals)

	w = s.do(t, http.MethodGet, "/admin/usage/9999", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
