package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cuportal/smallgroups-api/pkg/database"
)

const usageHistoryDays = 30

type usageTotals struct {
	Requests    int64 `json:"requests"`
	Registrants int64 `json:"registrants"`
	Groups      int64 `json:"groups" gorm:"column:grouped"`
}

// usageReport is what a key has been used for: the recent daily rows, all-time
// sums and how much of today's limit is left. RemainingToday is -1 for keys
// without a limit.
type usageReport struct {
	KeyName          string              `json:"key_name"`
	RateLimit        int                 `json:"rate_limit"`
	RequestsToday    int                 `json:"requests_today"`
	RemainingToday   int                 `json:"remaining_today"`
	AverageGroupSize float64             `json:"average_group_size"`
	Totals           usageTotals         `json:"totals"`
	History          []database.APIUsage `json:"usage_history"`
}

func (h *Handler) usageFor(ctx context.Context, key *database.APIKey) (*usageReport, error) {
	db := h.DB.WithContext(ctx)
	rep := &usageReport{KeyName: key.Name, RateLimit: key.RateLimit, RemainingToday: -1}

	if err := db.Where("key_id = ?", key.ID).Order("date desc").Limit(usageHistoryDays).Find(&rep.History).Error; err != nil {
		return nil, err
	}

	err := db.Model(&database.APIUsage{}).
		Select("COALESCE(SUM(request_count), 0) AS requests, "+
			"COALESCE(SUM(total_registrants), 0) AS registrants, "+
			"COALESCE(SUM(total_groups), 0) AS grouped").
		Where("key_id = ?", key.ID).
		Scan(&rep.Totals).Error
	if err != nil {
		return nil, err
	}
	if rep.Totals.Groups > 0 {
		rep.AverageGroupSize = float64(rep.Totals.Registrants) / float64(rep.Totals.Groups)
	}

	if len(rep.History) > 0 && rep.History[0].Date == today() {
		rep.RequestsToday = rep.History[0].RequestCount
	}
	if key.RateLimit > 0 {
		rep.RemainingToday = max(key.RateLimit-rep.RequestsToday, 0)
	}
	return rep, nil
}

func (h *Handler) respondUsage(c *gin.Context, key *database.APIKey) {
	rep, err := h.usageFor(c.Request.Context(), key)
	if err != nil {
		h.Log.Error("usage report", zap.Error(err), zap.Uint("key_id", key.ID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch usage details"})
		return
	}
	c.JSON(http.StatusOK, rep)
}

// GetMyUsage reports usage for the calling API key
func (h *Handler) GetMyUsage(c *gin.Context) {
	key, ok := c.MustGet("apiKey").(*database.APIKey)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "API Key context missing"})
		return
	}
	h.respondUsage(c, key)
}

// GetUsage reports usage for the key named by :id
func (h *Handler) GetUsage(c *gin.Context) {
	var key database.APIKey
	err := h.DB.WithContext(c.Request.Context()).Where("id = ?", c.Param("id")).First(&key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "API key not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not load API key"})
		return
	}
	h.respondUsage(c, &key)
}
