package handlers

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cuportal/smallgroups-api/internal/report"
	"github.com/cuportal/smallgroups-api/pkg/grouping"
	"github.com/cuportal/smallgroups-api/pkg/models"
	"github.com/cuportal/smallgroups-api/pkg/roster"
)

// groupSize falls back to the configured default when the caller sent none
func (h *Handler) groupSize(size *int) int {
	if size == nil {
		return h.DefaultGroupSize
	}
	return *size
}

func (h *Handler) partition(c *gin.Context, regs []models.Registrant, size int, seed *int64) (*models.GroupingResult, bool) {
	res, err := grouping.Partition(models.GroupingRequest{
		Roster:          regs,
		TargetGroupSize: size,
		Seed:            seed,
	})
	if err != nil {
		h.respondPartitionError(c, err)
		return nil, false
	}

	h.Log.Info("partitioned roster",
		zap.Int("registrants", len(regs)),
		zap.Int("groups", len(res.Groups)),
		zap.Int("target_group_size", size),
		zap.Int64("seed", res.Seed),
		zap.Int("groups_without_pastor", len(res.Coverage.GroupsWithoutPastor)),
	)
	return res, true
}

func newResponse(runID string, res *models.GroupingResult, extra ...string) models.PartitionResponse {
	return models.PartitionResponse{
		RunID:     runID,
		Result:    res,
		Summaries: report.Summaries(res),
		Warnings:  append(report.Warnings(res), extra...),
	}
}

// respondResult writes res as JSON, or as an export when raw names a format
func (h *Handler) respondResult(c *gin.Context, raw, runID string, res *models.GroupingResult, extra ...string) {
	if raw == "" {
		c.JSON(http.StatusOK, newResponse(runID, res, extra...))
		return
	}

	format, err := report.ParseFormat(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var buf bytes.Buffer
	if err := report.Write(&buf, format, c.Query("title"), res); err != nil {
		h.Log.Error("render report", zap.Error(err), zap.String("format", string(format)))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not render report"})
		return
	}
	if format == report.FormatCSV {
		name := "groups.csv"
		if runID != "" {
			name = "groups-" + runID + ".csv"
		}
		c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	}
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

// PartitionJSON handles the JSON-based partition request
func (h *Handler) PartitionJSON(c *gin.Context) {
	var input models.PartitionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	regs := make([]models.Registrant, len(input.Registrants))
	for i, r := range input.Registrants {
		regs[i] = roster.Normalize(r)
	}

	res, ok := h.partition(c, regs, h.groupSize(input.TargetGroupSize), input.Seed)
	if !ok {
		return
	}
	h.RecordUsage(c, len(regs), len(res.Groups))
	h.respondResult(c, c.Query("format"), "", res)
}

// PartitionCSV handles roster CSV uploads
func (h *Handler) PartitionCSV(c *gin.Context) {
	rosterFile, _ := c.FormFile("roster_file")
	if rosterFile == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "roster_file is required"})
		return
	}

	size := h.DefaultGroupSize
	if raw := strings.TrimSpace(c.PostForm("target_group_size")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "target_group_size must be an integer"})
			return
		}
		size = n
	}

	var seed *int64
	if raw := strings.TrimSpace(c.PostForm("seed")); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "seed must be an integer"})
			return
		}
		seed = &n
	}

	f, err := rosterFile.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open roster file"})
		return
	}
	defer f.Close()

	regs, problems, err := roster.ParseCSV(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, ok := h.partition(c, regs, size, seed)
	if !ok {
		return
	}
	h.RecordUsage(c, len(regs), len(res.Groups))

	skipped := make([]string, len(problems))
	for i, p := range problems {
		skipped[i] = "skipped " + p.Error()
	}
	h.respondResult(c, c.Query("format"), "", res, skipped...)
}
