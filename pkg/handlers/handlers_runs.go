package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cuportal/smallgroups-api/internal/report"
	"github.com/cuportal/smallgroups-api/pkg/database"
	"github.com/cuportal/smallgroups-api/pkg/grouping"
	"github.com/cuportal/smallgroups-api/pkg/models"
)

type runRequest struct {
	TargetGroupSize *int   `json:"target_group_size"`
	Seed            *int64 `json:"seed"`
}

// bindOptionalJSON binds the body when there is one
func bindOptionalJSON(c *gin.Context, v any) error {
	if err := c.ShouldBindJSON(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (h *Handler) saveRun(ctx context.Context, parentID, username string, regs []models.Registrant, res *models.GroupingResult) (*database.GroupingRun, error) {
	snapshot, err := json.Marshal(regs)
	if err != nil {
		return nil, err
	}
	result, err := json.Marshal(res)
	if err != nil {
		return nil, err
	}

	run := &database.GroupingRun{
		ID:              uuid.NewString(),
		ParentID:        parentID,
		Seed:            res.Seed,
		TargetGroupSize: res.TargetGroupSize,
		RegistrantCount: len(regs),
		GroupCount:      len(res.Groups),
		Roster:          string(snapshot),
		Result:          string(result),
		CreatedBy:       username,
	}
	if err := h.DB.WithContext(ctx).Create(run).Error; err != nil {
		return nil, err
	}
	return run, nil
}

// loadRun fetches the run named by the :id parameter, writing the error response itself
func (h *Handler) loadRun(c *gin.Context) (*database.GroupingRun, bool) {
	var run database.GroupingRun
	err := h.DB.WithContext(c.Request.Context()).Where("id = ?", c.Param("id")).First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Grouping run not found"})
		return nil, false
	}
	if err != nil {
		h.Log.Error("load run", zap.Error(err), zap.String("run_id", c.Param("id")))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not load grouping run"})
		return nil, false
	}
	return &run, true
}

func decodeResult(run *database.GroupingRun) (*models.GroupingResult, error) {
	var res models.GroupingResult
	if err := json.Unmarshal([]byte(run.Result), &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// CreateRun partitions the roster from h.Source and keeps the result
func (h *Handler) CreateRun(c *gin.Context) {
	var req runRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	regs, err := h.Source.Registrants(c.Request.Context())
	if err != nil {
		h.Log.Error("load roster", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not load roster"})
		return
	}

	res, ok := h.partition(c, regs, h.groupSize(req.TargetGroupSize), req.Seed)
	if !ok {
		return
	}

	run, err := h.saveRun(c.Request.Context(), "", c.GetString("username"), regs, res)
	if err != nil {
		h.Log.Error("save run", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not save grouping run"})
		return
	}
	c.JSON(http.StatusCreated, newResponse(run.ID, res))
}

// ReshuffleRun partitions a run's roster snapshot again with a new seed
func (h *Handler) ReshuffleRun(c *gin.Context) {
	var req runRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	prev, ok := h.loadRun(c)
	if !ok {
		return
	}

	var regs []models.Registrant
	if err := json.Unmarshal([]byte(prev.Roster), &regs); err != nil {
		h.Log.Error("decode roster snapshot", zap.Error(err), zap.String("run_id", prev.ID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not read grouping run"})
		return
	}

	res, err := grouping.Reshuffle(models.GroupingRequest{
		Roster:          regs,
		TargetGroupSize: prev.TargetGroupSize,
		Seed:            req.Seed,
	}, prev.Seed)
	if err != nil {
		h.respondPartitionError(c, err)
		return
	}

	run, err := h.saveRun(c.Request.Context(), prev.ID, c.GetString("username"), regs, res)
	if err != nil {
		h.Log.Error("save run", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not save grouping run"})
		return
	}
	h.Log.Info("reshuffled run", zap.String("from", prev.ID), zap.String("to", run.ID), zap.Int64("seed", res.Seed))
	c.JSON(http.StatusCreated, newResponse(run.ID, res))
}

// ListRuns returns the most recent grouping runs
func (h *Handler) ListRuns(c *gin.Context) {
	var runs []database.GroupingRun
	if err := h.DB.WithContext(c.Request.Context()).Order("created_at desc").Limit(50).Find(&runs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not list grouping runs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

// GetRun returns one run, or renders it when ?format= is given
func (h *Handler) GetRun(c *gin.Context) {
	h.renderRun(c, c.Query("format"))
}

// ExportRun renders a run in the requested format, text when none is given
func (h *Handler) ExportRun(c *gin.Context) {
	h.renderRun(c, c.DefaultQuery("format", string(report.FormatText)))
}

func (h *Handler) renderRun(c *gin.Context, format string) {
	run, ok := h.loadRun(c)
	if !ok {
		return
	}
	res, err := decodeResult(run)
	if err != nil {
		h.Log.Error("decode run", zap.Error(err), zap.String("run_id", run.ID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not read grouping run"})
		return
	}
	h.respondResult(c, format, run.ID, res)
}

// DeleteRun discards a run; nothing is re-partitioned
func (h *Handler) DeleteRun(c *gin.Context) {
	res := h.DB.WithContext(c.Request.Context()).Where("id = ?", c.Param("id")).Delete(&database.GroupingRun{})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not delete grouping run"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Grouping run not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Grouping run discarded"})
}
