package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cuportal/smallgroups-api/pkg/models"
	"github.com/cuportal/smallgroups-api/pkg/roster"
)

// dedupe keeps the last registrant seen for each phone, in first-seen order
func dedupe(regs []models.Registrant) []models.Registrant {
	index := make(map[string]int, len(regs))
	var out []models.Registrant
	for _, r := range regs {
		if i, ok := index[r.Phone]; ok {
			out[i] = r
			continue
		}
		index[r.Phone] = len(out)
		out = append(out, r)
	}
	return out
}

// ListRoster returns the stored roster
func (h *Handler) ListRoster(c *gin.Context) {
	recs, err := h.Roster.List(c.Request.Context())
	if err != nil {
		h.Log.Error("list roster", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not list roster"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"registrants": recs, "count": len(recs)})
}

// UpsertRoster adds or updates registrants sent as JSON
func (h *Handler) UpsertRoster(c *gin.Context) {
	var req struct {
		Registrants []models.Registrant `json:"registrants" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	regs := make([]models.Registrant, 0, len(req.Registrants))
	for _, r := range req.Registrants {
		r = roster.Normalize(r)
		if r.Name == "" || r.Phone == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "every registrant needs a name and a phone"})
			return
		}
		regs = append(regs, r)
	}
	h.storeRoster(c, dedupe(regs), nil)
}

// UploadRosterCSV imports a roster CSV into the stored roster
func (h *Handler) UploadRosterCSV(c *gin.Context) {
	rosterFile, _ := c.FormFile("roster_file")
	if rosterFile == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "roster_file is required"})
		return
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
	h.storeRoster(c, dedupe(regs), problems)
}

func (h *Handler) storeRoster(c *gin.Context, regs []models.Registrant, skipped []roster.RowError) {
	if err := h.Roster.Upsert(c.Request.Context(), regs); err != nil {
		h.Log.Error("upsert roster", zap.Error(err), zap.Int("registrants", len(regs)))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not save roster"})
		return
	}

	var warnings []string
	if len(regs) > 0 {
		warnings = roster.Validate(regs)
	}
	h.Log.Info("roster imported",
		zap.Int("imported", len(regs)),
		zap.Int("skipped", len(skipped)),
		zap.String("username", c.GetString("username")),
	)
	c.JSON(http.StatusOK, gin.H{
		"imported": len(regs),
		"skipped":  skipped,
		"warnings": warnings,
	})
}

// DeleteRegistrant removes one registrant by phone
func (h *Handler) DeleteRegistrant(c *gin.Context) {
	removed, err := h.Roster.Delete(c.Request.Context(), c.Param("phone"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not delete registrant"})
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "Registrant not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Registrant removed"})
}

// ClearRoster removes every stored registrant
func (h *Handler) ClearRoster(c *gin.Context) {
	n, err := h.Roster.Clear(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not clear roster"})
		return
	}
	h.Log.Info("roster cleared", zap.Int64("removed", n), zap.String("username", c.GetString("username")))
	c.JSON(http.StatusOK, gin.H{"removed": n})
}
