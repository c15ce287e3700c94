package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Version is reported by the index route
const Version = "1.0.0"

// Routes registers every endpoint on r
func (h *Handler) Routes(r *gin.Engine) {
	r.StaticFS("/static", h.GetStaticFS())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Small Groups API",
			"version": Version,
		})
	})

	r.GET("/admin", h.AdminInterface)
	r.POST("/admin/login", h.Login)

	admin := r.Group("/admin")
	admin.Use(h.AuthMiddleware())
	{
		admin.POST("/keys", h.GenerateKey)
		admin.GET("/keys", h.ListKeys)
		admin.PUT("/keys/:id", h.UpdateKeyLimit)
		admin.DELETE("/keys/:id", h.RevokeKey)
		admin.GET("/usage/:id", h.GetUsage)

		admin.GET("/roster", h.ListRoster)
		admin.POST("/roster", h.UpsertRoster)
		admin.POST("/roster/csv", h.UploadRosterCSV)
		admin.DELETE("/roster", h.ClearRoster)
		admin.DELETE("/roster/:phone", h.DeleteRegistrant)

		admin.POST("/groups", h.CreateRun)
		admin.GET("/groups", h.ListRuns)
		admin.GET("/groups/:id", h.GetRun)
		admin.DELETE("/groups/:id", h.DeleteRun)
		admin.POST("/groups/:id/reshuffle", h.ReshuffleRun)
		admin.GET("/groups/:id/export", h.ExportRun)
	}

	api := r.Group("/api")
	api.Use(h.APIKeyMiddleware())
	{
		api.POST("/partition", h.PartitionJSON)
		api.POST("/partition/csv", h.PartitionCSV)
		api.POST("/validate", h.ValidateInput)
		api.GET("/usage", h.GetMyUsage)
	}
}
