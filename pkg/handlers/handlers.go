package handlers

import (
	"embed"
	"errors"
	"io/fs"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cuportal/smallgroups-api/pkg/auth"
	"github.com/cuportal/smallgroups-api/pkg/database"
	"github.com/cuportal/smallgroups-api/pkg/grouping"
	"github.com/cuportal/smallgroups-api/pkg/roster"
)

//go:embed static/*
var staticEmbed embed.FS

const defaultRateLimit = 10000

// Handler contains dependencies for the route handlers
type Handler struct {
	DB               *gorm.DB
	Auth             *auth.Service
	Roster           *roster.Store
	Source           roster.Provider
	Log              *zap.Logger
	DefaultGroupSize int
}

// New wires a Handler over db. Grouping runs read the stored roster.
func New(db *gorm.DB, authSvc *auth.Service, logger *zap.Logger, defaultGroupSize int) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	store := roster.NewStore(db)
	return &Handler{
		DB:               db,
		Auth:             authSvc,
		Roster:           store,
		Source:           store,
		Log:              logger,
		DefaultGroupSize: defaultGroupSize,
	}
}

// AuthMiddleware verifies the JWT token for staff routes
func (h *Handler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		claims, err := h.Auth.VerifyToken(auth.BearerToken(header))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Set("username", claims.Username)
		c.Next()
	}
}

// APIKeyMiddleware verifies the HMAC API key used by roster-provider integrations
// and enforces the key's daily request limit
func (h *Handler) APIKeyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "API Key required"})
			return
		}
		key := auth.BearerToken(header)

		userID, err := h.Auth.VerifyHMACKey(key)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid API Key signature"})
			return
		}

		var apiKey database.APIKey
		err = h.DB.Where(database.APIKey{Key: key}).FirstOrCreate(&apiKey, database.APIKey{
			Key:        key,
			Name:       userID,
			KeyPreview: keyPreview(key),
			RateLimit:  defaultRateLimit,
		}).Error
		if err != nil {
			h.Log.Error("api key lookup", zap.Error(err), zap.String("user_id", userID))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Could not load API key"})
			return
		}

		var usage database.APIUsage
		err = h.DB.Where("key_id = ? AND date = ?", apiKey.ID, today()).First(&usage).Error
		if err == nil && apiKey.RateLimit > 0 && usage.RequestCount >= apiKey.RateLimit {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Daily request limit reached"})
			return
		}

		now := time.Now()
		h.DB.Model(&apiKey).Update("last_used", &now)

		c.Set("apiKey", &apiKey)
		c.Set("userID", userID)
		c.Next()
	}
}

func today() string {
	return time.Now().Format("2006-01-02")
}

func keyPreview(key string) string {
	if len(key) > 8 {
		return key[:3] + "..." + key[len(key)-4:]
	}
	return "****"
}

// RecordUsage records API usage in the database using an efficient upsert
func (h *Handler) RecordUsage(c *gin.Context, registrantCount, groupCount int) {
	apiKeyRaw, exists := c.Get("apiKey")
	if !exists {
		return
	}
	apiKey := apiKeyRaw.(*database.APIKey)

	// OnConflict gives a single-query upsert on both Postgres and SQLite
	err := h.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key_id"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"request_count":     gorm.Expr("request_count + ?", 1),
			"total_registrants": gorm.Expr("total_registrants + ?", registrantCount),
			"total_groups":      gorm.Expr("total_groups + ?", groupCount),
		}),
	}).Create(&database.APIUsage{
		KeyID:            apiKey.ID,
		Date:             today(),
		RequestCount:     1,
		TotalRegistrants: registrantCount,
		TotalGroups:      groupCount,
	}).Error
	if err != nil {
		h.Log.Warn("record usage", zap.Error(err), zap.Uint("key_id", apiKey.ID))
	}
}

// respondPartitionError maps partitioner failures onto HTTP statuses
func (h *Handler) respondPartitionError(c *gin.Context, err error) {
	if grouping.IsInputError(err) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if errors.Is(err, grouping.ErrInvariantViolation) {
		h.Log.Error("partition invariant violated", zap.Error(err))
	} else {
		h.Log.Error("partition failed", zap.Error(err))
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not build groups"})
}

// Login handles staff login
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user database.MasterUser
	if err := h.DB.Where("username = ?", req.Username).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		h.Log.Info("failed login", zap.String("username", req.Username))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := h.Auth.CreateToken(user.Username)
	if err != nil {
		h.Log.Error("create token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"access_token": token, "token_type": "bearer"})
}

// GenerateKey creates a new API key for a roster-provider integration
func (h *Handler) GenerateKey(c *gin.Context) {
	var req struct {
		Name      string `json:"name"`
		RateLimit int    `json:"rate_limit"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	if req.RateLimit == 0 {
		req.RateLimit = defaultRateLimit
	}

	key := h.Auth.GenerateHMACKey(req.Name)
	apiKey := database.APIKey{
		Key:        key,
		Name:       req.Name,
		KeyPreview: keyPreview(key),
		RateLimit:  req.RateLimit,
	}

	if err := h.DB.Create(&apiKey).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Could not create key record"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":   apiKey.ID,
		"name": req.Name,
		"key":  key,
	})
}

// ListKeys returns all API keys
func (h *Handler) ListKeys(c *gin.Context) {
	var keys []database.APIKey
	if err := h.DB.Order("id").Find(&keys).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not list keys"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"keys": keys})
}

// RevokeKey deletes an API key
func (h *Handler) RevokeKey(c *gin.Context) {
	id := c.Param("id")
	if err := h.DB.Delete(&database.APIKey{}, id).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not delete key"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Key revoked"})
}

// UpdateKeyLimit updates the daily request limit for a key
func (h *Handler) UpdateKeyLimit(c *gin.Context) {
	id := c.Param("id")
	var req struct {
		RateLimit int `json:"rate_limit" form:"rate_limit"`
	}

	// Try JSON first, then Form/Query
	if err := c.ShouldBindJSON(&req); err != nil {
		if err := c.ShouldBindQuery(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "rate_limit is required"})
			return
		}
	}

	if req.RateLimit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid rate limit"})
		return
	}

	if err := h.DB.Model(&database.APIKey{}).Where("id = ?", id).Update("rate_limit", req.RateLimit).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not update key limit"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Rate limit updated successfully"})
}

// AdminInterface serves the staff panel from embedded files
func (h *Handler) AdminInterface(c *gin.Context) {
	data, err := staticEmbed.ReadFile("static/index.html")
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "static/index.html not found in embedded FS"})
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", data)
}

// GetStaticFS returns the embedded filesystem for static assets
func (h *Handler) GetStaticFS() http.FileSystem {
	sub, err := fs.Sub(staticEmbed, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}
