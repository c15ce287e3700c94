package handler

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cuportal/smallgroups-api/internal/app"
	"github.com/cuportal/smallgroups-api/internal/config"
)

var r *gin.Engine

func init() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}

	r, _, err = app.Build(cfg)
	if err != nil {
		log.Fatalf("could not start: %v", err)
	}
}

// Handler is the entry point for the Vercel Go runtime
func Handler(w http.ResponseWriter, req *http.Request) {
	r.ServeHTTP(w, req)
}
