package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"

	"github.com/FuadModaresi/music-analysis/internal/apiroutes"
	"github.com/FuadModaresi/music-analysis/internal/middleware"
	"github.com/FuadModaresi/music-analysis/internal/server/handlers"
)

func setupRoutes(r *gin.Engine, deps Deps, log hclog.Logger) {
	registry := apiroutes.NewRegistry()

	setupAnalyzeRoutes(r, deps, log, registry)

	api := r.Group("/api")
	{
		health := handlers.NewHealthHandler(deps.StartedAt)
		api.GET("/health", health.HandleHealthCheck)
		registry.Register(api.BasePath()+"/health", http.MethodGet, "Service health, uptime and host memory usage.")

		api.GET("", handlers.APIRootHandler(registry))
		registry.Register(api.BasePath(), http.MethodGet, "Lists all available API endpoints.")
	}
}

// setupAnalyzeRoutes registers the upload endpoints behind the CORS headers.
func setupAnalyzeRoutes(r *gin.Engine, deps Deps, log hclog.Logger, registry *apiroutes.Registry) {
	analyze := handlers.NewAnalyzeHandler(deps.Analyzer, log)

	group := r.Group("/analyze-audio")
	if deps.Config.EnableCORS {
		group.Use(middleware.CORS())
	}

	group.POST("", analyze.AnalyzeAudio)
	registry.Register(group.BasePath(), http.MethodPost, "Analyze an uploaded audio file (multipart field musicFile).")
	group.OPTIONS("", middleware.Preflight)
	registry.Register(group.BasePath(), http.MethodOptions, "CORS pre-flight.")

	group.POST("/midi", analyze.AnalyzeAudioMIDI)
	registry.Register(group.BasePath()+"/midi", http.MethodPost, "Analyze an upload and return the notes as a Standard MIDI File.")
	group.OPTIONS("/midi", middleware.Preflight)
	registry.Register(group.BasePath()+"/midi", http.MethodOptions, "CORS pre-flight.")
}
