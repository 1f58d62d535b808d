// Package server exposes the profiling pipeline over HTTP.
package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/spigell/devscout/internal/ai"
	"github.com/spigell/devscout/internal/metrics"
	"github.com/spigell/devscout/internal/profile"
	"github.com/spigell/devscout/internal/scout"
	"go.uber.org/zap"
)

const noProfilesMsg = "No profiles available. Analyze repositories first."

// Mode describes which external credentials are configured.
type Mode struct {
	UsingAI        bool `json:"using_ai"`
	HasGitHubToken bool `json:"has_github_token"`
	HasGeminiKey   bool `json:"has_gemini_key"`
}

type Server struct {
	scout       *scout.Scout
	logger      *zap.Logger
	metrics     *metrics.Manager
	targetsPath string
	mode        Mode
}

func New(s *scout.Scout, targetsPath string, mode Mode, m *metrics.Manager, logger *zap.Logger) *Server {
	return &Server{
		scout:       s,
		logger:      logger,
		metrics:     m,
		targetsPath: targetsPath,
		mode:        mode,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.countRequests())

	router.GET("/healthz", s.health)
	router.GET("/profiles", s.getProfiles)
	router.GET("/search", s.search)
	router.POST("/analyze", s.analyze)
	router.POST("/match", s.match)
	router.GET("/mode", s.getMode)
	router.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	return router
}

func (s *Server) countRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		s.metrics.ObserveHTTP(c.Request.Method, c.FullPath(), strconv.Itoa(c.Writer.Status()))
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "running",
		"using_ai": s.mode.UsingAI,
	})
}

func (s *Server) getProfiles(c *gin.Context) {
	profiles, err := s.scout.Profiles()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"profiles": profiles.Items,
		"count":    profiles.Len(),
		"using_ai": s.mode.UsingAI,
	})
}

func (s *Server) analyze(c *gin.Context) {
	var repos []string
	if err := c.ShouldBindJSON(&repos); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := s.scout.SynthesizeProfiles(c.Request.Context(), repos)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	if err := s.scout.SaveProfiles(result.Profiles); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := gin.H{
		"success":            true,
		"profiles_generated": result.Profiles.Len(),
		"profiles":           result.Profiles.Items,
		"using_ai":           result.UsingAI,
	}
	if len(result.FailedSources) > 0 {
		resp["failed_sources"] = result.FailedSources
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("query"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter is required"})
		return
	}

	matches, err := s.scout.MatchQuery(c.Request.Context(), query)
	if err != nil {
		if errors.Is(err, scout.ErrNoProfiles) {
			c.JSON(http.StatusOK, gin.H{
				"matches":  []any{},
				"message":  noProfilesMsg,
				"using_ai": s.mode.UsingAI,
			})
			return
		}

		status := http.StatusInternalServerError
		if errors.Is(err, ai.ErrUnparsable) {
			status = http.StatusBadGateway
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	enriched := make([]map[string]any, 0, len(matches))
	for _, match := range matches {
		enriched = append(enriched, match.Fields)
	}

	c.JSON(http.StatusOK, gin.H{
		"matches":  enriched,
		"query":    query,
		"using_ai": s.mode.UsingAI,
	})
}

func (s *Server) match(c *gin.Context) {
	targets, err := profile.LoadTargets(s.targetsPath)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	result, err := s.scout.RunAssignmentMatch(c.Request.Context(), targets)
	if err != nil {
		switch {
		case errors.Is(err, scout.ErrNoProfiles):
			c.JSON(http.StatusBadRequest, gin.H{"error": noProfilesMsg})
		case errors.Is(err, scout.ErrNoTargets):
			c.JSON(http.StatusBadRequest, gin.H{"error": "no targets found in targets file"})
		case errors.Is(err, ai.ErrUnparsable):
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"persona_count": result.PersonaCount,
		"target_count":  result.TargetCount,
		"generated_at":  result.GeneratedAt,
		"matches":       result.Matches,
		"using_ai":      result.UsingAI,
	})
}

func (s *Server) getMode(c *gin.Context) {
	message := "Using real GitHub and Gemini APIs"
	if !s.mode.UsingAI {
		message = "Demo mode: using deterministic fallbacks and keyword matching"
	}

	c.JSON(http.StatusOK, gin.H{
		"using_ai":         s.mode.UsingAI,
		"message":          message,
		"has_github_token": s.mode.HasGitHubToken,
		"has_gemini_key":   s.mode.HasGeminiKey,
	})
}
