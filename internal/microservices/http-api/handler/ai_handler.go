package handler

import (
	"context"
	"net/http"
	"time"

	"afriotv/internal/genai"
	"afriotv/internal/microservices/http-api/dto"

	"github.com/gin-gonic/gin"
)

// Recommender runs the recommendation prompts.
type Recommender interface {
	Recommend(ctx context.Context, in genai.RecommendationsInput) (*genai.Output, error)
	Similar(ctx context.Context, in genai.SimilarInput) (*genai.Output, error)
}

type AIHandler struct {
	flows   Recommender
	timeout time.Duration
}

func NewAIHandler(flows Recommender, timeout time.Duration) *AIHandler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &AIHandler{flows: flows, timeout: timeout}
}

func (h *AIHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/recommendations", h.Recommendations)
	rg.POST("/similar", h.Similar)
}

func (h *AIHandler) Recommendations(c *gin.Context) {
	var req dto.RecommendationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	out, err := h.flows.Recommend(ctx, genai.RecommendationsInput{
		ViewingHistory: req.ViewingHistory,
		Preferences:    req.Preferences,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.RecommendationsResponse{Recommendations: out.Recommendations})
}

func (h *AIHandler) Similar(c *gin.Context) {
	var req dto.SimilarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	out, err := h.flows.Similar(ctx, genai.SimilarInput{Title: req.Title})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.RecommendationsResponse{Recommendations: out.Recommendations})
}
