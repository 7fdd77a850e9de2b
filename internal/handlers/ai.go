package handlers

import (
	"encoding/json"
	"strings"
	"time"

	"ideahub/internal/db"
	"ideahub/internal/middleware"
	"ideahub/internal/models"
	"ideahub/internal/services"
	"ideahub/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AIHandler struct {
	llm    *services.LLMService
	logger *zap.Logger
}

func NewAIHandler(llm *services.LLMService, logger *zap.Logger) *AIHandler {
	return &AIHandler{llm: llm, logger: logger}
}

type suggestRequest struct {
	Title       string `json:"title" binding:"required,max=200"`
	Description string `json:"description" binding:"required"`
	Category    string `json:"category"`
	IdeaID      *uint  `json:"idea_id"` // persist the suggestion onto an existing idea
}

// Suggest asks the model to improve a draft idea. When idea_id points at an
// idea the requester owns, the suggestion is also stored on it.
func (h *AIHandler) Suggest(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var req suggestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "title and description are required")
		return
	}

	suggestion, err := h.llm.SuggestImprovement(req.Title, req.Description, req.Category)
	if err != nil {
		Fail(c, err)
		return
	}

	if req.IdeaID != nil {
		var idea models.Idea
		if err := db.DB.First(&idea, *req.IdeaID).Error; err == nil &&
			(idea.AuthorID == user.ID || user.IsAdmin()) {
			raw, _ := json.Marshal(suggestion)
			if err := db.DB.Model(&idea).UpdateColumn("ai_suggestions", string(raw)).Error; err != nil {
				h.logger.Warn("could not store suggestion", zap.Uint("idea_id", idea.ID), zap.Error(err))
			}
		}
	}

	OK(c, suggestion)
}

// Analyze scores an existing idea and persists the result onto it.
func (h *AIHandler) Analyze(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var idea models.Idea
	if err := db.DB.First(&idea, utils.StringToUint(c.Param("id"))).Error; err != nil {
		Fail(c, services.NotFound("idea not found"))
		return
	}
	if idea.AuthorID != user.ID && !user.IsAdmin() {
		Fail(c, services.Unauthorized("only the idea's author or an admin can analyze it"))
		return
	}

	analysis, err := h.llm.Analyze(idea.Title, idea.Description, idea.Category)
	if err != nil {
		Fail(c, err)
		return
	}

	now := time.Now()
	updates := map[string]interface{}{
		"ai_sentiment":         analysis.Sentiment,
		"ai_feasibility_score": analysis.FeasibilityScore,
		"ai_innovation_score":  analysis.InnovationScore,
		"ai_impact_score":      analysis.ImpactScore,
		"ai_overall_score":     analysis.OverallScore,
		"ai_insights":          strings.Join(analysis.Insights, "\n"),
		"ai_analyzed_at":       now,
	}
	if err := db.DB.Model(&idea).UpdateColumns(updates).Error; err != nil {
		Fail(c, services.Unavailable("could not store analysis", err))
		return
	}

	OK(c, analysis)
}
