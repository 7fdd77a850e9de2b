package handlers

import (
	"strings"

	"ideahub/internal/db"
	"ideahub/internal/middleware"
	"ideahub/internal/models"
	"ideahub/internal/services"
	"ideahub/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type IdeaHandler struct {
	cascade *services.CascadeService
	logger  *zap.Logger
}

func NewIdeaHandler(cascade *services.CascadeService, logger *zap.Logger) *IdeaHandler {
	return &IdeaHandler{cascade: cascade, logger: logger}
}

func validCategory(category string) bool {
	for _, c := range models.IdeaCategories {
		if c == category {
			return true
		}
	}
	return false
}

func validStatus(status string) bool {
	switch models.IdeaStatus(status) {
	case models.IdeaStatusPending, models.IdeaStatusApproved,
		models.IdeaStatusRejected, models.IdeaStatusImplemented:
		return true
	}
	return false
}

// List returns a page of ideas. Filters: category, status, author_id, q
// (title search), mine. Sorts: newest (default), oldest, top, discussed.
func (h *IdeaHandler) List(c *gin.Context) {
	user := middleware.CurrentUser(c)

	page := utils.StringToInt(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit := utils.StringToInt(c.DefaultQuery("limit", "10"))
	if limit < 1 || limit > 50 {
		limit = 10
	}

	query := db.DB.Model(&models.Idea{}).Preload("Author")

	if c.Query("mine") == "true" {
		if user == nil {
			OK(c, gin.H{"items": []models.Idea{}, "total": 0, "page": page, "limit": limit})
			return
		}
		query = query.Where("author_id = ?", user.ID)
	} else if user == nil || !user.IsAdmin() {
		// Private ideas are visible to their author and admins only.
		if user == nil {
			query = query.Where("is_public = ?", true)
		} else {
			query = query.Where("is_public = ? OR author_id = ?", true, user.ID)
		}
	}

	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if authorID := utils.StringToUint(c.Query("author_id")); authorID > 0 {
		query = query.Where("author_id = ?", authorID)
	}
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		query = query.Where("title LIKE ?", "%"+q+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		Fail(c, services.Unavailable("could not count ideas", err))
		return
	}

	switch c.DefaultQuery("sort", "newest") {
	case "oldest":
		query = query.Order("created_at ASC")
	case "top":
		query = query.Order("score DESC, created_at DESC")
	case "discussed":
		query = query.Order("comment_count DESC, created_at DESC")
	default:
		query = query.Order("created_at DESC")
	}

	var ideas []models.Idea
	if err := query.Offset((page - 1) * limit).Limit(limit).Find(&ideas).Error; err != nil {
		Fail(c, services.Unavailable("could not list ideas", err))
		return
	}

	OK(c, gin.H{"items": ideas, "total": total, "page": page, "limit": limit})
}

func (h *IdeaHandler) Get(c *gin.Context) {
	idea, err := h.loadVisible(c)
	if err != nil {
		Fail(c, err)
		return
	}

	OK(c, gin.H{
		"idea":                 idea,
		"rendered_description": utils.RenderMarkdown(idea.Description),
	})
}

type ideaRequest struct {
	Title       string   `json:"title" binding:"required,max=200"`
	Description string   `json:"description" binding:"required"`
	Category    string   `json:"category" binding:"required"`
	Tags        []string `json:"tags"`
	IsPublic    *bool    `json:"is_public"`
}

func (h *IdeaHandler) Create(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var req ideaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "title, description and category are required")
		return
	}
	if !validCategory(req.Category) {
		BadRequest(c, "unknown category")
		return
	}

	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}

	idea := models.Idea{
		Pid:         utils.NewPid(),
		AuthorID:    user.ID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Tags:        strings.Join(req.Tags, ","),
		Status:      models.IdeaStatusPending,
		Priority:    "medium",
		IsPublic:    isPublic,
	}
	if err := db.DB.Create(&idea).Error; err != nil {
		Fail(c, services.Unavailable("could not create idea", err))
		return
	}
	idea.Author = *user

	h.logger.Info("idea created", zap.Uint("idea_id", idea.ID), zap.Uint("author_id", user.ID))
	Created(c, idea)
}

type ideaUpdateRequest struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Category    *string   `json:"category"`
	Tags        *[]string `json:"tags"`
	IsPublic    *bool     `json:"is_public"`
	Status      *string   `json:"status"`   // admin only
	Priority    *string   `json:"priority"` // admin only
}

func (h *IdeaHandler) Update(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var idea models.Idea
	if err := db.DB.First(&idea, utils.StringToUint(c.Param("id"))).Error; err != nil {
		Fail(c, services.NotFound("idea not found"))
		return
	}
	if idea.AuthorID != user.ID && !user.IsAdmin() {
		Fail(c, services.Unauthorized("only the idea's author or an admin can edit it"))
		return
	}

	var req ideaUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid idea payload")
		return
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		if *req.Title == "" || len(*req.Title) > 200 {
			BadRequest(c, "title must be 1-200 characters")
			return
		}
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		if *req.Description == "" {
			BadRequest(c, "description cannot be empty")
			return
		}
		updates["description"] = *req.Description
	}
	if req.Category != nil {
		if !validCategory(*req.Category) {
			BadRequest(c, "unknown category")
			return
		}
		updates["category"] = *req.Category
	}
	if req.Tags != nil {
		updates["tags"] = strings.Join(*req.Tags, ",")
	}
	if req.IsPublic != nil {
		updates["is_public"] = *req.IsPublic
	}
	if req.Status != nil {
		if !user.IsAdmin() {
			Fail(c, services.Unauthorized("only admins can change idea status"))
			return
		}
		if !validStatus(*req.Status) {
			BadRequest(c, "unknown status")
			return
		}
		updates["status"] = *req.Status
	}
	if req.Priority != nil {
		if !user.IsAdmin() {
			Fail(c, services.Unauthorized("only admins can change idea priority"))
			return
		}
		switch *req.Priority {
		case "low", "medium", "high":
		default:
			BadRequest(c, "priority must be low, medium or high")
			return
		}
		updates["priority"] = *req.Priority
	}

	if len(updates) > 0 {
		if err := db.DB.Model(&idea).Updates(updates).Error; err != nil {
			Fail(c, services.Unavailable("could not update idea", err))
			return
		}
	}
	OK(c, idea)
}

func (h *IdeaHandler) Delete(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if err := h.cascade.DeleteIdea(utils.StringToUint(c.Param("id")), user); err != nil {
		Fail(c, err)
		return
	}
	OK(c, gin.H{"deleted": true})
}

func (h *IdeaHandler) Categories(c *gin.Context) {
	OK(c, models.IdeaCategories)
}

// loadVisible fetches the idea and enforces visibility of private ideas.
func (h *IdeaHandler) loadVisible(c *gin.Context) (*models.Idea, error) {
	var idea models.Idea
	if err := db.DB.Preload("Author").First(&idea, utils.StringToUint(c.Param("id"))).Error; err != nil {
		return nil, services.NotFound("idea not found")
	}

	if !idea.IsPublic {
		user := middleware.CurrentUser(c)
		if user == nil || (idea.AuthorID != user.ID && !user.IsAdmin()) {
			return nil, services.NotFound("idea not found")
		}
	}
	return &idea, nil
}
