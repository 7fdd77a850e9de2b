package handlers

import (
	"ideahub/internal/db"
	"ideahub/internal/models"
	"ideahub/internal/services"
	"ideahub/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AdminHandler struct {
	recount *services.RecountService
	logger  *zap.Logger
}

func NewAdminHandler(recount *services.RecountService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{recount: recount, logger: logger}
}

// Repair recounts a single target's tally from the vote ledger and returns
// the fixed values. Safe to call on healthy targets.
func (h *AdminHandler) Repair(c *gin.Context) {
	kind := models.TargetKind(c.Param("kind"))
	if kind != models.TargetIdea && kind != models.TargetComment {
		BadRequest(c, "kind must be idea or comment")
		return
	}
	targetID := utils.StringToUint(c.Param("id"))
	if targetID == 0 {
		BadRequest(c, "invalid target id")
		return
	}

	tally, err := h.recount.RepairNow(kind, targetID)
	if err != nil {
		Fail(c, err)
		return
	}

	h.logger.Info("manual tally repair",
		zap.String("target_kind", string(kind)),
		zap.Uint("target_id", targetID))
	OK(c, tally)
}

// Statistics is the uncached admin view, including rows hidden from the
// public analytics: private ideas, deleted comments, inactive users.
func (h *AdminHandler) Statistics(c *gin.Context) {
	var ideas, privateIdeas, comments, deletedComments, votes, users, inactiveUsers int64
	if err := db.DB.Model(&models.Idea{}).Count(&ideas).Error; err != nil {
		Fail(c, services.Unavailable("could not compute statistics", err))
		return
	}
	db.DB.Model(&models.Idea{}).Where("is_public = ?", false).Count(&privateIdeas)
	db.DB.Model(&models.Comment{}).Count(&comments)
	db.DB.Model(&models.Comment{}).Where("is_deleted = ?", true).Count(&deletedComments)
	db.DB.Model(&models.Vote{}).Count(&votes)
	db.DB.Model(&models.User{}).Count(&users)
	db.DB.Model(&models.User{}).Where("is_active = ?", false).Count(&inactiveUsers)

	OK(c, gin.H{
		"ideas":            ideas,
		"private_ideas":    privateIdeas,
		"comments":         comments,
		"deleted_comments": deletedComments,
		"votes":            votes,
		"users":            users,
		"inactive_users":   inactiveUsers,
	})
}
