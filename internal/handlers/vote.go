package handlers

import (
	"ideahub/internal/middleware"
	"ideahub/internal/models"
	"ideahub/internal/services"
	"ideahub/internal/utils"

	"github.com/gin-gonic/gin"
)

type VoteHandler struct {
	voting *services.VotingService
}

func NewVoteHandler(voting *services.VotingService) *VoteHandler {
	return &VoteHandler{voting: voting}
}

type voteRequest struct {
	Type models.VoteType `json:"type" binding:"required"`
}

func (h *VoteHandler) CastIdeaVote(c *gin.Context) {
	h.cast(c, models.TargetIdea)
}

func (h *VoteHandler) CastCommentVote(c *gin.Context) {
	h.cast(c, models.TargetComment)
}

func (h *VoteHandler) RemoveIdeaVote(c *gin.Context) {
	h.remove(c, models.TargetIdea)
}

func (h *VoteHandler) RemoveCommentVote(c *gin.Context) {
	h.remove(c, models.TargetComment)
}

func (h *VoteHandler) IdeaStats(c *gin.Context) {
	h.stats(c, models.TargetIdea)
}

func (h *VoteHandler) CommentStats(c *gin.Context) {
	h.stats(c, models.TargetComment)
}

func (h *VoteHandler) cast(c *gin.Context, kind models.TargetKind) {
	user := middleware.CurrentUser(c)

	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "vote type is required")
		return
	}

	result, err := h.voting.CastVote(user.ID, utils.StringToUint(c.Param("id")), kind, req.Type)
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, result)
}

func (h *VoteHandler) remove(c *gin.Context, kind models.TargetKind) {
	user := middleware.CurrentUser(c)

	result, err := h.voting.RemoveVote(user.ID, utils.StringToUint(c.Param("id")), kind)
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, result)
}

func (h *VoteHandler) stats(c *gin.Context, kind models.TargetKind) {
	var viewerID uint
	if user := middleware.CurrentUser(c); user != nil {
		viewerID = user.ID
	}

	stats, err := h.voting.Stats(utils.StringToUint(c.Param("id")), kind, viewerID)
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, stats)
}
