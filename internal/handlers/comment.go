package handlers

import (
	"ideahub/internal/db"
	"ideahub/internal/middleware"
	"ideahub/internal/models"
	"ideahub/internal/services"
	"ideahub/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CommentHandler struct {
	cascade *services.CascadeService
	mail    *services.MailService
	logger  *zap.Logger
}

func NewCommentHandler(cascade *services.CascadeService, mail *services.MailService, logger *zap.Logger) *CommentHandler {
	return &CommentHandler{cascade: cascade, mail: mail, logger: logger}
}

// ListForIdea returns every comment on an idea in creation order, as a flat
// list. Soft-deleted comments appear with their tombstone content so reply
// threads stay intact. Clients build the tree from parent_id.
func (h *CommentHandler) ListForIdea(c *gin.Context) {
	ideaID := utils.StringToUint(c.Param("id"))
	var idea models.Idea
	if err := db.DB.Select("id").First(&idea, ideaID).Error; err != nil {
		Fail(c, services.NotFound("idea not found"))
		return
	}

	var comments []models.Comment
	err := db.DB.Preload("Author").Where("idea_id = ?", ideaID).
		Order("created_at ASC").Find(&comments).Error
	if err != nil {
		Fail(c, services.Unavailable("could not list comments", err))
		return
	}
	OK(c, comments)
}

type commentRequest struct {
	Content  string `json:"content" binding:"required,max=2000"`
	ParentID *uint  `json:"parent_id"`
}

func (h *CommentHandler) Create(c *gin.Context) {
	user := middleware.CurrentUser(c)
	ideaID := utils.StringToUint(c.Param("id"))

	var idea models.Idea
	if err := db.DB.Preload("Author").First(&idea, ideaID).Error; err != nil {
		Fail(c, services.NotFound("idea not found"))
		return
	}

	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "content is required, up to 2000 characters")
		return
	}

	var parent *models.Comment
	if req.ParentID != nil {
		var p models.Comment
		if err := db.DB.Preload("Author").First(&p, *req.ParentID).Error; err != nil {
			Fail(c, services.NotFound("parent comment not found"))
			return
		}
		if p.IdeaID != ideaID {
			BadRequest(c, "parent comment belongs to a different idea")
			return
		}
		if p.IsDeleted {
			Fail(c, services.NotFound("parent comment has been deleted"))
			return
		}
		parent = &p
	}

	comment := models.Comment{
		Cid:      utils.NewPid(),
		IdeaID:   ideaID,
		AuthorID: user.ID,
		ParentID: req.ParentID,
		Content:  req.Content,
	}
	if err := db.DB.Create(&comment).Error; err != nil {
		Fail(c, services.Unavailable("could not create comment", err))
		return
	}
	comment.Author = *user

	if err := h.cascade.RecountComments(ideaID); err != nil {
		h.logger.Warn("comment count update failed", zap.Uint("idea_id", ideaID), zap.Error(err))
	}

	if parent != nil && parent.AuthorID != user.ID {
		h.mail.SendReplyNotification(parent.Author.Email, parent.Author.Username,
			user.Username, idea.Title, comment.Content, parent.Content)
	}

	Created(c, comment)
}

func (h *CommentHandler) Get(c *gin.Context) {
	var comment models.Comment
	if err := db.DB.Preload("Author").First(&comment, utils.StringToUint(c.Param("id"))).Error; err != nil {
		Fail(c, services.NotFound("comment not found"))
		return
	}
	OK(c, comment)
}

func (h *CommentHandler) Replies(c *gin.Context) {
	commentID := utils.StringToUint(c.Param("id"))
	var comment models.Comment
	if err := db.DB.Select("id").First(&comment, commentID).Error; err != nil {
		Fail(c, services.NotFound("comment not found"))
		return
	}

	var replies []models.Comment
	err := db.DB.Preload("Author").Where("parent_id = ?", commentID).
		Order("created_at ASC").Find(&replies).Error
	if err != nil {
		Fail(c, services.Unavailable("could not list replies", err))
		return
	}
	OK(c, replies)
}

type commentUpdateRequest struct {
	Content string `json:"content" binding:"required,max=2000"`
}

func (h *CommentHandler) Update(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var comment models.Comment
	if err := db.DB.First(&comment, utils.StringToUint(c.Param("id"))).Error; err != nil {
		Fail(c, services.NotFound("comment not found"))
		return
	}
	if comment.AuthorID != user.ID {
		Fail(c, services.Unauthorized("only the comment's author can edit it"))
		return
	}
	if comment.IsDeleted {
		Fail(c, services.Invalid("cannot edit a deleted comment"))
		return
	}

	var req commentUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "content is required, up to 2000 characters")
		return
	}

	err := db.DB.Model(&comment).Updates(map[string]interface{}{
		"content":   req.Content,
		"is_edited": true,
	}).Error
	if err != nil {
		Fail(c, services.Unavailable("could not update comment", err))
		return
	}
	OK(c, comment)
}

func (h *CommentHandler) Delete(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if err := h.cascade.SoftDeleteComment(utils.StringToUint(c.Param("id")), user); err != nil {
		Fail(c, err)
		return
	}
	OK(c, gin.H{"deleted": true})
}

func (h *CommentHandler) Restore(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if err := h.cascade.RestoreComment(utils.StringToUint(c.Param("id")), user); err != nil {
		Fail(c, err)
		return
	}
	OK(c, gin.H{"restored": true})
}

func (h *CommentHandler) HardDelete(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if err := h.cascade.HardDeleteComment(utils.StringToUint(c.Param("id")), user); err != nil {
		Fail(c, err)
		return
	}
	OK(c, gin.H{"deleted": true})
}
