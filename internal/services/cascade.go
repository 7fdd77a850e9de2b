package services

import (
	"errors"
	"time"

	"ideahub/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CascadeService owns deletions that span entities. The store has no
// cross-entity transactions, so idea deletion is best-effort ordered cleanup:
// comments first, then every vote referencing the idea or its comments, then
// the idea itself. Each step is idempotent, so an interrupted cascade can be
// re-issued safely.
type CascadeService struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewCascadeService(gdb *gorm.DB, logger *zap.Logger) *CascadeService {
	return &CascadeService{db: gdb, logger: logger}
}

// DeleteIdea removes an idea together with its comments and all votes on the
// idea or its comments. Deleting an idea that is already gone is a no-op.
func (s *CascadeService) DeleteIdea(ideaID uint, requester *models.User) error {
	var idea models.Idea
	if err := s.db.First(&idea, ideaID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Already deleted, possibly by a retry of this same call.
			return nil
		}
		return Unavailable("could not load idea", err)
	}

	if idea.AuthorID != requester.ID && !requester.IsAdmin() {
		return Unauthorized("only the idea's author or an admin can delete it")
	}

	var commentIDs []uint
	if err := s.db.Model(&models.Comment{}).Where("idea_id = ?", ideaID).
		Pluck("id", &commentIDs).Error; err != nil {
		return Unavailable("could not list idea comments", err)
	}

	if err := s.db.Where("idea_id = ?", ideaID).Delete(&models.Comment{}).Error; err != nil {
		return Unavailable("could not delete idea comments", err)
	}
	if err := s.purgeVotes(models.TargetComment, commentIDs); err != nil {
		return err
	}
	if err := s.purgeVotes(models.TargetIdea, []uint{ideaID}); err != nil {
		return err
	}
	if err := s.db.Delete(&models.Idea{}, ideaID).Error; err != nil {
		return Unavailable("could not delete idea", err)
	}

	s.logger.Info("idea cascade complete",
		zap.Uint("idea_id", ideaID),
		zap.Int("comments_removed", len(commentIDs)),
		zap.Uint("requester_id", requester.ID))
	return nil
}

// SoftDeleteComment tombstones a comment. Votes and tallies are untouched, so
// the comment keeps its historical score. Repeating the call is a no-op.
func (s *CascadeService) SoftDeleteComment(commentID uint, requester *models.User) error {
	comment, err := s.loadComment(commentID)
	if err != nil {
		return err
	}
	if comment.AuthorID != requester.ID && !requester.IsAdmin() {
		return Unauthorized("only the comment's author or an admin can delete it")
	}
	if comment.IsDeleted {
		return nil
	}

	now := time.Now()
	err = s.db.Model(comment).UpdateColumns(map[string]interface{}{
		"is_deleted": true,
		"deleted_at": now,
		"content":    models.CommentTombstone,
	}).Error
	if err != nil {
		return Unavailable("could not delete comment", err)
	}
	return s.RecountComments(comment.IdeaID)
}

// RestoreComment clears the soft-delete flag. Fails if the comment was never
// deleted. The tombstone content stays; only the flag and tally visibility
// come back.
func (s *CascadeService) RestoreComment(commentID uint, requester *models.User) error {
	comment, err := s.loadComment(commentID)
	if err != nil {
		return err
	}
	if comment.AuthorID != requester.ID && !requester.IsAdmin() {
		return Unauthorized("only the comment's author or an admin can restore it")
	}
	if !comment.IsDeleted {
		return Invalid("comment is not deleted")
	}

	err = s.db.Model(comment).UpdateColumns(map[string]interface{}{
		"is_deleted": false,
		"deleted_at": nil,
	}).Error
	if err != nil {
		return Unavailable("could not restore comment", err)
	}
	return s.RecountComments(comment.IdeaID)
}

// HardDeleteComment permanently removes a comment and purges its votes, the
// same vote-cleanup step the idea cascade uses. Replies to the comment keep
// their parent reference dangling; they render as orphaned top-level entries.
func (s *CascadeService) HardDeleteComment(commentID uint, requester *models.User) error {
	comment, err := s.loadComment(commentID)
	if err != nil {
		return err
	}
	if comment.AuthorID != requester.ID && !requester.IsAdmin() {
		return Unauthorized("only the comment's author or an admin can delete it")
	}

	if err := s.purgeVotes(models.TargetComment, []uint{commentID}); err != nil {
		return err
	}
	if err := s.db.Delete(&models.Comment{}, commentID).Error; err != nil {
		return Unavailable("could not delete comment", err)
	}
	return s.RecountComments(comment.IdeaID)
}

// RecountComments rewrites the idea's comment count from the comment table,
// counting only non-deleted comments. Same recompute-from-source rule as the
// vote tallies.
func (s *CascadeService) RecountComments(ideaID uint) error {
	var count int64
	if err := s.db.Model(&models.Comment{}).
		Where("idea_id = ? AND is_deleted = ?", ideaID, false).
		Count(&count).Error; err != nil {
		return Unavailable("could not count comments", err)
	}
	err := s.db.Model(&models.Idea{}).Where("id = ?", ideaID).
		UpdateColumn("comment_count", count).Error
	if err != nil {
		return Unavailable("could not update comment count", err)
	}
	return nil
}

// purgeVotes drops every ledger row pointing at the given targets. Deleting
// votes that are already gone affects zero rows, keeping the step idempotent.
func (s *CascadeService) purgeVotes(kind models.TargetKind, targetIDs []uint) error {
	if len(targetIDs) == 0 {
		return nil
	}
	err := s.db.Where("target_kind = ? AND target_id IN ?", kind, targetIDs).
		Delete(&models.Vote{}).Error
	if err != nil {
		return Unavailable("could not purge votes", err)
	}
	return nil
}

func (s *CascadeService) loadComment(commentID uint) (*models.Comment, error) {
	var comment models.Comment
	if err := s.db.First(&comment, commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFound("comment not found")
		}
		return nil, Unavailable("could not load comment", err)
	}
	return &comment, nil
}
