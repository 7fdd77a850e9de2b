package services

import (
	"errors"
	"os"
	"strconv"
	"time"

	"ideahub/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Tally is the denormalized vote count for a single target.
type Tally struct {
	Upvotes   uint `json:"upvotes"`
	Downvotes uint `json:"downvotes"`
	Score     int  `json:"score"`
}

type VoteOutcome string

const (
	VoteCreated   VoteOutcome = "created"   // first vote by this voter on this target
	VoteChanged   VoteOutcome = "changed"   // existing vote flipped type
	VoteUnchanged VoteOutcome = "unchanged" // idempotent repeat, nothing written
	VoteRemoved   VoteOutcome = "removed"   // vote deleted from the ledger
)

type VoteResult struct {
	Outcome VoteOutcome `json:"outcome"`
	Tally
}

type VoteStats struct {
	Tally
	ViewerVote *models.VoteType `json:"viewer_vote,omitempty"`
}

// VotingService keeps the vote ledger and the denormalized tallies on ideas
// and comments consistent. Every write path recounts the full ledger for the
// target instead of incrementing counters in place, so retries and races
// converge on the correct tally.
type VotingService struct {
	db       *gorm.DB
	logger   *zap.Logger
	recount  *RecountService
	attempts int
}

func NewVotingService(gdb *gorm.DB, logger *zap.Logger) *VotingService {
	attempts := 3
	if v := os.Getenv("VOTE_RETRY_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			attempts = n
		}
	}
	return &VotingService{db: gdb, logger: logger, attempts: attempts}
}

// SetRecounter wires the async recount worker used to repair tallies whose
// synchronous write failed. Optional; without it failures are only logged.
func (s *VotingService) SetRecounter(r *RecountService) {
	s.recount = r
}

// CastVote records or updates the voter's vote on a target and rewrites the
// target's tally from the ledger. Repeating the same vote is a no-op.
func (s *VotingService) CastVote(voterID, targetID uint, kind models.TargetKind, voteType models.VoteType) (*VoteResult, error) {
	if voteType != models.VoteUp && voteType != models.VoteDown {
		return nil, Invalid("vote type must be upvote or downvote")
	}
	if err := s.checkTarget(kind, targetID); err != nil {
		return nil, err
	}

	outcome, err := s.writeVote(voterID, targetID, kind, voteType)
	if err != nil {
		return nil, err
	}

	tally, err := s.settleTally(kind, targetID)
	if err != nil {
		return nil, err
	}
	return &VoteResult{Outcome: outcome, Tally: tally}, nil
}

// RemoveVote deletes the voter's vote if one exists. Removing an absent vote
// is not an error; the tally is rewritten either way so stale counts heal.
func (s *VotingService) RemoveVote(voterID, targetID uint, kind models.TargetKind) (*VoteResult, error) {
	if err := s.checkTarget(kind, targetID); err != nil {
		return nil, err
	}

	res := s.db.Where("voter_id = ? AND target_kind = ? AND target_id = ?", voterID, kind, targetID).
		Delete(&models.Vote{})
	if res.Error != nil {
		return nil, Unavailable("could not remove vote", res.Error)
	}
	outcome := VoteRemoved
	if res.RowsAffected == 0 {
		outcome = VoteUnchanged
	}

	tally, err := s.settleTally(kind, targetID)
	if err != nil {
		return nil, err
	}
	return &VoteResult{Outcome: outcome, Tally: tally}, nil
}

// Stats reads the tally straight off the target entity. Tallies are only
// recomputed on writes; reads must stay cheap.
func (s *VotingService) Stats(targetID uint, kind models.TargetKind, viewerID uint) (*VoteStats, error) {
	stats := &VoteStats{}
	switch kind {
	case models.TargetIdea:
		var idea models.Idea
		if err := s.db.First(&idea, targetID).Error; err != nil {
			return nil, s.targetError(kind, err)
		}
		stats.Tally = Tally{Upvotes: idea.Upvotes, Downvotes: idea.Downvotes, Score: idea.Score}
	case models.TargetComment:
		var comment models.Comment
		if err := s.db.First(&comment, targetID).Error; err != nil {
			return nil, s.targetError(kind, err)
		}
		stats.Tally = Tally{Upvotes: comment.Upvotes, Downvotes: comment.Downvotes, Score: comment.Score}
	default:
		return nil, Invalid("unknown vote target kind")
	}

	if viewerID > 0 {
		var vote models.Vote
		err := s.db.Where("voter_id = ? AND target_kind = ? AND target_id = ?", viewerID, kind, targetID).
			First(&vote).Error
		if err == nil {
			stats.ViewerVote = &vote.Type
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, Unavailable("could not load viewer vote", err)
		}
	}
	return stats, nil
}

// Recompute recounts the ledger for a target and rewrites its tally. Exposed
// for the repair endpoint and the recount worker; safe to run at any time.
func (s *VotingService) Recompute(kind models.TargetKind, targetID uint) (Tally, error) {
	return recomputeTally(s.db, kind, targetID)
}

// writeVote applies the ledger mutation for a cast: create, flip, or no-op.
// A duplicate-key error from a concurrent insert on the same (voter, target)
// pair is converted into an update instead of surfacing to the caller.
func (s *VotingService) writeVote(voterID, targetID uint, kind models.TargetKind, voteType models.VoteType) (VoteOutcome, error) {
	var existing models.Vote
	err := s.db.Where("voter_id = ? AND target_kind = ? AND target_id = ?", voterID, kind, targetID).
		First(&existing).Error

	switch {
	case err == nil:
		if existing.Type == voteType {
			return VoteUnchanged, nil
		}
		return s.flipVote(&existing, voteType)

	case errors.Is(err, gorm.ErrRecordNotFound):
		vote := models.Vote{
			VoterID:    voterID,
			TargetKind: kind,
			TargetID:   targetID,
			Type:       voteType,
			VotedAt:    time.Now(),
		}
		createErr := s.db.Create(&vote).Error
		if createErr == nil {
			return VoteCreated, nil
		}
		if !errors.Is(createErr, gorm.ErrDuplicatedKey) {
			return "", Unavailable("could not record vote", createErr)
		}
		// Lost the insert race; the other request's row is now in the ledger.
		s.logger.Info("vote insert lost race, retrying as update",
			zap.Uint("voter_id", voterID),
			zap.String("target_kind", string(kind)),
			zap.Uint("target_id", targetID))
		refetchErr := s.db.Where("voter_id = ? AND target_kind = ? AND target_id = ?", voterID, kind, targetID).
			First(&existing).Error
		if refetchErr != nil {
			return "", Conflict("vote conflicted with a concurrent request", refetchErr)
		}
		if existing.Type == voteType {
			return VoteUnchanged, nil
		}
		return s.flipVote(&existing, voteType)

	default:
		return "", Unavailable("could not load existing vote", err)
	}
}

func (s *VotingService) flipVote(vote *models.Vote, voteType models.VoteType) (VoteOutcome, error) {
	err := s.db.Model(vote).UpdateColumns(map[string]interface{}{
		"type":     voteType,
		"voted_at": time.Now(),
	}).Error
	if err != nil {
		return "", Unavailable("could not update vote", err)
	}
	return VoteChanged, nil
}

// settleTally recomputes and writes the target's tally after a ledger write.
// The ledger is authoritative: if the tally write keeps failing the ledger
// mutation stands, the stale tally is logged, and a repair is scheduled.
func (s *VotingService) settleTally(kind models.TargetKind, targetID uint) (Tally, error) {
	var tally Tally
	var err error
	for i := 0; i < s.attempts; i++ {
		tally, err = recomputeTally(s.db, kind, targetID)
		if err == nil {
			return tally, nil
		}
	}
	s.logger.Warn("tally write failed after ledger write, scheduling repair",
		zap.String("target_kind", string(kind)),
		zap.Uint("target_id", targetID),
		zap.Error(err))
	if s.recount != nil {
		s.recount.Schedule(kind, targetID)
	}
	return tally, Unavailable("vote recorded but tally update failed, safe to retry", err)
}

// checkTarget verifies the vote target exists and is votable. Soft-deleted
// comments keep their historical votes but accept no new ones.
func (s *VotingService) checkTarget(kind models.TargetKind, targetID uint) error {
	switch kind {
	case models.TargetIdea:
		var idea models.Idea
		if err := s.db.Select("id").First(&idea, targetID).Error; err != nil {
			return s.targetError(kind, err)
		}
	case models.TargetComment:
		var comment models.Comment
		if err := s.db.Select("id", "is_deleted").First(&comment, targetID).Error; err != nil {
			return s.targetError(kind, err)
		}
		if comment.IsDeleted {
			return NotFound("comment has been deleted")
		}
	default:
		return Invalid("unknown vote target kind")
	}
	return nil
}

func (s *VotingService) targetError(kind models.TargetKind, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NotFound(string(kind) + " not found")
	}
	return Unavailable("could not load "+string(kind), err)
}

// recomputeTally recounts every vote for the target and writes upvotes,
// downvotes and score onto it in one update. Counting from the ledger makes
// the operation idempotent: running it twice against the same ledger state
// always produces the same tally.
func recomputeTally(gdb *gorm.DB, kind models.TargetKind, targetID uint) (Tally, error) {
	var up, down int64
	if err := gdb.Model(&models.Vote{}).
		Where("target_kind = ? AND target_id = ? AND type = ?", kind, targetID, models.VoteUp).
		Count(&up).Error; err != nil {
		return Tally{}, err
	}
	if err := gdb.Model(&models.Vote{}).
		Where("target_kind = ? AND target_id = ? AND type = ?", kind, targetID, models.VoteDown).
		Count(&down).Error; err != nil {
		return Tally{}, err
	}

	tally := Tally{
		Upvotes:   uint(up),
		Downvotes: uint(down),
		Score:     int(up) - int(down),
	}

	columns := map[string]interface{}{
		"upvotes":   tally.Upvotes,
		"downvotes": tally.Downvotes,
		"score":     tally.Score,
	}
	var err error
	switch kind {
	case models.TargetIdea:
		err = gdb.Model(&models.Idea{}).Where("id = ?", targetID).UpdateColumns(columns).Error
	case models.TargetComment:
		err = gdb.Model(&models.Comment{}).Where("id = ?", targetID).UpdateColumns(columns).Error
	default:
		return Tally{}, Invalid("unknown vote target kind")
	}
	if err != nil {
		return Tally{}, err
	}
	return tally, nil
}
