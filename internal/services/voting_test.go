package services

import (
	"fmt"
	"testing"
	"time"

	"ideahub/internal/db"
	"ideahub/internal/models"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.Migrate(gdb))
	return gdb
}

func seedUser(t *testing.T, gdb *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "x",
		IsActive: true,
	}
	require.NoError(t, gdb.Create(user).Error)
	return user
}

func seedIdea(t *testing.T, gdb *gorm.DB, author *models.User) *models.Idea {
	t.Helper()
	idea := &models.Idea{
		Pid:         fmt.Sprintf("pid%d", author.ID),
		AuthorID:    author.ID,
		Title:       "test idea",
		Description: "something worth voting on",
		Category:    "Technology",
		Status:      models.IdeaStatusPending,
		IsPublic:    true,
	}
	require.NoError(t, gdb.Create(idea).Error)
	return idea
}

func seedComment(t *testing.T, gdb *gorm.DB, idea *models.Idea, author *models.User) *models.Comment {
	t.Helper()
	comment := &models.Comment{
		Cid:      fmt.Sprintf("cid%d%d", idea.ID, author.ID),
		IdeaID:   idea.ID,
		AuthorID: author.ID,
		Content:  "a comment",
	}
	require.NoError(t, gdb.Create(comment).Error)
	return comment
}

func newVoting(gdb *gorm.DB) *VotingService {
	return &VotingService{db: gdb, logger: zap.NewNop(), attempts: 3}
}

func reloadIdea(t *testing.T, gdb *gorm.DB, id uint) *models.Idea {
	t.Helper()
	var idea models.Idea
	require.NoError(t, gdb.First(&idea, id).Error)
	return &idea
}

// Two voters up, down, remove, flip: the stored tally must equal a fresh
// count of the ledger after every step.
func TestVoteScenario(t *testing.T) {
	gdb := newTestDB(t)
	svc := newVoting(gdb)
	alice := seedUser(t, gdb, "alice")
	bob := seedUser(t, gdb, "bob")
	idea := seedIdea(t, gdb, alice)

	// A upvotes
	res, err := svc.CastVote(alice.ID, idea.ID, models.TargetIdea, models.VoteUp)
	require.NoError(t, err)
	require.Equal(t, VoteCreated, res.Outcome)
	require.Equal(t, Tally{Upvotes: 1, Downvotes: 0, Score: 1}, res.Tally)

	// B downvotes
	res, err = svc.CastVote(bob.ID, idea.ID, models.TargetIdea, models.VoteDown)
	require.NoError(t, err)
	require.Equal(t, VoteCreated, res.Outcome)
	require.Equal(t, Tally{Upvotes: 1, Downvotes: 1, Score: 0}, res.Tally)

	// A removes
	res, err = svc.RemoveVote(alice.ID, idea.ID, models.TargetIdea)
	require.NoError(t, err)
	require.Equal(t, VoteRemoved, res.Outcome)
	require.Equal(t, Tally{Upvotes: 0, Downvotes: 1, Score: -1}, res.Tally)

	// B changes to upvote
	res, err = svc.CastVote(bob.ID, idea.ID, models.TargetIdea, models.VoteUp)
	require.NoError(t, err)
	require.Equal(t, VoteChanged, res.Outcome)
	require.Equal(t, Tally{Upvotes: 1, Downvotes: 0, Score: 1}, res.Tally)

	// Stored tally matches the ledger
	stored := reloadIdea(t, gdb, idea.ID)
	require.Equal(t, uint(1), stored.Upvotes)
	require.Equal(t, uint(0), stored.Downvotes)
	require.Equal(t, 1, stored.Score)
}

func TestCastVoteIdempotent(t *testing.T) {
	gdb := newTestDB(t)
	svc := newVoting(gdb)
	alice := seedUser(t, gdb, "alice")
	idea := seedIdea(t, gdb, alice)

	first, err := svc.CastVote(alice.ID, idea.ID, models.TargetIdea, models.VoteUp)
	require.NoError(t, err)
	require.Equal(t, VoteCreated, first.Outcome)

	second, err := svc.CastVote(alice.ID, idea.ID, models.TargetIdea, models.VoteUp)
	require.NoError(t, err)
	require.Equal(t, VoteUnchanged, second.Outcome)
	require.Equal(t, first.Tally, second.Tally)
}

// A voter can never hold more than one ledger row per target, whatever
// sequence of casts they issue.
func TestVoteUniqueness(t *testing.T) {
	gdb := newTestDB(t)
	svc := newVoting(gdb)
	alice := seedUser(t, gdb, "alice")
	idea := seedIdea(t, gdb, alice)

	_, err := svc.CastVote(alice.ID, idea.ID, models.TargetIdea, models.VoteUp)
	require.NoError(t, err)
	_, err = svc.CastVote(alice.ID, idea.ID, models.TargetIdea, models.VoteDown)
	require.NoError(t, err)
	_, err = svc.CastVote(alice.ID, idea.ID, models.TargetIdea, models.VoteDown)
	require.NoError(t, err)

	var count int64
	require.NoError(t, gdb.Model(&models.Vote{}).
		Where("voter_id = ? AND target_kind = ? AND target_id = ?", alice.ID, models.TargetIdea, idea.ID).
		Count(&count).Error)
	require.Equal(t, int64(1), count)

	var vote models.Vote
	require.NoError(t, gdb.Where("voter_id = ?", alice.ID).First(&vote).Error)
	require.Equal(t, models.VoteDown, vote.Type)
}

func TestRemoveAbsentVote(t *testing.T) {
	gdb := newTestDB(t)
	svc := newVoting(gdb)
	alice := seedUser(t, gdb, "alice")
	idea := seedIdea(t, gdb, alice)

	res, err := svc.RemoveVote(alice.ID, idea.ID, models.TargetIdea)
	require.NoError(t, err)
	require.Equal(t, VoteUnchanged, res.Outcome)
	require.Equal(t, Tally{}, res.Tally)
}

// Removal recounts even when nothing was deleted, so a corrupted stored
// tally heals on the next write-path call.
func TestRemoveVoteHealsStaleTally(t *testing.T) {
	gdb := newTestDB(t)
	svc := newVoting(gdb)
	alice := seedUser(t, gdb, "alice")
	idea := seedIdea(t, gdb, alice)

	require.NoError(t, gdb.Model(&models.Idea{}).Where("id = ?", idea.ID).
		UpdateColumns(map[string]interface{}{"upvotes": 40, "score": 40}).Error)

	res, err := svc.RemoveVote(alice.ID, idea.ID, models.TargetIdea)
	require.NoError(t, err)
	require.Equal(t, Tally{}, res.Tally)

	stored := reloadIdea(t, gdb, idea.ID)
	require.Equal(t, uint(0), stored.Upvotes)
	require.Equal(t, 0, stored.Score)
}

func TestVoteOnComment(t *testing.T) {
	gdb := newTestDB(t)
	svc := newVoting(gdb)
	alice := seedUser(t, gdb, "alice")
	bob := seedUser(t, gdb, "bob")
	idea := seedIdea(t, gdb, alice)
	comment := seedComment(t, gdb, idea, alice)

	res, err := svc.CastVote(bob.ID, comment.ID, models.TargetComment, models.VoteUp)
	require.NoError(t, err)
	require.Equal(t, Tally{Upvotes: 1, Downvotes: 0, Score: 1}, res.Tally)

	// The idea's own tally is untouched
	stored := reloadIdea(t, gdb, idea.ID)
	require.Equal(t, uint(0), stored.Upvotes)
}

func TestVoteOnDeletedComment(t *testing.T) {
	gdb := newTestDB(t)
	svc := newVoting(gdb)
	alice := seedUser(t, gdb, "alice")
	idea := seedIdea(t, gdb, alice)
	comment := seedComment(t, gdb, idea, alice)

	require.NoError(t, gdb.Model(comment).UpdateColumn("is_deleted", true).Error)

	_, err := svc.CastVote(alice.ID, comment.ID, models.TargetComment, models.VoteUp)
	require.Error(t, err)
	require.Equal(t, KindNotFound, KindOf(err))
}

func TestVoteOnMissingTarget(t *testing.T) {
	gdb := newTestDB(t)
	svc := newVoting(gdb)
	alice := seedUser(t, gdb, "alice")

	_, err := svc.CastVote(alice.ID, 9999, models.TargetIdea, models.VoteUp)
	require.Error(t, err)
	require.Equal(t, KindNotFound, KindOf(err))

	_, err = svc.CastVote(alice.ID, 1, models.TargetIdea, "sideways")
	require.Error(t, err)
	require.Equal(t, KindInvalid, KindOf(err))
}

// Stats reads the stored tally as-is; only write paths recompute.
func TestStatsReadsStoredTally(t *testing.T) {
	gdb := newTestDB(t)
	svc := newVoting(gdb)
	alice := seedUser(t, gdb, "alice")
	idea := seedIdea(t, gdb, alice)

	require.NoError(t, gdb.Model(&models.Idea{}).Where("id = ?", idea.ID).
		UpdateColumns(map[string]interface{}{"upvotes": 7, "downvotes": 2, "score": 5}).Error)

	stats, err := svc.Stats(idea.ID, models.TargetIdea, 0)
	require.NoError(t, err)
	require.Equal(t, Tally{Upvotes: 7, Downvotes: 2, Score: 5}, stats.Tally)
	require.Nil(t, stats.ViewerVote)
}

func TestStatsViewerVote(t *testing.T) {
	gdb := newTestDB(t)
	svc := newVoting(gdb)
	alice := seedUser(t, gdb, "alice")
	bob := seedUser(t, gdb, "bob")
	idea := seedIdea(t, gdb, alice)

	_, err := svc.CastVote(alice.ID, idea.ID, models.TargetIdea, models.VoteDown)
	require.NoError(t, err)

	stats, err := svc.Stats(idea.ID, models.TargetIdea, alice.ID)
	require.NoError(t, err)
	require.NotNil(t, stats.ViewerVote)
	require.Equal(t, models.VoteDown, *stats.ViewerVote)

	stats, err = svc.Stats(idea.ID, models.TargetIdea, bob.ID)
	require.NoError(t, err)
	require.Nil(t, stats.ViewerVote)
}

func TestRecomputeIdempotent(t *testing.T) {
	gdb := newTestDB(t)
	svc := newVoting(gdb)
	alice := seedUser(t, gdb, "alice")
	bob := seedUser(t, gdb, "bob")
	idea := seedIdea(t, gdb, alice)

	_, err := svc.CastVote(alice.ID, idea.ID, models.TargetIdea, models.VoteUp)
	require.NoError(t, err)
	_, err = svc.CastVote(bob.ID, idea.ID, models.TargetIdea, models.VoteUp)
	require.NoError(t, err)

	first, err := svc.Recompute(models.TargetIdea, idea.ID)
	require.NoError(t, err)
	second, err := svc.Recompute(models.TargetIdea, idea.ID)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, Tally{Upvotes: 2, Downvotes: 0, Score: 2}, second)
}

// A concurrent cast can insert the ledger row between this request's lookup
// and its insert. The duplicate-key error is recovered as an update and never
// surfaces as a conflict.
func TestCastVoteInsertRace(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		// The rival row is inserted from inside a create callback; without a
		// wrapping transaction it commits before this request's insert runs.
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.Migrate(gdb))

	svc := newVoting(gdb)
	alice := seedUser(t, gdb, "alice")
	idea := seedIdea(t, gdb, alice)

	raced := false
	err = gdb.Callback().Create().Before("gorm:create").Register("rival_insert", func(tx *gorm.DB) {
		if raced {
			return
		}
		if _, ok := tx.Statement.Dest.(*models.Vote); !ok {
			return
		}
		raced = true
		rival := models.Vote{
			VoterID:    alice.ID,
			TargetKind: models.TargetIdea,
			TargetID:   idea.ID,
			Type:       models.VoteDown,
			VotedAt:    time.Now(),
		}
		require.NoError(t, tx.Session(&gorm.Session{NewDB: true}).Create(&rival).Error)
	})
	require.NoError(t, err)

	res, err := svc.CastVote(alice.ID, idea.ID, models.TargetIdea, models.VoteUp)
	require.NoError(t, err)
	require.True(t, raced)
	require.Equal(t, VoteChanged, res.Outcome)
	require.Equal(t, Tally{Upvotes: 1, Downvotes: 0, Score: 1}, res.Tally)

	// Still exactly one ledger row for the pair
	var count int64
	require.NoError(t, gdb.Model(&models.Vote{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

// If the tally write keeps failing after the ledger write, the vote stands,
// the call surfaces unavailable, and the target is queued for async repair.
func TestTallyWriteFailureSchedulesRepair(t *testing.T) {
	gdb := newTestDB(t)
	svc := newVoting(gdb)
	alice := seedUser(t, gdb, "alice")
	idea := seedIdea(t, gdb, alice)

	recount := &RecountService{
		db:      gdb,
		logger:  zap.NewNop(),
		queue:   make(chan recountKey, 10),
		pending: make(map[recountKey]bool),
	}
	svc.SetRecounter(recount)

	// Block tally updates while leaving reads and the vote insert untouched.
	require.NoError(t, gdb.Exec(`CREATE TRIGGER block_tally BEFORE UPDATE ON ideas
		BEGIN SELECT RAISE(ABORT, 'tally locked'); END`).Error)

	_, err := svc.CastVote(alice.ID, idea.ID, models.TargetIdea, models.VoteUp)
	require.Error(t, err)
	require.Equal(t, KindUnavailable, KindOf(err))

	// The ledger write stood
	var votes int64
	require.NoError(t, gdb.Model(&models.Vote{}).Count(&votes).Error)
	require.Equal(t, int64(1), votes)

	// The target was queued for repair
	require.Len(t, recount.queue, 1)
	key := <-recount.queue
	require.Equal(t, recountKey{Kind: models.TargetIdea, ID: idea.ID}, key)

	// Once the tally can be written again, the repair converges
	require.NoError(t, gdb.Exec("DROP TRIGGER block_tally").Error)
	tally, err := recount.RepairNow(key.Kind, key.ID)
	require.NoError(t, err)
	require.Equal(t, Tally{Upvotes: 1, Downvotes: 0, Score: 1}, tally)
}

func TestRepairNowFixesTally(t *testing.T) {
	gdb := newTestDB(t)
	svc := newVoting(gdb)
	alice := seedUser(t, gdb, "alice")
	idea := seedIdea(t, gdb, alice)

	_, err := svc.CastVote(alice.ID, idea.ID, models.TargetIdea, models.VoteUp)
	require.NoError(t, err)
	require.NoError(t, gdb.Model(&models.Idea{}).Where("id = ?", idea.ID).
		UpdateColumn("score", -100).Error)

	recount := &RecountService{db: gdb, logger: zap.NewNop(), pending: map[recountKey]bool{}}
	tally, err := recount.RepairNow(models.TargetIdea, idea.ID)
	require.NoError(t, err)
	require.Equal(t, Tally{Upvotes: 1, Downvotes: 0, Score: 1}, tally)

	stored := reloadIdea(t, gdb, idea.ID)
	require.Equal(t, 1, stored.Score)
}
