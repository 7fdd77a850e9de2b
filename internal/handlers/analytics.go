package handlers

import (
	"fmt"
	"sort"
	"time"

	"ideahub/internal/db"
	"ideahub/internal/models"
	"ideahub/internal/services"
	"ideahub/internal/utils"

	"github.com/gin-gonic/gin"
)

// AnalyticsHandler serves aggregate views over the idea pool. These queries
// scan whole tables, so results are cached briefly; the per-entity tallies
// themselves are never cached.
type AnalyticsHandler struct {
	cache *utils.Cache
}

func NewAnalyticsHandler(cache *utils.Cache) *AnalyticsHandler {
	return &AnalyticsHandler{cache: cache}
}

func (h *AnalyticsHandler) Popular(c *gin.Context) {
	limit := utils.StringToInt(c.DefaultQuery("limit", "10"))
	if limit < 1 || limit > 50 {
		limit = 10
	}

	key := fmt.Sprintf("analytics:popular:%d", limit)
	if cached := h.cache.Get(key); cached != nil {
		OK(c, cached)
		return
	}

	var ideas []models.Idea
	err := db.DB.Preload("Author").Where("is_public = ?", true).
		Order("score DESC, created_at DESC").Limit(limit).Find(&ideas).Error
	if err != nil {
		Fail(c, services.Unavailable("could not load popular ideas", err))
		return
	}

	h.cache.Set(key, ideas, 5*time.Minute)
	OK(c, ideas)
}

type groupCount struct {
	Key   string `json:"key" gorm:"column:key"`
	Count int64  `json:"count"`
}

func (h *AnalyticsHandler) Statistics(c *gin.Context) {
	const key = "analytics:statistics"
	if cached := h.cache.Get(key); cached != nil {
		OK(c, cached)
		return
	}

	var ideaCount, commentCount, voteCount, userCount int64
	if err := db.DB.Model(&models.Idea{}).Count(&ideaCount).Error; err != nil {
		Fail(c, services.Unavailable("could not compute statistics", err))
		return
	}
	db.DB.Model(&models.Comment{}).Where("is_deleted = ?", false).Count(&commentCount)
	db.DB.Model(&models.Vote{}).Count(&voteCount)
	db.DB.Model(&models.User{}).Where("is_active = ?", true).Count(&userCount)

	var byCategory, byStatus []groupCount
	db.DB.Model(&models.Idea{}).Select("category as key, count(*) as count").
		Group("category").Scan(&byCategory)
	db.DB.Model(&models.Idea{}).Select("status as key, count(*) as count").
		Group("status").Scan(&byStatus)

	stats := gin.H{
		"ideas":       ideaCount,
		"comments":    commentCount,
		"votes":       voteCount,
		"users":       userCount,
		"by_category": byCategory,
		"by_status":   byStatus,
	}
	h.cache.Set(key, stats, 5*time.Minute)
	OK(c, stats)
}

type trendingIdea struct {
	models.Idea
	TrendScore float64 `json:"trend_score"`
}

// Trending ranks recent ideas by engagement decayed over age, so a fresh idea
// with active discussion outranks an old one with a higher raw score.
func (h *AnalyticsHandler) Trending(c *gin.Context) {
	limit := utils.StringToInt(c.DefaultQuery("limit", "10"))
	if limit < 1 || limit > 50 {
		limit = 10
	}

	key := fmt.Sprintf("analytics:trending:%d", limit)
	if cached := h.cache.Get(key); cached != nil {
		OK(c, cached)
		return
	}

	cutoff := time.Now().AddDate(0, 0, -30)
	var ideas []models.Idea
	err := db.DB.Preload("Author").
		Where("is_public = ? AND created_at > ?", true, cutoff).
		Find(&ideas).Error
	if err != nil {
		Fail(c, services.Unavailable("could not load trending ideas", err))
		return
	}

	ranked := make([]trendingIdea, 0, len(ideas))
	for _, idea := range ideas {
		score := utils.TrendScore(idea.CreatedAt,
			int(idea.Upvotes), int(idea.Downvotes), int(idea.CommentCount))
		ranked = append(ranked, trendingIdea{Idea: idea, TrendScore: score})
	}
	sort.Slice(ranked, func(i, j int) bool {
		return ranked[i].TrendScore > ranked[j].TrendScore
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	h.cache.Set(key, ranked, 2*time.Minute)
	OK(c, ranked)
}
