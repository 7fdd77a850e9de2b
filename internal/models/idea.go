package models

import (
	"time"
)

type IdeaStatus string

const (
	IdeaStatusPending     IdeaStatus = "pending"
	IdeaStatusApproved    IdeaStatus = "approved"
	IdeaStatusRejected    IdeaStatus = "rejected"
	IdeaStatusImplemented IdeaStatus = "implemented"
)

// Categories an idea can be filed under. Validated on create and update.
var IdeaCategories = []string{
	"Technology",
	"Business",
	"Marketing",
	"Product",
	"Process Improvement",
	"Cost Reduction",
	"Innovation",
	"Sustainability",
	"Other",
}

type Idea struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Pid         string     `gorm:"uniqueIndex;size:12;not null" json:"pid"`
	AuthorID    uint       `gorm:"not null;index" json:"author_id"`
	Author      User       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	Title       string     `gorm:"size:200;not null" json:"title"`
	Description string     `gorm:"type:text;not null" json:"description"`
	Category    string     `gorm:"size:50;not null;index" json:"category"`
	Tags        string     `gorm:"size:500" json:"tags"` // comma separated
	Status      IdeaStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	Priority    string     `gorm:"size:10;default:'medium'" json:"priority"` // low, medium, high
	IsPublic    bool       `gorm:"default:true" json:"is_public"`

	// Denormalized tallies, maintained by the voting service only. Always
	// recomputed from the vote ledger, never incremented in place.
	Upvotes      uint `gorm:"default:0" json:"upvotes"`
	Downvotes    uint `gorm:"default:0" json:"downvotes"`
	Score        int  `gorm:"default:0;index" json:"score"`
	CommentCount uint `gorm:"default:0" json:"comment_count"`

	// Generative analysis, filled by the LLM service on demand.
	AISentiment        string     `gorm:"size:10" json:"ai_sentiment,omitempty"` // positive, neutral, negative
	AIFeasibilityScore *int       `json:"ai_feasibility_score,omitempty"`
	AIInnovationScore  *int       `json:"ai_innovation_score,omitempty"`
	AIImpactScore      *int       `json:"ai_impact_score,omitempty"`
	AIOverallScore     *int       `json:"ai_overall_score,omitempty"`
	AIInsights         string     `gorm:"type:text" json:"ai_insights,omitempty"`
	AISuggestions      string     `gorm:"type:text" json:"ai_suggestions,omitempty"`
	AIAnalyzedAt       *time.Time `json:"ai_analyzed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
