package models

import (
	"time"
)

// CommentTombstone replaces the content of a soft-deleted comment.
const CommentTombstone = "[This comment has been deleted]"

type Comment struct {
	ID       uint     `gorm:"primaryKey" json:"id"`
	Cid      string   `gorm:"uniqueIndex;size:12;not null" json:"cid"`
	IdeaID   uint     `gorm:"not null;index" json:"idea_id"`
	Idea     Idea     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	AuthorID uint     `gorm:"not null;index" json:"author_id"`
	Author   User     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	ParentID *uint    `gorm:"index" json:"parent_id"` // nil for top-level comments
	Parent   *Comment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Content  string   `gorm:"type:text;not null" json:"content"`
	IsEdited bool     `gorm:"default:false" json:"is_edited"`

	// Soft-delete state. A deleted comment keeps its vote tallies so a restore
	// brings back the identical score.
	IsDeleted bool       `gorm:"default:false;index" json:"is_deleted"`
	DeletedAt *time.Time `json:"deleted_at"`

	Upvotes   uint `gorm:"default:0" json:"upvotes"`
	Downvotes uint `gorm:"default:0" json:"downvotes"`
	Score     int  `gorm:"default:0" json:"score"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
