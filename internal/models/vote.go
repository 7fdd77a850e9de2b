package models

import (
	"time"
)

type TargetKind string

const (
	TargetIdea    TargetKind = "idea"
	TargetComment TargetKind = "comment"
)

type VoteType string

const (
	VoteUp   VoteType = "upvote"
	VoteDown VoteType = "downvote"
)

// Vote is the ledger of who voted on what. Ideas and comments share the same
// vote shape, distinguished by TargetKind.
type Vote struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	VoterID    uint       `gorm:"not null;index;uniqueIndex:idx_voter_target" json:"voter_id"`
	TargetKind TargetKind `gorm:"type:varchar(10);not null;uniqueIndex:idx_voter_target" json:"target_kind"`
	TargetID   uint       `gorm:"not null;index:idx_target;uniqueIndex:idx_voter_target" json:"target_id"`
	Type       VoteType   `gorm:"type:varchar(10);not null" json:"type"`
	VotedAt    time.Time  `json:"voted_at"`
}

// The composite unique index on (voter_id, target_kind, target_id) is the last
// line of defense against two concurrent casts creating duplicate ledger rows;
// the voting service converts the resulting duplicate-key error into an update.
