package models

import "time"

// ReportUpvote records "user has upvoted report". The composite
// primary key enforces at most one upvote per user per report; the
// conflict-ignoring insert on it is what makes upvoting idempotent.
type ReportUpvote struct {
	ReportID  int       `gorm:"primaryKey;autoIncrement:false" json:"report_id"`
	UserID    int       `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// CommentUpvote is the comment analogue of ReportUpvote.
type CommentUpvote struct {
	CommentID int       `gorm:"primaryKey;autoIncrement:false" json:"comment_id"`
	UserID    int       `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
