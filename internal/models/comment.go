package models

import "time"

// MaxCommentLength bounds comment text server-side.
const MaxCommentLength = 280

// Comment is immutable once created; only creation and deletion are
// exposed to callers.
type Comment struct {
	ID        int       `gorm:"primaryKey" json:"id"`
	ReportID  int       `gorm:"not null;index" json:"report_id"`
	UserID    int       `gorm:"not null;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user"`
	Body      string    `gorm:"not null" json:"body"`
	Upvotes   int       `gorm:"not null;default:0" json:"upvotes"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateCommentRequest struct {
	CommentText string `json:"commentText" binding:"required"`
}
