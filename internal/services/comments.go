package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/citypulse/incident-api/internal/apperr"
	"github.com/citypulse/incident-api/internal/models"
)

// CommentService exposes creation, listing, and deletion. Comments
// are immutable once created.
type CommentService interface {
	Create(ctx context.Context, reportID, userID int, body string) (*models.Comment, error)
	ListByReport(ctx context.Context, reportID int) ([]models.Comment, error)
	GetByID(ctx context.Context, id int) (*models.Comment, error)

	// Delete removes the comment and its upvote relations in one
	// transaction.
	Delete(ctx context.Context, id int) error
}

type commentService struct {
	db *gorm.DB
}

func NewCommentService(db *gorm.DB) CommentService {
	return &commentService{db: db}
}

func (s *commentService) Create(ctx context.Context, reportID, userID int, body string) (*models.Comment, error) {
	if strings.TrimSpace(body) == "" {
		return nil, apperr.InvalidArgument("comment text must not be blank")
	}
	if utf8.RuneCountInString(body) > models.MaxCommentLength {
		return nil, apperr.InvalidArgument("comment text must not exceed 280 characters")
	}

	comment := models.Comment{
		ReportID: reportID,
		UserID:   userID,
		Body:     body,
	}
	// Existence check and insert share one transaction so a concurrent
	// report deletion cannot slip between them and orphan the comment.
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var report models.Report
		if err := tx.First(&report, reportID).Error; err != nil {
			return err
		}
		return tx.Create(&comment).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("report not found")
		}
		return nil, apperr.Storage("failed to create comment", err)
	}

	if err := s.db.WithContext(ctx).Preload("User").First(&comment, comment.ID).Error; err != nil {
		return nil, apperr.Storage("failed to reload comment", err)
	}
	return &comment, nil
}

func (s *commentService) ListByReport(ctx context.Context, reportID int) ([]models.Comment, error) {
	var report models.Report
	if err := s.db.WithContext(ctx).First(&report, reportID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("report not found")
		}
		return nil, apperr.Storage("failed to fetch report", err)
	}

	var comments []models.Comment
	err := s.db.WithContext(ctx).Preload("User").
		Where("report_id = ?", reportID).
		Order("created_at DESC, id DESC").
		Find(&comments).Error
	if err != nil {
		return nil, apperr.Storage("failed to fetch comments", err)
	}
	return comments, nil
}

func (s *commentService) GetByID(ctx context.Context, id int) (*models.Comment, error) {
	var comment models.Comment
	if err := s.db.WithContext(ctx).Preload("User").First(&comment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("comment not found")
		}
		return nil, apperr.Storage("failed to fetch comment", err)
	}
	return &comment, nil
}

func (s *commentService) Delete(ctx context.Context, id int) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("comment_id = ?", id).Delete(&models.CommentUpvote{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Comment{}, id).Error
	})
	if err != nil {
		return apperr.Storage("failed to delete comment", err)
	}
	return nil
}
