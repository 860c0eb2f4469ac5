package services

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/citypulse/incident-api/internal/apperr"
	"github.com/citypulse/incident-api/internal/models"
)

// UpvoteResult is the state of an (entity, user) pair after an upvote
// transition.
type UpvoteResult struct {
	ID          int  `json:"id"`
	Upvotes     int  `json:"upvotes"`
	UpvotedByMe bool `json:"upvoted_by_me"`
}

// UpvoteService implements the idempotent upvote state machine for
// reports and comments. Both transitions are no-ops when the pair is
// already in the target state.
type UpvoteService interface {
	UpvoteReport(ctx context.Context, reportID, userID int) (*UpvoteResult, error)
	RemoveReportUpvote(ctx context.Context, reportID, userID int) (*UpvoteResult, error)
	UpvoteComment(ctx context.Context, commentID, userID int) (*UpvoteResult, error)
	RemoveCommentUpvote(ctx context.Context, commentID, userID int) (*UpvoteResult, error)

	// ReportUpvoteState returns, per report id, the relation-set
	// cardinality and whether callerID is a member. callerID 0 means
	// anonymous.
	ReportUpvoteState(ctx context.Context, reportIDs []int, callerID int) (map[int]int, map[int]bool, error)
	CommentUpvoteState(ctx context.Context, commentIDs []int, callerID int) (map[int]int, map[int]bool, error)
}

type upvoteService struct {
	db *gorm.DB
}

func NewUpvoteService(db *gorm.DB) UpvoteService {
	return &upvoteService{db: db}
}

func (s *upvoteService) UpvoteReport(ctx context.Context, reportID, userID int) (*UpvoteResult, error) {
	var report models.Report
	if err := s.db.WithContext(ctx).First(&report, reportID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("report not found")
		}
		return nil, apperr.Storage("failed to fetch report", err)
	}
	if report.UserID == userID {
		return nil, apperr.InvalidOperation("self-upvote not allowed")
	}

	var upvotes int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Conflict-ignoring insert on the composite key is the
		// idempotency boundary: concurrent duplicates collapse to one
		// row and the counter moves only when a row was inserted.
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.ReportUpvote{ReportID: reportID, UserID: userID})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 1 {
			if err := tx.Model(&models.Report{}).Where("id = ?", reportID).
				UpdateColumn("upvotes", gorm.Expr("upvotes + 1")).Error; err != nil {
				return err
			}
		}
		return tx.Model(&models.Report{}).Select("upvotes").Where("id = ?", reportID).Scan(&upvotes).Error
	})
	if err != nil {
		return nil, apperr.Storage("failed to record upvote", err)
	}
	return &UpvoteResult{ID: reportID, Upvotes: upvotes, UpvotedByMe: true}, nil
}

func (s *upvoteService) RemoveReportUpvote(ctx context.Context, reportID, userID int) (*UpvoteResult, error) {
	var report models.Report
	if err := s.db.WithContext(ctx).First(&report, reportID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("report not found")
		}
		return nil, apperr.Storage("failed to fetch report", err)
	}

	var upvotes int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("report_id = ? AND user_id = ?", reportID, userID).
			Delete(&models.ReportUpvote{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 1 {
			// Clamp at zero: the counter is derived state and must
			// never go negative even if it has drifted.
			if err := tx.Model(&models.Report{}).Where("id = ?", reportID).
				UpdateColumn("upvotes", gorm.Expr("CASE WHEN upvotes > 0 THEN upvotes - 1 ELSE 0 END")).Error; err != nil {
				return err
			}
		}
		return tx.Model(&models.Report{}).Select("upvotes").Where("id = ?", reportID).Scan(&upvotes).Error
	})
	if err != nil {
		return nil, apperr.Storage("failed to remove upvote", err)
	}
	return &UpvoteResult{ID: reportID, Upvotes: upvotes, UpvotedByMe: false}, nil
}

func (s *upvoteService) UpvoteComment(ctx context.Context, commentID, userID int) (*UpvoteResult, error) {
	var comment models.Comment
	if err := s.db.WithContext(ctx).First(&comment, commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("comment not found")
		}
		return nil, apperr.Storage("failed to fetch comment", err)
	}
	if comment.UserID == userID {
		return nil, apperr.InvalidOperation("self-upvote not allowed")
	}

	var upvotes int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.CommentUpvote{CommentID: commentID, UserID: userID})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 1 {
			if err := tx.Model(&models.Comment{}).Where("id = ?", commentID).
				UpdateColumn("upvotes", gorm.Expr("upvotes + 1")).Error; err != nil {
				return err
			}
		}
		return tx.Model(&models.Comment{}).Select("upvotes").Where("id = ?", commentID).Scan(&upvotes).Error
	})
	if err != nil {
		return nil, apperr.Storage("failed to record upvote", err)
	}
	return &UpvoteResult{ID: commentID, Upvotes: upvotes, UpvotedByMe: true}, nil
}

func (s *upvoteService) RemoveCommentUpvote(ctx context.Context, commentID, userID int) (*UpvoteResult, error) {
	var comment models.Comment
	if err := s.db.WithContext(ctx).First(&comment, commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("comment not found")
		}
		return nil, apperr.Storage("failed to fetch comment", err)
	}

	var upvotes int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("comment_id = ? AND user_id = ?", commentID, userID).
			Delete(&models.CommentUpvote{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 1 {
			if err := tx.Model(&models.Comment{}).Where("id = ?", commentID).
				UpdateColumn("upvotes", gorm.Expr("CASE WHEN upvotes > 0 THEN upvotes - 1 ELSE 0 END")).Error; err != nil {
				return err
			}
		}
		return tx.Model(&models.Comment{}).Select("upvotes").Where("id = ?", commentID).Scan(&upvotes).Error
	})
	if err != nil {
		return nil, apperr.Storage("failed to remove upvote", err)
	}
	return &UpvoteResult{ID: commentID, Upvotes: upvotes, UpvotedByMe: false}, nil
}

func (s *upvoteService) ReportUpvoteState(ctx context.Context, reportIDs []int, callerID int) (map[int]int, map[int]bool, error) {
	counts := make(map[int]int, len(reportIDs))
	mine := make(map[int]bool)
	if len(reportIDs) == 0 {
		return counts, mine, nil
	}

	var rows []models.ReportUpvote
	if err := s.db.WithContext(ctx).Where("report_id IN ?", reportIDs).Find(&rows).Error; err != nil {
		return nil, nil, apperr.Storage("failed to load upvotes", err)
	}
	for _, row := range rows {
		counts[row.ReportID]++
		if callerID != 0 && row.UserID == callerID {
			mine[row.ReportID] = true
		}
	}
	return counts, mine, nil
}

func (s *upvoteService) CommentUpvoteState(ctx context.Context, commentIDs []int, callerID int) (map[int]int, map[int]bool, error) {
	counts := make(map[int]int, len(commentIDs))
	mine := make(map[int]bool)
	if len(commentIDs) == 0 {
		return counts, mine, nil
	}

	var rows []models.CommentUpvote
	if err := s.db.WithContext(ctx).Where("comment_id IN ?", commentIDs).Find(&rows).Error; err != nil {
		return nil, nil, apperr.Storage("failed to load upvotes", err)
	}
	for _, row := range rows {
		counts[row.CommentID]++
		if callerID != 0 && row.UserID == callerID {
			mine[row.CommentID] = true
		}
	}
	return counts, mine, nil
}
