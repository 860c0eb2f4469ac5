package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/citypulse/incident-api/internal/apperr"
	"github.com/citypulse/incident-api/internal/models"
)

// UserService stores identities. The password hash is opaque here;
// hashing and comparison happen at the handler boundary.
type UserService interface {
	Register(ctx context.Context, username, email, passwordHash string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id int) (*models.User, error)
	ReportCount(ctx context.Context, id int) (int64, error)

	// Delete removes the account and cascades to owned reports,
	// comments, and all upvote relations the user participates in.
	Delete(ctx context.Context, id int) error
}

type userService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) UserService {
	return &userService{db: db}
}

func (s *userService) Register(ctx context.Context, username, email, passwordHash string) (*models.User, error) {
	// Checked before insert so duplicates produce a clean Conflict
	// instead of a raw constraint violation. The unique indexes still
	// back this up.
	var existing models.User
	err := s.db.WithContext(ctx).Where("username = ? OR email = ?", username, email).First(&existing).Error
	if err == nil {
		return nil, apperr.Conflict("username or email already exists")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Storage("failed to check existing users", err)
	}

	user := models.User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, apperr.Storage("failed to create user", err)
	}
	return &user, nil
}

func (s *userService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Storage("failed to fetch user", err)
	}
	return &user, nil
}

func (s *userService) GetByID(ctx context.Context, id int) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("user not found")
		}
		return nil, apperr.Storage("failed to fetch user", err)
	}
	return &user, nil
}

func (s *userService) ReportCount(ctx context.Context, id int) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Report{}).Where("user_id = ?", id).Count(&count).Error; err != nil {
		return 0, apperr.Storage("failed to count reports", err)
	}
	return count, nil
}

func (s *userService) Delete(ctx context.Context, id int) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ownedReports := s.db.Model(&models.Report{}).Select("id").Where("user_id = ?", id)
		affectedComments := s.db.Model(&models.Comment{}).Select("id").
			Where("user_id = ? OR report_id IN (?)", id, ownedReports)
		upvotedReports := s.db.Model(&models.ReportUpvote{}).Select("report_id").Where("user_id = ?", id)
		upvotedComments := s.db.Model(&models.CommentUpvote{}).Select("comment_id").Where("user_id = ?", id)

		// Counters on surviving entities must keep matching the relation
		// set, so every upvote the user cast is reversed before its
		// relation row goes away. Entities owned by the user get the same
		// decrement; they are deleted below anyway.
		if err := tx.Model(&models.Report{}).Where("id IN (?)", upvotedReports).
			UpdateColumn("upvotes", gorm.Expr("CASE WHEN upvotes > 0 THEN upvotes - 1 ELSE 0 END")).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Comment{}).Where("id IN (?)", upvotedComments).
			UpdateColumn("upvotes", gorm.Expr("CASE WHEN upvotes > 0 THEN upvotes - 1 ELSE 0 END")).Error; err != nil {
			return err
		}

		// Upvotes cast by the user, then upvotes on anything that is
		// about to disappear with the account.
		if err := tx.Where("user_id = ?", id).Delete(&models.ReportUpvote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.CommentUpvote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("comment_id IN (?)", affectedComments).Delete(&models.CommentUpvote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("report_id IN (?)", ownedReports).Delete(&models.ReportUpvote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ? OR report_id IN (?)", id, ownedReports).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Report{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, id).Error
	})
	if err != nil {
		return apperr.Storage("failed to delete user", err)
	}
	return nil
}
