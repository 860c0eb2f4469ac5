package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/citypulse/incident-api/internal/apperr"
	"github.com/citypulse/incident-api/internal/geo"
	"github.com/citypulse/incident-api/internal/models"
)

// ReportQuery carries the filters for a bounded-box report search.
// Zero-valued optional filters are ignored.
type ReportQuery struct {
	Bbox         geo.Envelope
	Types        []string
	Status       string
	OccurredFrom *time.Time
	OccurredTo   *time.Time
}

// ReportService defines the report store and query operations.
type ReportService interface {
	Create(ctx context.Context, r *models.Report) error
	GetByID(ctx context.Context, id int) (*models.Report, error)

	// QueryByBbox returns reports whose point intersects the envelope,
	// boundary inclusive, newest-created-first with ascending id as the
	// tiebreak.
	QueryByBbox(ctx context.Context, q ReportQuery) ([]models.Report, error)

	// QueryNearPoint returns reports within radiusKm great-circle
	// distance of the point.
	QueryNearPoint(ctx context.Context, lng, lat, radiusKm float64, reportType, status string) ([]models.Report, error)

	// Update applies a description and/or status change and stamps
	// updated_at.
	Update(ctx context.Context, id int, description, status *string) (*models.Report, error)

	// Delete removes the report together with its comments and all
	// upvote relations in one transaction.
	Delete(ctx context.Context, id int) error
}

type reportService struct {
	db *gorm.DB
}

func NewReportService(db *gorm.DB) ReportService {
	return &reportService{db: db}
}

func (s *reportService) Create(ctx context.Context, r *models.Report) error {
	if r.Status == "" {
		r.Status = models.ReportStatusOpen
	}
	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		return apperr.Storage("failed to create report", err)
	}
	return nil
}

func (s *reportService) GetByID(ctx context.Context, id int) (*models.Report, error) {
	var report models.Report
	if err := s.db.WithContext(ctx).Preload("User").First(&report, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("report not found")
		}
		return nil, apperr.Storage("failed to fetch report", err)
	}
	return &report, nil
}

func (s *reportService) QueryByBbox(ctx context.Context, q ReportQuery) ([]models.Report, error) {
	tx := s.db.WithContext(ctx).Preload("User").
		Where("longitude BETWEEN ? AND ?", q.Bbox.MinLng, q.Bbox.MaxLng).
		Where("latitude BETWEEN ? AND ?", q.Bbox.MinLat, q.Bbox.MaxLat)

	if len(q.Types) > 0 {
		tx = tx.Where("type IN ?", q.Types)
	}
	if q.Status != "" {
		tx = tx.Where("status = ?", q.Status)
	}
	if q.OccurredFrom != nil {
		tx = tx.Where("occurred_at >= ?", *q.OccurredFrom)
	}
	if q.OccurredTo != nil {
		tx = tx.Where("occurred_at <= ?", *q.OccurredTo)
	}

	var reports []models.Report
	if err := tx.Order("created_at DESC, id ASC").Find(&reports).Error; err != nil {
		return nil, apperr.Storage("failed to query reports", err)
	}
	return reports, nil
}

func (s *reportService) QueryNearPoint(ctx context.Context, lng, lat, radiusKm float64, reportType, status string) ([]models.Report, error) {
	q := ReportQuery{
		Bbox:   geo.BoundsAround(lng, lat, radiusKm),
		Status: status,
	}
	if reportType != "" {
		q.Types = []string{reportType}
	}
	candidates, err := s.QueryByBbox(ctx, q)
	if err != nil {
		return nil, err
	}

	// The bbox prefilter over-selects at the corners; refine with the
	// actual great-circle distance.
	reports := make([]models.Report, 0, len(candidates))
	for _, r := range candidates {
		if geo.HaversineKm(lng, lat, r.Longitude, r.Latitude) <= radiusKm {
			reports = append(reports, r)
		}
	}
	return reports, nil
}

func (s *reportService) Update(ctx context.Context, id int, description, status *string) (*models.Report, error) {
	if description == nil && status == nil {
		return nil, apperr.InvalidArgument("nothing to update")
	}

	updates := map[string]interface{}{"updated_at": time.Now().UTC()}
	if description != nil {
		updates["description"] = *description
	}
	if status != nil {
		if *status != models.ReportStatusOpen && *status != models.ReportStatusResolved {
			return nil, apperr.InvalidArgument("status must be open or resolved")
		}
		updates["status"] = *status
	}

	if err := s.db.WithContext(ctx).Model(&models.Report{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, apperr.Storage("failed to update report", err)
	}
	return s.GetByID(ctx, id)
}

func (s *reportService) Delete(ctx context.Context, id int) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		commentIDs := s.db.Model(&models.Comment{}).Select("id").Where("report_id = ?", id)
		if err := tx.Where("comment_id IN (?)", commentIDs).Delete(&models.CommentUpvote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("report_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("report_id = ?", id).Delete(&models.ReportUpvote{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Report{}, id).Error
	})
	if err != nil {
		return apperr.Storage("failed to delete report", err)
	}
	return nil
}
