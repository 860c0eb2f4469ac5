package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citypulse/incident-api/internal/apperr"
	"github.com/citypulse/incident-api/internal/geo"
	"github.com/citypulse/incident-api/internal/models"
)

func TestQueryByBbox_BoundaryInclusive(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db, "reporter")
	svc := NewReportService(db)
	ctx := context.Background()

	corner := seedReport(t, db, user.ID, 1, 1)     // exactly on the corner
	inside := seedReport(t, db, user.ID, 0, 0)     // inside
	outside := seedReport(t, db, user.ID, 1.01, 0) // 0.01 degrees outside

	reports, err := svc.QueryByBbox(ctx, ReportQuery{
		Bbox: geo.Envelope{MinLng: -1, MinLat: -1, MaxLng: 1, MaxLat: 1},
	})
	require.NoError(t, err)

	ids := make([]int, len(reports))
	for i, r := range reports {
		ids[i] = r.ID
	}
	assert.Contains(t, ids, corner.ID)
	assert.Contains(t, ids, inside.ID)
	assert.NotContains(t, ids, outside.ID)
}

func TestQueryByBbox_Filters(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db, "reporter")
	svc := NewReportService(db)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	pothole := models.Report{
		UserID: user.ID, Type: "pothole", OccurredAt: base,
		Longitude: 0, Latitude: 0, Status: models.ReportStatusOpen,
	}
	require.NoError(t, db.Create(&pothole).Error)

	flooding := models.Report{
		UserID: user.ID, Type: "flooding", OccurredAt: base.Add(48 * time.Hour),
		Longitude: 0, Latitude: 0, Status: models.ReportStatusResolved,
	}
	require.NoError(t, db.Create(&flooding).Error)

	bbox := geo.Envelope{MinLng: -1, MinLat: -1, MaxLng: 1, MaxLat: 1}

	byType, err := svc.QueryByBbox(ctx, ReportQuery{Bbox: bbox, Types: []string{"pothole"}})
	require.NoError(t, err)
	require.Len(t, byType, 1)
	assert.Equal(t, pothole.ID, byType[0].ID)

	both, err := svc.QueryByBbox(ctx, ReportQuery{Bbox: bbox, Types: []string{"pothole", "flooding"}})
	require.NoError(t, err)
	assert.Len(t, both, 2)

	byStatus, err := svc.QueryByBbox(ctx, ReportQuery{Bbox: bbox, Status: models.ReportStatusResolved})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, flooding.ID, byStatus[0].ID)

	// Inclusive occurred-at range: a report exactly at the bound
	// matches.
	from := base
	to := base
	byRange, err := svc.QueryByBbox(ctx, ReportQuery{Bbox: bbox, OccurredFrom: &from, OccurredTo: &to})
	require.NoError(t, err)
	require.Len(t, byRange, 1)
	assert.Equal(t, pothole.ID, byRange[0].ID)
}

func TestQueryByBbox_Ordering(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db, "reporter")
	svc := NewReportService(db)
	ctx := context.Background()

	older := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	mk := func(createdAt time.Time) models.Report {
		r := models.Report{
			UserID: user.ID, Type: "noise", OccurredAt: createdAt,
			Longitude: 0, Latitude: 0, Status: models.ReportStatusOpen,
			CreatedAt: createdAt,
		}
		require.NoError(t, db.Create(&r).Error)
		return r
	}

	first := mk(older)
	tieA := mk(newer)
	tieB := mk(newer)

	reports, err := svc.QueryByBbox(ctx, ReportQuery{
		Bbox: geo.Envelope{MinLng: -1, MinLat: -1, MaxLng: 1, MaxLat: 1},
	})
	require.NoError(t, err)
	require.Len(t, reports, 3)

	// Newest created first; creation-time ties break by ascending id.
	assert.Equal(t, tieA.ID, reports[0].ID)
	assert.Equal(t, tieB.ID, reports[1].ID)
	assert.Equal(t, first.ID, reports[2].ID)
}

func TestQueryNearPoint(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db, "reporter")
	svc := NewReportService(db)
	ctx := context.Background()

	// ~5 km and ~20 km north of the origin.
	near := seedReport(t, db, user.ID, 0, 0.045)
	far := seedReport(t, db, user.ID, 0, 0.18)

	reports, err := svc.QueryNearPoint(ctx, 0, 0, 10, "", "")
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, near.ID, reports[0].ID)
	_ = far
}

func TestGetByID_NotFound(t *testing.T) {
	db := setupTestDB(t)
	svc := NewReportService(db)

	_, err := svc.GetByID(context.Background(), 42)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestUpdate_StampsUpdatedAt(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db, "reporter")
	report := seedReport(t, db, user.ID, 0, 0)
	svc := NewReportService(db)
	ctx := context.Background()

	require.Nil(t, report.UpdatedAt)

	desc := "updated description"
	updated, err := svc.Update(ctx, report.ID, &desc, nil)
	require.NoError(t, err)
	assert.Equal(t, desc, updated.Description)
	require.NotNil(t, updated.UpdatedAt)

	bogus := "archived"
	_, err = svc.Update(ctx, report.ID, nil, &bogus)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidArgument))

	status := models.ReportStatusResolved
	updated, err = svc.Update(ctx, report.ID, nil, &status)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusResolved, updated.Status)

	_, err = svc.Update(ctx, report.ID, nil, nil)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidArgument))
}

func TestDelete_CascadesCommentsAndUpvotes(t *testing.T) {
	db := setupTestDB(t)
	owner := seedUser(t, db, "owner")
	voter := seedUser(t, db, "voter")
	report := seedReport(t, db, owner.ID, 0, 0)
	comment := seedComment(t, db, report.ID, voter.ID, "confirmed")
	svc := NewReportService(db)
	upvoteSvc := NewUpvoteService(db)
	ctx := context.Background()

	_, err := upvoteSvc.UpvoteReport(ctx, report.ID, voter.ID)
	require.NoError(t, err)
	_, err = upvoteSvc.UpvoteComment(ctx, comment.ID, owner.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, report.ID))

	var reportCount, commentCount, reportUpvotes, commentUpvotes int64
	db.Model(&models.Report{}).Count(&reportCount)
	db.Model(&models.Comment{}).Count(&commentCount)
	db.Model(&models.ReportUpvote{}).Count(&reportUpvotes)
	db.Model(&models.CommentUpvote{}).Count(&commentUpvotes)

	assert.Zero(t, reportCount)
	assert.Zero(t, commentCount)
	assert.Zero(t, reportUpvotes)
	assert.Zero(t, commentUpvotes)
}
