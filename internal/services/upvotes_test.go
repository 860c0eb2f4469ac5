package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citypulse/incident-api/internal/apperr"
	"github.com/citypulse/incident-api/internal/models"
)

func relationCount(t *testing.T, svc UpvoteService, reportID int) int {
	t.Helper()
	counts, _, err := svc.ReportUpvoteState(context.Background(), []int{reportID}, 0)
	require.NoError(t, err)
	return counts[reportID]
}

func TestUpvoteReport_Idempotent(t *testing.T) {
	db := setupTestDB(t)
	owner := seedUser(t, db, "owner")
	voter := seedUser(t, db, "voter")
	report := seedReport(t, db, owner.ID, 0, 0)
	svc := NewUpvoteService(db)
	ctx := context.Background()

	first, err := svc.UpvoteReport(ctx, report.ID, voter.ID)
	require.NoError(t, err)
	assert.Equal(t, report.ID, first.ID)
	assert.Equal(t, 1, first.Upvotes)
	assert.True(t, first.UpvotedByMe)

	// Upvoting again is a no-op returning the same state.
	second, err := svc.UpvoteReport(ctx, report.ID, voter.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, second.Upvotes)
	assert.True(t, second.UpvotedByMe)

	assert.Equal(t, 1, relationCount(t, svc, report.ID))
}

func TestUpvoteReport_SelfUpvoteRejected(t *testing.T) {
	db := setupTestDB(t)
	owner := seedUser(t, db, "owner")
	report := seedReport(t, db, owner.ID, 0, 0)
	svc := NewUpvoteService(db)

	_, err := svc.UpvoteReport(context.Background(), report.ID, owner.ID)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidOperation))

	// No mutation happened.
	var stored models.Report
	require.NoError(t, db.First(&stored, report.ID).Error)
	assert.Equal(t, 0, stored.Upvotes)
	assert.Equal(t, 0, relationCount(t, svc, report.ID))
}

func TestUpvoteReport_NotFound(t *testing.T) {
	db := setupTestDB(t)
	voter := seedUser(t, db, "voter")
	svc := NewUpvoteService(db)

	_, err := svc.UpvoteReport(context.Background(), 999, voter.ID)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	_, err = svc.RemoveReportUpvote(context.Background(), 999, voter.ID)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestRemoveReportUpvote_NoopWhenNotUpvoted(t *testing.T) {
	db := setupTestDB(t)
	owner := seedUser(t, db, "owner")
	voter := seedUser(t, db, "voter")
	report := seedReport(t, db, owner.ID, 0, 0)
	svc := NewUpvoteService(db)

	result, err := svc.RemoveReportUpvote(context.Background(), report.ID, voter.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Upvotes)
	assert.False(t, result.UpvotedByMe)
}

func TestReportUpvotes_CounterMatchesRelations(t *testing.T) {
	db := setupTestDB(t)
	owner := seedUser(t, db, "owner")
	a := seedUser(t, db, "alice")
	b := seedUser(t, db, "bob")
	report := seedReport(t, db, owner.ID, 0, 0)
	svc := NewUpvoteService(db)
	ctx := context.Background()

	steps := []func() (*UpvoteResult, error){
		func() (*UpvoteResult, error) { return svc.UpvoteReport(ctx, report.ID, a.ID) },
		func() (*UpvoteResult, error) { return svc.UpvoteReport(ctx, report.ID, b.ID) },
		func() (*UpvoteResult, error) { return svc.UpvoteReport(ctx, report.ID, a.ID) },
		func() (*UpvoteResult, error) { return svc.RemoveReportUpvote(ctx, report.ID, a.ID) },
		func() (*UpvoteResult, error) { return svc.RemoveReportUpvote(ctx, report.ID, a.ID) },
		func() (*UpvoteResult, error) { return svc.RemoveReportUpvote(ctx, report.ID, b.ID) },
	}

	for i, step := range steps {
		result, err := step()
		require.NoError(t, err, "step %d", i)

		var stored models.Report
		require.NoError(t, db.First(&stored, report.ID).Error)
		assert.Equal(t, stored.Upvotes, result.Upvotes, "step %d", i)
		assert.Equal(t, relationCount(t, svc, report.ID), stored.Upvotes, "step %d", i)
		assert.GreaterOrEqual(t, stored.Upvotes, 0, "step %d", i)
	}
}

func TestUpvoteComment_IdempotentAndSelfRejected(t *testing.T) {
	db := setupTestDB(t)
	owner := seedUser(t, db, "owner")
	author := seedUser(t, db, "author")
	voter := seedUser(t, db, "voter")
	report := seedReport(t, db, owner.ID, 0, 0)
	comment := seedComment(t, db, report.ID, author.ID, "saw it too")
	svc := NewUpvoteService(db)
	ctx := context.Background()

	_, err := svc.UpvoteComment(ctx, comment.ID, author.ID)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidOperation))

	first, err := svc.UpvoteComment(ctx, comment.ID, voter.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Upvotes)
	assert.True(t, first.UpvotedByMe)

	second, err := svc.UpvoteComment(ctx, comment.ID, voter.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, second.Upvotes)

	removed, err := svc.RemoveCommentUpvote(ctx, comment.ID, voter.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, removed.Upvotes)
	assert.False(t, removed.UpvotedByMe)

	// Removing again stays a no-op at zero.
	removed, err = svc.RemoveCommentUpvote(ctx, comment.ID, voter.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, removed.Upvotes)
}

func TestReportUpvoteState(t *testing.T) {
	db := setupTestDB(t)
	owner := seedUser(t, db, "owner")
	a := seedUser(t, db, "alice")
	b := seedUser(t, db, "bob")
	r1 := seedReport(t, db, owner.ID, 0, 0)
	r2 := seedReport(t, db, owner.ID, 1, 1)
	svc := NewUpvoteService(db)
	ctx := context.Background()

	_, err := svc.UpvoteReport(ctx, r1.ID, a.ID)
	require.NoError(t, err)
	_, err = svc.UpvoteReport(ctx, r1.ID, b.ID)
	require.NoError(t, err)
	_, err = svc.UpvoteReport(ctx, r2.ID, b.ID)
	require.NoError(t, err)

	counts, mine, err := svc.ReportUpvoteState(ctx, []int{r1.ID, r2.ID}, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, counts[r1.ID])
	assert.Equal(t, 1, counts[r2.ID])
	assert.True(t, mine[r1.ID])
	assert.False(t, mine[r2.ID])

	// Anonymous caller never owns an upvote.
	_, mine, err = svc.ReportUpvoteState(ctx, []int{r1.ID, r2.ID}, 0)
	require.NoError(t, err)
	assert.Empty(t, mine)
}
