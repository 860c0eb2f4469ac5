package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citypulse/incident-api/internal/apperr"
	"github.com/citypulse/incident-api/internal/models"
)

func TestCreateComment_Validation(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db, "commenter")
	report := seedReport(t, db, user.ID, 0, 0)
	svc := NewCommentService(db)
	ctx := context.Background()

	_, err := svc.Create(ctx, report.ID, user.ID, "   ")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidArgument))

	_, err = svc.Create(ctx, report.ID, user.ID, strings.Repeat("x", models.MaxCommentLength+1))
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidArgument))

	// Exactly at the bound is fine.
	comment, err := svc.Create(ctx, report.ID, user.ID, strings.Repeat("x", models.MaxCommentLength))
	require.NoError(t, err)
	assert.Equal(t, report.ID, comment.ReportID)
	assert.Equal(t, user.ID, comment.UserID)
}

func TestCreateComment_ReportNotFound(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db, "commenter")
	svc := NewCommentService(db)

	_, err := svc.Create(context.Background(), 404, user.ID, "hello")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestListByReport_NewestFirst(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db, "commenter")
	report := seedReport(t, db, user.ID, 0, 0)
	svc := NewCommentService(db)

	first := seedComment(t, db, report.ID, user.ID, "first")
	second := seedComment(t, db, report.ID, user.ID, "second")

	comments, err := svc.ListByReport(context.Background(), report.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)

	// Newest first; same-timestamp rows fall back to descending id.
	assert.Equal(t, second.ID, comments[0].ID)
	assert.Equal(t, first.ID, comments[1].ID)
	assert.Equal(t, "commenter", comments[0].User.Username)

	_, err = svc.ListByReport(context.Background(), 404)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestDeleteComment_CascadesUpvotes(t *testing.T) {
	db := setupTestDB(t)
	author := seedUser(t, db, "author")
	voter := seedUser(t, db, "voter")
	report := seedReport(t, db, author.ID, 0, 0)
	comment := seedComment(t, db, report.ID, author.ID, "gone soon")
	svc := NewCommentService(db)
	upvoteSvc := NewUpvoteService(db)
	ctx := context.Background()

	_, err := upvoteSvc.UpvoteComment(ctx, comment.ID, voter.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, comment.ID))

	var commentCount, upvoteCount int64
	db.Model(&models.Comment{}).Count(&commentCount)
	db.Model(&models.CommentUpvote{}).Count(&upvoteCount)
	assert.Zero(t, commentCount)
	assert.Zero(t, upvoteCount)
}
