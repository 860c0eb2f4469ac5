package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/citypulse/incident-api/internal/auth"
	"github.com/citypulse/incident-api/internal/models"
	"github.com/citypulse/incident-api/internal/services"
	"github.com/citypulse/incident-api/internal/views"
)

type CommentHandler struct {
	comments services.CommentService
	upvotes  services.UpvoteService
}

func NewCommentHandler(comments services.CommentService, upvotes services.UpvoteService) *CommentHandler {
	return &CommentHandler{comments: comments, upvotes: upvotes}
}

func (h *CommentHandler) commentViews(c *gin.Context, comments []models.Comment) ([]views.CommentView, error) {
	callerID, _ := auth.CallerID(c)
	ids := make([]int, len(comments))
	for i, cm := range comments {
		ids[i] = cm.ID
	}

	counts, mine, err := h.upvotes.CommentUpvoteState(c.Request.Context(), ids, callerID)
	if err != nil {
		return nil, err
	}

	result := make([]views.CommentView, 0, len(comments))
	for _, cm := range comments {
		result = append(result, views.NewCommentView(cm, counts[cm.ID], mine[cm.ID]))
	}
	return result, nil
}

// GetComments returns a report's comments, newest first.
func (h *CommentHandler) GetComments(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	comments, err := h.comments.ListByReport(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	commentViews, err := h.commentViews(c, comments)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, commentViews)
}

// CreateComment attaches a comment to a report (auth required).
func (h *CommentHandler) CreateComment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	callerID, ok := auth.CallerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var input models.CreateCommentRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "commentText is required"})
		return
	}

	comment, err := h.comments.Create(c.Request.Context(), id, callerID, input.CommentText)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, views.NewCommentView(*comment, 0, false))
}

// DeleteComment removes a comment (owner or admin).
func (h *CommentHandler) DeleteComment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	callerID, ok := auth.CallerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	comment, err := h.comments.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := auth.RequireOwnerOrAdmin(comment.UserID, callerID, auth.CallerIsAdmin(c)); err != nil {
		respondError(c, err)
		return
	}

	if err := h.comments.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UpvoteComment records the caller's upvote; repeating it is a no-op.
func (h *CommentHandler) UpvoteComment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	callerID, ok := auth.CallerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	result, err := h.upvotes.UpvoteComment(c.Request.Context(), id, callerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// RemoveCommentUpvote withdraws the caller's upvote; repeating it is
// a no-op.
func (h *CommentHandler) RemoveCommentUpvote(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	callerID, ok := auth.CallerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	result, err := h.upvotes.RemoveCommentUpvote(c.Request.Context(), id, callerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
