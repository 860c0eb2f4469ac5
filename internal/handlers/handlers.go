package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/citypulse/incident-api/internal/apperr"
	"github.com/citypulse/incident-api/internal/auth"
	"github.com/citypulse/incident-api/internal/services"
)

// Handler combines all handler types
type Handler struct {
	Auth    *AuthHandler
	Report  *ReportHandler
	Comment *CommentHandler
	User    *UserHandler
}

// NewHandler creates a unified handler with all sub-handlers
func NewHandler(db *gorm.DB, issuer *auth.TokenIssuer) *Handler {
	userSvc := services.NewUserService(db)
	reportSvc := services.NewReportService(db)
	commentSvc := services.NewCommentService(db)
	upvoteSvc := services.NewUpvoteService(db)

	return &Handler{
		Auth:    NewAuthHandler(userSvc, issuer),
		Report:  NewReportHandler(reportSvc, upvoteSvc),
		Comment: NewCommentHandler(commentSvc, upvoteSvc),
		User:    NewUserHandler(userSvc),
	}
}

// respondError translates a typed service error to its HTTP status.
// Storage and untyped errors are logged and answered with a generic
// body.
func respondError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Printf("internal error handling %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{"error": apperr.Message(err)})
}
