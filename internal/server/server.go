package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/citypulse/incident-api/internal/auth"
	"github.com/citypulse/incident-api/internal/config"
	"github.com/citypulse/incident-api/internal/database"
	"github.com/citypulse/incident-api/internal/handlers"
)

type Server struct {
	db      database.Service
	handler *handlers.Handler
	issuer  *auth.TokenIssuer
}

// NewServer creates and configures a new server
func NewServer(cfg *config.Config) (*http.Server, error) {
	db, err := database.New(cfg)
	if err != nil {
		return nil, err
	}

	issuer := auth.NewTokenIssuer(cfg.JWTSecret)
	handler := handlers.NewHandler(db.GetDB(), issuer)

	newServer := &Server{
		db:      db,
		handler: handler,
		issuer:  issuer,
	}

	router := newServer.RegisterRoutes()

	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      router,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return server, nil
}

// RegisterRoutes sets up all application routes
func (s *Server) RegisterRoutes() *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * 3600,
	}))

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.db.Health())
	})

	api := r.Group("/api")
	{
		// Auth routes (public)
		api.POST("/register", s.handler.Auth.Register)
		api.POST("/login", s.handler.Auth.Login)

		// Public reads; views are caller-scoped when a token is
		// present, anonymous otherwise
		reads := api.Group("")
		reads.Use(auth.OptionalAuth(s.issuer))
		{
			reads.GET("/reports", s.handler.Report.GetReports)
			reads.GET("/reports/near", s.handler.Report.GetReportsNear)
			reads.GET("/reports/:id", s.handler.Report.GetReport)
			reads.GET("/reports/:id/comments", s.handler.Comment.GetComments)
			reads.GET("/users/:id", s.handler.User.GetUserProfile)
		}

		// Protected routes (authentication required)
		protected := api.Group("")
		protected.Use(auth.RequireAuth(s.issuer))
		{
			protected.GET("/me", s.handler.Auth.GetMe)
			protected.DELETE("/me", s.handler.Auth.DeleteMe)

			protected.POST("/reports", s.handler.Report.CreateReport)
			protected.PATCH("/reports/:id", s.handler.Report.UpdateReport)
			protected.DELETE("/reports/:id", s.handler.Report.DeleteReport)
			protected.PUT("/reports/:id/upvote", s.handler.Report.UpvoteReport)
			protected.DELETE("/reports/:id/upvote", s.handler.Report.RemoveReportUpvote)

			protected.POST("/reports/:id/comments", s.handler.Comment.CreateComment)
			protected.PUT("/comments/:id/upvote", s.handler.Comment.UpvoteComment)
			protected.DELETE("/comments/:id/upvote", s.handler.Comment.RemoveCommentUpvote)
			protected.DELETE("/comments/:id", s.handler.Comment.DeleteComment)
		}
	}

	return r
}
