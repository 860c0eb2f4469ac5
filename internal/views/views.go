// Package views projects stored entities into caller-scoped response
// shapes. Upvote counts come from the relation set, not the cached
// counter, so a view can never show drifted state.
package views

import (
	"time"

	"github.com/citypulse/incident-api/internal/models"
)

// UserSummary identifies an entity's owner. Username falls back to
// "unknown" when the owner record is missing.
type UserSummary struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
}

type ReportView struct {
	ID          int        `json:"id"`
	Type        string     `json:"type"`
	Description string     `json:"description"`
	OccurredAt  time.Time  `json:"occurred_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
	Status      string     `json:"status"`
	Upvotes     int        `json:"upvotes"`
	UpvotedByMe bool       `json:"upvoted_by_me"`
	User        UserSummary `json:"user"`
	Coordinates [2]float64 `json:"coordinates"`
}

type CommentView struct {
	ID          int         `json:"id"`
	ReportID    int         `json:"report_id"`
	Body        string      `json:"body"`
	CreatedAt   time.Time   `json:"created_at"`
	Upvotes     int         `json:"upvotes"`
	UpvotedByMe bool        `json:"upvoted_by_me"`
	User        UserSummary `json:"user"`
}

// GeoJSON envelope types for the map endpoints.
type Geometry struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

type Feature struct {
	Type       string     `json:"type"`
	Geometry   Geometry   `json:"geometry"`
	Properties ReportView `json:"properties"`
}

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

func ownerSummary(u models.User, ownerID int) UserSummary {
	summary := UserSummary{ID: ownerID, Username: "unknown"}
	if u.ID != 0 {
		summary.Username = u.Username
	}
	return summary
}

// NewReportView builds the caller-scoped projection of a report.
// upvotedByMe must be false for anonymous callers.
func NewReportView(r models.Report, upvotes int, upvotedByMe bool) ReportView {
	return ReportView{
		ID:          r.ID,
		Type:        r.Type,
		Description: r.Description,
		OccurredAt:  r.OccurredAt,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		Status:      r.Status,
		Upvotes:     upvotes,
		UpvotedByMe: upvotedByMe,
		User:        ownerSummary(r.User, r.UserID),
		Coordinates: [2]float64{r.Longitude, r.Latitude},
	}
}

func NewCommentView(c models.Comment, upvotes int, upvotedByMe bool) CommentView {
	return CommentView{
		ID:          c.ID,
		ReportID:    c.ReportID,
		Body:        c.Body,
		CreatedAt:   c.CreatedAt,
		Upvotes:     upvotes,
		UpvotedByMe: upvotedByMe,
		User:        ownerSummary(c.User, c.UserID),
	}
}

func NewFeature(v ReportView) Feature {
	return Feature{
		Type: "Feature",
		Geometry: Geometry{
			Type:        "Point",
			Coordinates: v.Coordinates,
		},
		Properties: v,
	}
}

// NewFeatureCollection wraps report views in a GeoJSON feature
// collection. Features is never null.
func NewFeatureCollection(reportViews []ReportView) FeatureCollection {
	features := make([]Feature, 0, len(reportViews))
	for _, v := range reportViews {
		features = append(features, NewFeature(v))
	}
	return FeatureCollection{Type: "FeatureCollection", Features: features}
}
