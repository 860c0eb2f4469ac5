package models

import "time"

// Report lifecycle statuses.
const (
	ReportStatusOpen     = "open"
	ReportStatusResolved = "resolved"
)

// Report is a geotagged incident. Coordinates are WGS84 degrees
// (SRID 4326). Upvotes is a denormalized counter maintained in the
// same transaction as the upvote relation; read views derive the
// count from the relation table instead.
type Report struct {
	ID          int        `gorm:"primaryKey" json:"id"`
	UserID      int        `gorm:"not null;index" json:"user_id"`
	User        User       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user"`
	Type        string     `gorm:"not null;index" json:"type"`
	Description string     `json:"description"`
	OccurredAt  time.Time  `gorm:"not null;index" json:"occurred_at"`
	Longitude   float64    `gorm:"not null" json:"longitude"`
	Latitude    float64    `gorm:"not null" json:"latitude"`
	Status      string     `gorm:"not null;default:'open';index" json:"status"`
	Upvotes     int        `gorm:"not null;default:0" json:"upvotes"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `gorm:"autoUpdateTime:false" json:"updated_at,omitempty"`
}

type CreateReportRequest struct {
	Type        string    `json:"type" binding:"required"`
	Description string    `json:"description"`
	OccurredAt  time.Time `json:"occurredAt" binding:"required"`
	Latitude    float64   `json:"lat" binding:"min=-90,max=90"`
	Longitude   float64   `json:"lng" binding:"min=-180,max=180"`
}

type UpdateReportRequest struct {
	Description *string `json:"description"`
	Status      *string `json:"status"`
}
