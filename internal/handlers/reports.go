package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/citypulse/incident-api/internal/auth"
	"github.com/citypulse/incident-api/internal/geo"
	"github.com/citypulse/incident-api/internal/models"
	"github.com/citypulse/incident-api/internal/services"
	"github.com/citypulse/incident-api/internal/views"
)

type ReportHandler struct {
	reports services.ReportService
	upvotes services.UpvoteService
}

func NewReportHandler(reports services.ReportService, upvotes services.UpvoteService) *ReportHandler {
	return &ReportHandler{reports: reports, upvotes: upvotes}
}

func pathID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return 0, false
	}
	return id, true
}

func parseTimeParam(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be an RFC3339 timestamp"})
		return nil, false
	}
	return &t, true
}

// reportViews resolves upvote state for a batch of reports and builds
// the caller-scoped views.
func (h *ReportHandler) reportViews(c *gin.Context, reports []models.Report) ([]views.ReportView, error) {
	callerID, _ := auth.CallerID(c)
	ids := make([]int, len(reports))
	for i, r := range reports {
		ids[i] = r.ID
	}

	counts, mine, err := h.upvotes.ReportUpvoteState(c.Request.Context(), ids, callerID)
	if err != nil {
		return nil, err
	}

	result := make([]views.ReportView, 0, len(reports))
	for _, r := range reports {
		result = append(result, views.NewReportView(r, counts[r.ID], mine[r.ID]))
	}
	return result, nil
}

// GetReports answers the map query: bbox filtered, optionally by
// type, status, and inclusive occurred-at range.
func (h *ReportHandler) GetReports(c *gin.Context) {
	envelope, err := geo.ParseBbox(c.Query("bbox"))
	if err != nil {
		respondError(c, err)
		return
	}

	from, ok := parseTimeParam(c, "from")
	if !ok {
		return
	}
	to, ok := parseTimeParam(c, "to")
	if !ok {
		return
	}

	reports, err := h.reports.QueryByBbox(c.Request.Context(), services.ReportQuery{
		Bbox:         envelope,
		Types:        c.QueryArray("type"),
		Status:       c.Query("status"),
		OccurredFrom: from,
		OccurredTo:   to,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	reportViews, err := h.reportViews(c, reports)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, views.NewFeatureCollection(reportViews))
}

// GetReportsNear returns reports within radius_km of a point.
func (h *ReportHandler) GetReportsNear(c *gin.Context) {
	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	lng, lngErr := strconv.ParseFloat(c.Query("lng"), 64)
	radiusKm, radErr := strconv.ParseFloat(c.Query("radius_km"), 64)
	if latErr != nil || lngErr != nil || radErr != nil || radiusKm <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat, lng and a positive radius_km are required"})
		return
	}

	reports, err := h.reports.QueryNearPoint(c.Request.Context(), lng, lat, radiusKm, c.Query("type"), c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}

	reportViews, err := h.reportViews(c, reports)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, views.NewFeatureCollection(reportViews))
}

// GetReport returns a single report as a GeoJSON feature.
func (h *ReportHandler) GetReport(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	report, err := h.reports.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	reportViews, err := h.reportViews(c, []models.Report{*report})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, views.NewFeature(reportViews[0]))
}

// CreateReport creates a new report (auth required).
func (h *ReportHandler) CreateReport(c *gin.Context) {
	callerID, ok := auth.CallerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var input models.CreateReportRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report := models.Report{
		UserID:      callerID,
		Type:        input.Type,
		Description: input.Description,
		OccurredAt:  input.OccurredAt,
		Latitude:    input.Latitude,
		Longitude:   input.Longitude,
	}
	if err := h.reports.Create(c.Request.Context(), &report); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":         report.ID,
		"status":     report.Status,
		"created_at": report.CreatedAt,
		"updated_at": report.UpdatedAt,
	})
}

// UpdateReport patches description and/or status (owner or admin).
func (h *ReportHandler) UpdateReport(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	callerID, ok := auth.CallerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var input models.UpdateReportRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := h.reports.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := auth.RequireOwnerOrAdmin(report.UserID, callerID, auth.CallerIsAdmin(c)); err != nil {
		respondError(c, err)
		return
	}

	updated, err := h.reports.Update(c.Request.Context(), id, input.Description, input.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":         updated.ID,
		"updated_at": updated.UpdatedAt,
	})
}

// DeleteReport removes a report (owner or admin).
func (h *ReportHandler) DeleteReport(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	callerID, ok := auth.CallerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	report, err := h.reports.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := auth.RequireOwnerOrAdmin(report.UserID, callerID, auth.CallerIsAdmin(c)); err != nil {
		respondError(c, err)
		return
	}

	if err := h.reports.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UpvoteReport records the caller's upvote; repeating it is a no-op.
func (h *ReportHandler) UpvoteReport(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	callerID, ok := auth.CallerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	result, err := h.upvotes.UpvoteReport(c.Request.Context(), id, callerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// RemoveReportUpvote withdraws the caller's upvote; repeating it is a
// no-op.
func (h *ReportHandler) RemoveReportUpvote(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	callerID, ok := auth.CallerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	result, err := h.upvotes.RemoveReportUpvote(c.Request.Context(), id, callerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
