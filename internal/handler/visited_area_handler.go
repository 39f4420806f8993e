package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/metaMORZ-create/map-mates-backend-go/internal/models"
	"github.com/metaMORZ-create/map-mates-backend-go/internal/service"
	"github.com/metaMORZ-create/map-mates-backend-go/internal/spatial"
	"github.com/metaMORZ-create/map-mates-backend-go/pkg/response"
)

// VisitedAreaHandler handles HTTP requests for visited-area polygons
type VisitedAreaHandler struct {
	areaService *service.VisitedAreaService
	logger      zerolog.Logger
}

// NewVisitedAreaHandler creates a new visited-area handler
func NewVisitedAreaHandler(areaService *service.VisitedAreaService, logger zerolog.Logger) *VisitedAreaHandler {
	return &VisitedAreaHandler{
		areaService: areaService,
		logger:      logger,
	}
}

// GetVisitedArea handles GET /api/v1/users/:id/visited-area
func (h *VisitedAreaHandler) GetVisitedArea(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	area, err := h.areaService.Get(c.Request.Context(), userID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	response.Success(c, toVisitedAreaResponse(area))
}

// GetVisitedAreaKML handles GET /api/v1/users/:id/visited-area.kml
func (h *VisitedAreaHandler) GetVisitedAreaKML(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	area, err := h.areaService.Get(c.Request.Context(), userID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	var buf bytes.Buffer
	if err := spatial.WriteKML(&buf, fmt.Sprintf("Visited area of user %d", userID), area.Polygons); err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="visited-area-%d.kml"`, userID))
	c.Data(http.StatusOK, "application/vnd.google-earth.kml+xml", buf.Bytes())
}

// Rebuild handles POST /api/v1/users/:id/visited-area/rebuild
func (h *VisitedAreaHandler) Rebuild(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	rebuild := h.areaService.Rebuild
	if c.Query("detail") == "true" {
		rebuild = h.areaService.RebuildDetailed
	}

	area, err := rebuild(c.Request.Context(), userID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	response.Success(c, toVisitedAreaResponse(area))
}

// Extend handles POST /api/v1/users/:id/visited-area/extend
func (h *VisitedAreaHandler) Extend(c *gin.Context) {
	h.extend(c, h.areaService.Extend)
}

// ExtendRoute handles POST /api/v1/users/:id/visited-area/extend-route
func (h *VisitedAreaHandler) ExtendRoute(c *gin.Context) {
	h.extend(c, h.areaService.ExtendRoute)
}

type extendFunc func(ctx context.Context, userID int64, points []spatial.Point) (*service.VisitedArea, error)

func (h *VisitedAreaHandler) extend(c *gin.Context, fn extendFunc) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	var req models.PointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	area, err := fn(c.Request.Context(), userID, toPoints(req.Points))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	response.Success(c, toVisitedAreaResponse(area))
}

// Preview handles POST /api/v1/visited-area/preview
func (h *VisitedAreaHandler) Preview(c *gin.Context) {
	var req models.PointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	area, err := h.areaService.Preview(c.Request.Context(), toPoints(req.Points))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	resp := toVisitedAreaResponse(area)
	resp.LastUpdated = nil
	response.Success(c, resp)
}

func toVisitedAreaResponse(a *service.VisitedArea) models.VisitedAreaResponse {
	resp := models.VisitedAreaResponse{
		UserID:           a.UserID,
		Components:       a.Components(),
		AreaSquareMeters: a.AreaSquareMeters(),
		Centroids:        make([]models.Position, 0, a.Components()),
		Geometry:         json.RawMessage(a.Geometry),
	}
	for _, c := range a.Centroids() {
		resp.Centroids = append(resp.Centroids, models.Position{Latitude: c.Lat, Longitude: c.Lon})
	}
	if !a.LastUpdated.IsZero() {
		updated := a.LastUpdated
		resp.LastUpdated = &updated
	}
	return resp
}
