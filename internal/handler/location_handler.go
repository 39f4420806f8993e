package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/metaMORZ-create/map-mates-backend-go/internal/models"
	"github.com/metaMORZ-create/map-mates-backend-go/internal/service"
	"github.com/metaMORZ-create/map-mates-backend-go/pkg/response"
)

// LocationHandler handles HTTP requests for ping ingestion
type LocationHandler struct {
	zoneService *service.ZoneService
	logger      zerolog.Logger
}

// NewLocationHandler creates a new location handler
func NewLocationHandler(zoneService *service.ZoneService, logger zerolog.Logger) *LocationHandler {
	return &LocationHandler{
		zoneService: zoneService,
		logger:      logger,
	}
}

// AddLocation handles POST /api/v1/locations/add_location
func (h *LocationHandler) AddLocation(c *gin.Context) {
	var req models.AddLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	result, err := h.zoneService.MatchOrCreate(c.Request.Context(), service.PingInput{
		UserID:    req.UserID,
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
		Altitude:  req.Altitude,
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	response.Created(c, toAddLocationResponse(result))
}

// AddLocations handles POST /api/v1/locations/add_locations
func (h *LocationHandler) AddLocations(c *gin.Context) {
	var req models.AddLocationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	pings := make([]service.PingInput, len(req.Locations))
	for i, loc := range req.Locations {
		pings[i] = service.PingInput{
			UserID:    loc.UserID,
			Latitude:  *loc.Latitude,
			Longitude: *loc.Longitude,
			Altitude:  loc.Altitude,
			Timestamp: loc.Timestamp,
		}
	}

	results, err := h.zoneService.IngestBatch(c.Request.Context(), pings)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	out := make([]models.AddLocationResponse, len(results))
	for i := range results {
		out[i] = toAddLocationResponse(&results[i])
	}
	response.Created(c, out)
}

func toAddLocationResponse(r *service.MatchResult) models.AddLocationResponse {
	msg := "Location matched existing zone"
	if r.Created {
		msg = "Location created new zone"
	}
	return models.AddLocationResponse{
		Message:     msg,
		LocationID:  r.LocationID,
		Timestamp:   r.Timestamp,
		ZoneID:      r.Zone.ID,
		ZoneCreated: r.Created,
		VisitCount:  r.Zone.VisitCount,
	}
}
