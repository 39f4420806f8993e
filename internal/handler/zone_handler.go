package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/metaMORZ-create/map-mates-backend-go/internal/models"
	"github.com/metaMORZ-create/map-mates-backend-go/internal/service"
	"github.com/metaMORZ-create/map-mates-backend-go/pkg/response"
)

// ZoneHandler handles HTTP requests for visited zones
type ZoneHandler struct {
	zoneService *service.ZoneService
	logger      zerolog.Logger
}

// NewZoneHandler creates a new zone handler
func NewZoneHandler(zoneService *service.ZoneService, logger zerolog.Logger) *ZoneHandler {
	return &ZoneHandler{
		zoneService: zoneService,
		logger:      logger,
	}
}

// ListZones handles GET /api/v1/users/:id/zones
func (h *ZoneHandler) ListZones(c *gin.Context) {
	userID, ok := parseUserID(c)
	if !ok {
		return
	}

	zones, err := h.zoneService.ListZones(c.Request.Context(), userID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	out := make([]models.ZoneResponse, len(zones))
	for i, z := range zones {
		out[i] = z.ToResponse()
	}
	response.Success(c, out)
}
