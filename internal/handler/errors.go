package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/metaMORZ-create/map-mates-backend-go/internal/models"
	"github.com/metaMORZ-create/map-mates-backend-go/internal/service"
	"github.com/metaMORZ-create/map-mates-backend-go/internal/spatial"
	"github.com/metaMORZ-create/map-mates-backend-go/pkg/response"
)

// writeError maps service errors onto the response envelope
func writeError(c *gin.Context, logger zerolog.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		response.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrNotFound):
		response.NotFound(c, err.Error())
	default:
		logger.Error().Err(err).Str("path", c.FullPath()).Str("request_id", c.GetString("request_id")).Msg("request failed")
		response.InternalError(c, "internal server error")
	}
}

// parseUserID reads the :id path parameter
func parseUserID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "Invalid user ID")
		return 0, false
	}
	return id, true
}

func toPoints(coords []models.Coordinate) []spatial.Point {
	points := make([]spatial.Point, len(coords))
	for i, c := range coords {
		points[i] = spatial.Point{Lat: *c.Latitude, Lon: *c.Longitude}
	}
	return points
}
