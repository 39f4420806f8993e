package service

import (
	"errors"

	"github.com/metaMORZ-create/map-mates-backend-go/internal/spatial"
)

var (
	// ErrNotFound is returned when a user, zone set or visited area does not exist
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned for coordinates or parameters outside their domain.
	// It is the same value the spatial package returns.
	ErrInvalidInput = spatial.ErrInvalidInput
)
