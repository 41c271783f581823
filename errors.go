package volren

import (
	"errors"

	"github.com/gekko3d/volren/volrt/rt/core"
)

var (
	ErrUnsupportedMode      = errors.New("unsupported pipeline mode")
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrNotInitialized       = errors.New("pipeline not initialized")

	// ErrAtlasOutcomeExpired is returned when awaiting a load settled so
	// long ago that its outcome is no longer kept.
	ErrAtlasOutcomeExpired = errors.New("atlas load outcome expired")

	// ErrInvalidTransferFunction is returned for empty, unsorted or
	// unparseable stop lists.
	ErrInvalidTransferFunction = core.ErrInvalidTransferFunction
)
