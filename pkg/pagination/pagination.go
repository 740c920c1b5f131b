package pagination

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params holds the validated listing parameters. The admin listings are
// newest-first windows, so a clamped limit is the only knob.
type Params struct {
	Limit int
}

// Parse reads the limit query parameter and clamps it into [1, MaxLimit];
// anything missing or unusable falls back to the default.
func Parse(c *gin.Context) Params {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(DefaultLimit)))

	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	return Params{Limit: limit}
}
