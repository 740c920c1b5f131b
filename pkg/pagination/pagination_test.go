package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func parseQuery(t *testing.T, rawQuery string) Params {
	t.Helper()
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/api/audit?"+rawQuery, nil)
	return Parse(c)
}

func TestParseLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name  string
		query string
		want  int
	}{
		{"missing", "", DefaultLimit},
		{"explicit", "limit=35", 35},
		{"zero falls back", "limit=0", DefaultLimit},
		{"negative falls back", "limit=-4", DefaultLimit},
		{"garbage falls back", "limit=ten", DefaultLimit},
		{"clamped to max", "limit=5000", MaxLimit},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, parseQuery(t, tc.query).Limit)
		})
	}
}
