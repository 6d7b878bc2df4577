package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		query string
		want  Params
	}{
		{"", Params{Page: 1, Limit: 20, Offset: 0}},
		{"?page=3&limit=10", Params{Page: 3, Limit: 10, Offset: 20}},
		{"?page=0&limit=0", Params{Page: 1, Limit: 20, Offset: 0}},
		{"?page=-4&limit=500", Params{Page: 1, Limit: 100, Offset: 0}},
		{"?page=abc&limit=xyz", Params{Page: 1, Limit: 20, Offset: 0}},
	}
	for _, tt := range tests {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest("GET", "/api/jobs"+tt.query, nil)
		assert.Equal(t, tt.want, Parse(c), tt.query)
	}
}

func TestParseOrAll(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		query   string
		want    Params
		unpaged bool
	}{
		{"?limit=all", Params{Page: 1}, true},
		{"?limit=ALL&page=7", Params{Page: 1}, true},
		{"?page=2&limit=5", Params{Page: 2, Limit: 5, Offset: 5}, false},
		{"", Params{Page: 1, Limit: 20}, false},
	}
	for _, tt := range tests {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest("GET", "/api/client-bills"+tt.query, nil)
		got := ParseOrAll(c)
		assert.Equal(t, tt.want, got, tt.query)
		assert.Equal(t, tt.unpaged, got.Unpaged(), tt.query)
	}
}
