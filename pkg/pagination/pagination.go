// Package pagination reads page and limit query parameters.
package pagination

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100

	// All is the limit value that asks for every matching row.
	All = "all"
)

// Params is a validated page request. Limit is 0 when every row was asked for.
type Params struct {
	Page   int
	Limit  int
	Offset int
}

// Unpaged reports whether the request asked for the whole result set.
func (p Params) Unpaged() bool {
	return p.Limit == 0
}

// Parse reads page and limit, clamping both into range. Unparsable values fall
// back to the defaults.
func Parse(c *gin.Context) Params {
	return New(atoi(c.Query("page"), DefaultPage), atoi(c.Query("limit"), DefaultLimit))
}

// ParseOrAll is Parse, except that limit=all returns every row. Ledger lists
// use it so a client can recompute totals over a complete job.
func ParseOrAll(c *gin.Context) Params {
	if strings.EqualFold(strings.TrimSpace(c.Query("limit")), All) {
		return Params{Page: DefaultPage}
	}
	return Parse(c)
}

// New clamps page and limit into the accepted range.
func New(page, limit int) Params {
	if page < 1 {
		page = DefaultPage
	}
	switch {
	case limit < 1:
		limit = DefaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}
	return Params{Page: page, Limit: limit, Offset: (page - 1) * limit}
}

func atoi(s string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fallback
	}
	return n
}
