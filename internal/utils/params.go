package utils

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// GetIDParam parses the named path parameter as a positive id.
func GetIDParam(ctx *gin.Context, name string) (uint, error) {
	raw := ctx.Param(name)

	if raw == "" {
		return 0, fmt.Errorf("%s not found", name)
	}

	id, err := strconv.ParseUint(raw, 10, 32)

	if err != nil || id == 0 {
		return 0, fmt.Errorf("Invalid %s", name)
	}

	return uint(id), nil
}

// GetOptionalIDQuery parses the named query parameter; an absent parameter
// yields nil.
func GetOptionalIDQuery(ctx *gin.Context, name string) (*uint, error) {
	raw := strings.TrimSpace(ctx.Query(name))

	if raw == "" {
		return nil, nil
	}

	id, err := strconv.ParseUint(raw, 10, 32)

	if err != nil || id == 0 {
		return nil, fmt.Errorf("Invalid %s", name)
	}

	v := uint(id)
	return &v, nil
}

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"}

// ParseDate accepts RFC 3339 timestamps and plain dates. An empty string
// yields nil.
func ParseDate(input string) (*time.Time, error) {
	input = strings.TrimSpace(input)

	if input == "" {
		return nil, nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, input); err == nil {
			return &t, nil
		}
	}

	return nil, errors.New("invalid date format")
}
