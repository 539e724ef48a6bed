package utils

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/monocle-dev/taskboard/internal/middleware"
	"github.com/monocle-dev/taskboard/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext(target string) *gin.Context {
	gin.SetMode(gin.TestMode)
	ctx, _ := gin.CreateTestContext(httptest.NewRecorder())
	ctx.Request = httptest.NewRequest("GET", target, nil)
	return ctx
}

func TestGetCurrentUser(t *testing.T) {
	ctx := testContext("/")

	_, err := GetCurrentUserID(ctx)
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	ctx.Set(types.ContextUserKey, "not a user")
	_, err = GetCurrentUserID(ctx)
	assert.ErrorIs(t, err, ErrBadContextUser)

	ctx.Set(types.ContextUserKey, middleware.AuthenticatedUser{})
	_, err = GetCurrentUserID(ctx)
	assert.ErrorIs(t, err, ErrBadContextUser)

	ctx.Set(types.ContextUserKey, middleware.AuthenticatedUser{ID: 4, Name: "A", Email: "a@example.com"})
	user, err := GetCurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", user.Email)

	id, err := GetCurrentUserID(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint(4), id)
}

func TestGetIDParam(t *testing.T) {
	ctx := testContext("/")
	ctx.Params = gin.Params{{Key: "id", Value: "12"}, {Key: "bad", Value: "x1"}, {Key: "zero", Value: "0"}}

	id, err := GetIDParam(ctx, "id")
	require.NoError(t, err)
	assert.Equal(t, uint(12), id)

	for _, name := range []string{"bad", "zero", "missing"} {
		_, err := GetIDParam(ctx, name)
		assert.Error(t, err, name)
	}
}

func TestGetOptionalIDQuery(t *testing.T) {
	id, err := GetOptionalIDQuery(testContext("/?projectId=7"), "projectId")
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, uint(7), *id)

	id, err = GetOptionalIDQuery(testContext("/"), "projectId")
	require.NoError(t, err)
	assert.Nil(t, id)

	_, err = GetOptionalIDQuery(testContext("/?projectId=-1"), "projectId")
	assert.Error(t, err)
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-01-01")
	require.NoError(t, err)
	assert.True(t, d.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))

	d, err = ParseDate("2025-03-04T10:30:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, 8, d.UTC().Hour())

	d, err = ParseDate(" ")
	require.NoError(t, err)
	assert.Nil(t, d)

	_, err = ParseDate("01/02/2025")
	assert.Error(t, err)
}
