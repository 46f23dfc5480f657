package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	appErrors "github.com/authgard/authgard/pkg/errors"
)

func performRequest(t *testing.T, handler gin.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	handler(c)
	return w
}

func TestSuccess(t *testing.T) {
	w := performRequest(t, func(c *gin.Context) {
		Success(c, http.StatusCreated, gin.H{"id": "abc"})
	})

	require.Equal(t, http.StatusCreated, w.Code)

	var body Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.True(t, body.Success)
	require.Nil(t, body.Error)
}

func TestErrorWithAppError(t *testing.T) {
	w := performRequest(t, func(c *gin.Context) {
		Error(c, appErrors.ErrDuplicateUser)
	})

	require.Equal(t, http.StatusConflict, w.Code)

	var body Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.False(t, body.Success)
	require.Equal(t, "DUPLICATE_USER", body.Error.Code)
}

func TestErrorHidesInternalDetails(t *testing.T) {
	w := performRequest(t, func(c *gin.Context) {
		Error(c, errors.New("pq: connection refused"))
	})

	require.Equal(t, http.StatusInternalServerError, w.Code)

	var body Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, appErrors.ErrInternalServer.Code, body.Error.Code)
	require.NotContains(t, body.Error.Message, "connection refused")
}

func TestErrorNilDefaults(t *testing.T) {
	w := performRequest(t, func(c *gin.Context) {
		Error(c, nil)
	})
	require.Equal(t, http.StatusInternalServerError, w.Code)
}
