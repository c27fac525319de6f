package errors

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errSession = errors.New("session id is required")

func serve(t *testing.T, handler gin.HandlerFunc) (*httptest.ResponseRecorder, ProblemDetail) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/v1/cart", handler)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/cart", nil))

	var problem ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	return rec, problem
}

func TestResponder_MapsKnownErrors(t *testing.T) {
	responder := NewResponder(func(err error) (ProblemDetail, bool) {
		if errors.Is(err, errSession) {
			return ErrBadRequest.WithDetail(err.Error()), true
		}
		return ProblemDetail{}, false
	})

	rec, problem := serve(t, func(c *gin.Context) { responder.RespondError(c, errSession) })

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, ContentTypeProblemJSON, rec.Header().Get("Content-Type"))
	assert.Equal(t, TypeBadRequest, problem.Type)
	assert.Equal(t, "/v1/cart", problem.Instance)
}

func TestResponder_FallsBackToInternal(t *testing.T) {
	rec, problem := serve(t, func(c *gin.Context) { NewResponder().RespondError(c, errors.New("boom")) })

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "boom", problem.Detail)
}

func TestResponder_PassesProblemsThrough(t *testing.T) {
	rec, problem := serve(t, func(c *gin.Context) {
		NewResponder().RespondError(c, NewValidationProblem(map[string]string{"amount": "required"}))
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, TypeValidation, problem.Type)
	assert.Equal(t, map[string]any{"amount": "required"}, problem.Extensions["fields"])
}

func TestWithExtension_DoesNotShareMaps(t *testing.T) {
	base := ErrNotFound.WithExtension("a", 1)
	_ = base.WithExtension("b", 2)
	assert.Len(t, base.Extensions, 1)
}
