package errors

import (
	"errors"

	"github.com/gin-gonic/gin"
)

const ContentTypeProblemJSON = "application/problem+json"

// ErrorMapper translates an application error into a problem. The boolean
// reports whether the mapper recognised the error.
type ErrorMapper func(err error) (ProblemDetail, bool)

// Responder writes problems and aborts the gin chain.
type Responder struct {
	mappers []ErrorMapper
}

func NewResponder(mappers ...ErrorMapper) *Responder {
	return &Responder{mappers: mappers}
}

// Respond writes problem with the problem+json media type. Instance defaults to
// the request path.
func (r *Responder) Respond(c *gin.Context, problem ProblemDetail) {
	if problem.Instance == "" {
		problem.Instance = c.Request.URL.Path
	}
	c.Header("Content-Type", ContentTypeProblemJSON)
	c.AbortWithStatusJSON(problem.Status, problem)
}

// RespondError tries the mappers in order, then falls back to a 500.
func (r *Responder) RespondError(c *gin.Context, err error) {
	var problem ProblemDetail
	if errors.As(err, &problem) {
		r.Respond(c, problem)
		return
	}
	for _, mapper := range r.mappers {
		if p, ok := mapper(err); ok {
			r.Respond(c, p)
			return
		}
	}
	r.Respond(c, ErrInternal.WithDetail(err.Error()))
}

func (r *Responder) BadRequest(c *gin.Context, detail string) {
	r.Respond(c, ErrBadRequest.WithDetail(detail))
}

func (r *Responder) ValidationFailed(c *gin.Context, fieldErrors map[string]string) {
	r.Respond(c, NewValidationProblem(fieldErrors))
}
