package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pocket-university-api/internal/middleware"
	"github.com/noah-isme/pocket-university-api/internal/models"
	appErrors "github.com/noah-isme/pocket-university-api/pkg/errors"
	"github.com/noah-isme/pocket-university-api/pkg/response"
)

// actorFromContext returns the session user or writes 401 and reports false.
func actorFromContext(c *gin.Context) (*models.User, bool) {
	actor, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	return actor, true
}

func bindJSON(c *gin.Context, dest interface{}, message string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message))
		return false
	}
	return true
}

// respondOutcome writes data with the operation outcome in meta.
func respondOutcome(c *gin.Context, status int, data interface{}, outcome models.Outcome) {
	middleware.SetOutcome(c, outcome)
	response.JSON(c, status, data, middleware.ExtractMeta(c))
}
