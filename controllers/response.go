// Package controllers adapts HTTP requests to the services.
package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"hostelgrievance-be/apperrors"
	"hostelgrievance-be/middlewares"
	"hostelgrievance-be/services"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// respondError renders err as {"error": message}. Unclassified errors are
// logged and reported as a generic 500.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "Invalid input",
			"fields": fieldErrors(verrs),
		})
		return
	}

	if appErr, ok := apperrors.As(err); ok {
		status := appErr.HTTPStatus()
		if status >= http.StatusInternalServerError {
			logger.Error("request failed", "path", c.FullPath(), "code", appErr.Code, "error", err)
		}
		c.JSON(status, gin.H{"error": appErr.Message})
		return
	}

	logger.Error("unhandled error", "path", c.FullPath(), "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
}

// fieldErrors maps each failing field to the rule it broke.
func fieldErrors(verrs validator.ValidationErrors) map[string]string {
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		name := fe.Field()
		if name != "" {
			name = strings.ToLower(name[:1]) + name[1:]
		}
		switch fe.Tag() {
		case "required":
			fields[name] = "is required"
		case "min":
			fields[name] = "must be at least " + fe.Param() + " characters"
		case "max":
			fields[name] = "must be at most " + fe.Param() + " characters"
		case "email":
			fields[name] = "must be a valid email"
		case "oneof":
			fields[name] = "must be one of " + fe.Param()
		default:
			fields[name] = "is invalid"
		}
	}
	return fields
}

// bindJSON decodes the body into dst and writes the error response on
// failure.
func bindJSON(c *gin.Context, logger *slog.Logger, dst any) bool {
	return checkBind(c, logger, c.ShouldBindJSON(dst))
}

// bindForm is bindJSON for handlers that also accept multipart forms.
func bindForm(c *gin.Context, logger *slog.Logger, dst any) bool {
	return checkBind(c, logger, c.ShouldBind(dst))
}

func checkBind(c *gin.Context, logger *slog.Logger, err error) bool {
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		respondError(c, logger, err)
		return false
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
	return false
}

// objectIDParam parses a path parameter as an ObjectID.
func objectIDParam(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": apperrors.ErrInvalidID.Message})
		return primitive.NilObjectID, false
	}
	return id, true
}

// callerOrAbort returns the authenticated caller. Routes always run
// AuthMiddleware first, so a missing caller is a wiring bug.
func callerOrAbort(c *gin.Context) (services.Caller, bool) {
	caller, ok := middlewares.CallerFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return services.Caller{}, false
	}
	return caller, true
}
