package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/authgard/authgard/pkg/errors"
	"github.com/authgard/authgard/pkg/response"
)

// Health returns a simple status payload useful for readiness checks.
func Health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			response.Error(c, errors.ErrInternalServer.WithInternal(err))
			return
		}

		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	}
}
