package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/GariBroman/osminog/internal/logger"
	"github.com/GariBroman/osminog/internal/pkg/apperror"
)

// ErrorHandler обрабатывает ошибки централизованно. Внутренние ошибки
// маскируются, наружу уходят только сообщения AppError.
func ErrorHandler() gin.HandlerFunc {
	log := logger.WithComponent("http")

	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		log.WithFields(logrus.Fields{
			"error":  err.Error(),
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		}).Error("ошибка запроса")

		status := http.StatusInternalServerError
		message := "внутренняя ошибка сервера"

		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			status = appErr.HTTPStatus
			message = appErr.Message
		}

		c.JSON(status, gin.H{"error": message})
	}
}
