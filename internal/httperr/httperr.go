package httperr

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HTTPError é o corpo padrão de erro da API.
type HTTPError struct {
	Code    string `json:"error_code"`
	Message string `json:"message"`
}

func Write(c *gin.Context, status int, code, message string) {
	c.JSON(status, HTTPError{Code: code, Message: message})
}

// Abort escreve o erro e interrompe a cadeia de middlewares.
func Abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, HTTPError{Code: code, Message: message})
}

func BadRequest(c *gin.Context, code, message string) {
	Write(c, http.StatusBadRequest, code, message)
}

func Internal(c *gin.Context, code, message string) {
	Write(c, http.StatusInternalServerError, code, message)
}

func Unauthorized(c *gin.Context, code, message string) {
	Abort(c, http.StatusUnauthorized, code, message)
}
