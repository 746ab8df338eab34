package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/meeting-sync/internal/httperr"
)

// writeError expõe a mensagem de erros 4xx classificados; o resto usa fallback.
func writeError(c *gin.Context, err error, fallback string) {
	message := fallback

	var e *httperr.Error
	if errors.As(err, &e) && e.Err != nil {
		switch e.Kind {
		case httperr.KindNotFound, httperr.KindValidation, httperr.KindPersistenceConflict:
			message = e.Err.Error()
		}
	}

	httperr.FromError(c, err, message)
}
