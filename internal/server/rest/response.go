package rest

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/dashkeeper/internal/common"
	"github.com/dmitrijs2005/dashkeeper/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

const msgInternal = "Internal Server Error"

// envelopeStatus maps a domain error kind to the status reported in the body.
var envelopeStatus = []struct {
	kind   error
	status int
}{
	{common.ErrorNotFound, http.StatusConflict},
	{common.ErrorAlreadyExists, http.StatusConflict},
	{common.ErrorValidation, http.StatusBadRequest},
	{common.ErrorAuthentication, http.StatusUnauthorized},
	{common.ErrorResource, http.StatusNotFound},
	{common.ErrorExpired, http.StatusGone},
}

func success(c *gin.Context, body gin.H) {
	if body == nil {
		body = gin.H{}
	}
	body["success"] = true
	c.JSON(http.StatusOK, body)
}

// respondError writes err as a {status, message} envelope. Classified errors
// travel with transport status 200; a rejected token is a plain 403.
func respondError(c *gin.Context, log logging.Logger, err error) {
	respondErrorWith(c, log, err, http.StatusOK)
}

// respondErrorWith is respondError with the transport status used for
// classified errors.
func respondErrorWith(c *gin.Context, log logging.Logger, err error, transport int) {
	if errors.Is(err, common.ErrorUnauthorized) {
		c.JSON(http.StatusForbidden, gin.H{"message": common.Message(err, msgInternal)})
		return
	}

	for _, e := range envelopeStatus {
		if errors.Is(err, e.kind) {
			c.JSON(transport, gin.H{"status": e.status, "message": common.Message(err, err.Error())})
			return
		}
	}

	log.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"status": http.StatusInternalServerError, "message": msgInternal})
}

// bindJSON decodes the request body into req and reports binding failures as
// validation errors. An empty body decodes to the zero value.
func bindJSON(c *gin.Context, req any) error {
	if c.Request.ContentLength == 0 {
		return bindingValidate(req)
	}
	if err := c.ShouldBindJSON(req); err != nil {
		return bindError(err)
	}
	return nil
}

func bindingValidate(req any) error {
	if err := validate(req); err != nil {
		return bindError(err)
	}
	return nil
}

func bindError(err error) error {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		fe := ve[0]
		if fe.Tag() == "required" {
			return common.Validation(fe.Field() + " is required.")
		}
		return common.Validation(fe.Field() + " is invalid.")
	}
	return common.Validation("malformed request body.")
}
