package bizerror

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"launchpad/misc"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jinzhu/gorm"
	"github.com/sirupsen/logrus"
)

const CommonInternalServerError = "common.internal_server_error"

func ErrorHandling() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handle(c)
		c.Next()
	}
}

func handle(c *gin.Context) {
	if ret := recover(); ret != nil {
		err, ok := ret.(error)
		if !ok {
			err = errors.New(fmt.Sprintf("%s", ret))
		}
		HandleError(c, err)
	} else {
		if err := c.Errors.Last(); err != nil {
			HandleError(c, err)
		}
	}
}

func HandleError(c *gin.Context, err error) {
	logrus.Error(err)

	genericErr := err
	var ginErr *gin.Error
	if errors.As(err, &ginErr) {
		genericErr = ginErr.Err
	}

	if bizErr, ok := genericErr.(BizError); ok {
		respond := bizErr.Respond()
		c.JSON(respond.Status, &misc.ErrorBody{Code: respond.Code, Message: respond.Message, Data: respond.Data})
		c.Abort()
		return
	}

	// bad request: io.EOF (no body)
	if errors.Is(genericErr, io.EOF) {
		c.JSON(http.StatusBadRequest, &misc.ErrorBody{Code: "bad_request.body_not_found", Message: "body not found"})
		c.Abort()
		return
	}
	// bad request: json syntax error
	if syntaxErr, ok := genericErr.(*json.SyntaxError); ok {
		c.JSON(http.StatusBadRequest, &misc.ErrorBody{Code: "bad_request.invalid_body_format", Message: "invalid body format", Data: syntaxErr.Error()})
		c.Abort()
		return
	}
	// validation failed
	if validationErr, ok := genericErr.(validator.ValidationErrors); ok {
		c.JSON(http.StatusBadRequest, &misc.ErrorBody{Code: "bad_request.validation_failed", Message: "validation failed", Data: validationErr.Error()})
		c.Abort()
		return
	}

	if errors.Is(genericErr, ErrUnauthenticated) {
		c.JSON(http.StatusUnauthorized, &misc.ErrorBody{Code: "common.unauthenticated", Message: "unauthenticated"})
		c.Abort()
		return
	}
	if errors.Is(genericErr, ErrForbidden) {
		c.JSON(http.StatusForbidden, &misc.ErrorBody{Code: "security.forbidden", Message: "access forbidden"})
		c.Abort()
		return
	}
	if errors.Is(genericErr, ErrInvalidPassword) {
		c.JSON(http.StatusUnauthorized, &misc.ErrorBody{Code: "account.invalid_password", Message: "invalid password"})
		c.Abort()
		return
	}
	if errors.Is(genericErr, ErrLaunchNotPending) {
		c.JSON(http.StatusConflict, &misc.ErrorBody{Code: "moderation.launch_not_pending", Message: "launch is not pending review"})
		c.Abort()
		return
	}
	if errors.Is(genericErr, ErrLaunchNotRejected) {
		c.JSON(http.StatusConflict, &misc.ErrorBody{Code: "moderation.launch_not_rejected", Message: "launch is not rejected"})
		c.Abort()
		return
	}
	if errors.Is(genericErr, ErrLaunchNotOpen) {
		c.JSON(http.StatusConflict, &misc.ErrorBody{Code: "launch.not_open", Message: "launch is not open"})
		c.Abort()
		return
	}
	if errors.Is(genericErr, ErrReasonRequired) {
		c.JSON(http.StatusBadRequest, &misc.ErrorBody{Code: "moderation.reason_required", Message: "rejection reason is required"})
		c.Abort()
		return
	}
	if errors.Is(genericErr, ErrProposalStateInvalid) {
		c.JSON(http.StatusConflict, &misc.ErrorBody{Code: "proposal.state_invalid", Message: "proposal state is invalid"})
		c.Abort()
		return
	}
	if errors.Is(genericErr, ErrFeatureDisabled) {
		c.JSON(http.StatusForbidden, &misc.ErrorBody{Code: "flags.feature_disabled", Message: "feature is disabled"})
		c.Abort()
		return
	}
	if errors.Is(genericErr, ErrNotParticipant) {
		c.JSON(http.StatusForbidden, &misc.ErrorBody{Code: "message.not_participant", Message: "not a conversation participant"})
		c.Abort()
		return
	}
	if errors.Is(genericErr, gorm.ErrRecordNotFound) || errors.Is(genericErr, ErrNotFound) {
		c.JSON(http.StatusNotFound, &misc.ErrorBody{Code: "common.record_not_found", Message: "record not found"})
		c.Abort()
		return
	}

	c.JSON(http.StatusInternalServerError, &misc.ErrorBody{Code: CommonInternalServerError, Message: err.Error()})
	c.Abort()
}
