package bizerror

import (
	"appbase/common"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jinzhu/gorm"
	"github.com/sirupsen/logrus"
)

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
		c.JSON(respond.Status, &common.ErrorBody{Code: respond.Code, Message: respond.Message, Data: respond.Data})
		c.Abort()
		return
	}

	// bad request: io.EOF (no body)
	if errors.Is(genericErr, io.EOF) {
		c.JSON(http.StatusBadRequest, &common.ErrorBody{Code: "common.bad_param", Message: "EOF"})
		c.Abort()
		return
	}
	// bad request: json syntax error
	if syntaxErr, ok := genericErr.(*json.SyntaxError); ok {
		c.JSON(http.StatusBadRequest, &common.ErrorBody{Code: "bad_request.invalid_body_format", Message: "invalid body format", Data: syntaxErr.Error()})
		c.Abort()
		return
	}
	// validation failed
	if validationErr, ok := genericErr.(validator.ValidationErrors); ok {
		c.JSON(http.StatusBadRequest, &common.ErrorBody{Code: "bad_request.validation_failed", Message: "validation failed", Data: validationErr.Error()})
		c.Abort()
		return
	}

	if errors.Is(genericErr, ErrUnauthenticated) {
		c.JSON(http.StatusUnauthorized, &common.ErrorBody{Code: "common.unauthenticated", Message: "unauthenticated"})
		c.Abort()
		return
	}
	if errors.Is(genericErr, ErrForbidden) {
		c.JSON(http.StatusForbidden, &common.ErrorBody{Code: "security.forbidden", Message: "access forbidden"})
		c.Abort()
		return
	}
	if errors.Is(genericErr, ErrInvalidPassword) {
		c.JSON(http.StatusUnauthorized, &common.ErrorBody{Code: "security.invalid_password", Message: "invalid password"})
		c.Abort()
		return
	}
	if errors.Is(genericErr, ErrEmailExisted) {
		c.JSON(http.StatusBadRequest, &common.ErrorBody{Code: "account.email_existed", Message: "email existed"})
		c.Abort()
		return
	}
	if errors.Is(genericErr, ErrTooManyRequests) {
		c.JSON(http.StatusTooManyRequests, &common.ErrorBody{Code: "common.too_many_requests", Message: "too many requests"})
		c.Abort()
		return
	}
	if errors.Is(genericErr, ErrAppIsReferenced) {
		c.JSON(http.StatusBadRequest, &common.ErrorBody{Code: "app.referenced", Message: "app is referenced by records"})
		c.Abort()
		return
	}
	if errors.Is(genericErr, ErrProcessDisabled) {
		c.JSON(http.StatusBadRequest, &common.ErrorBody{Code: "process.disabled", Message: "process management is disabled"})
		c.Abort()
		return
	}
	if errors.Is(genericErr, ErrUnknownAction) {
		c.JSON(http.StatusBadRequest, &common.ErrorBody{Code: "process.unknown_action", Message: "action is not allowed from current status"})
		c.Abort()
		return
	}
	if errors.Is(genericErr, ErrUnknownStatus) {
		c.JSON(http.StatusBadRequest, &common.ErrorBody{Code: "process.unknown_status", Message: "target status is not defined in process settings"})
		c.Abort()
		return
	}
	if errors.Is(genericErr, ErrProcessInvalid) {
		c.JSON(http.StatusBadRequest, &common.ErrorBody{Code: "process.invalid_settings", Message: "process settings are invalid"})
		c.Abort()
		return
	}
	if errors.Is(genericErr, ErrAssigneeRequired) {
		c.JSON(http.StatusBadRequest, &common.ErrorBody{Code: "process.assignee_required", Message: "next assignee is required for single-select status"})
		c.Abort()
		return
	}
	if errors.Is(genericErr, ErrAssigneeNotCandidate) {
		c.JSON(http.StatusBadRequest, &common.ErrorBody{Code: "process.assignee_not_candidate", Message: "next assignee is not in candidate assignees"})
		c.Abort()
		return
	}
	if errors.Is(genericErr, gorm.ErrRecordNotFound) || errors.Is(genericErr, ErrNotFound) {
		c.JSON(http.StatusNotFound, &common.ErrorBody{Code: "common.record_not_found", Message: "record not found"})
		c.Abort()
		return
	}

	c.JSON(http.StatusInternalServerError, &common.ErrorBody{Code: "common.internal_server_error", Message: err.Error()})
	c.Abort()
}
