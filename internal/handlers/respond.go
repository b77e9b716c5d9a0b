package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"employee-directory/internal/models"
	"employee-directory/internal/password"
	"employee-directory/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/sirupsen/logrus"
)

var registerOnce sync.Once

// RegisterValidators adds the "notblank" and "pwbytes" tags to gin's
// validator and makes it report fields by their json names.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("notblank", validators.NotBlank)
		_ = v.RegisterValidation("pwbytes", passwordBytes)
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
}

// passwordBytes limits a password to what bcrypt can hash.
func passwordBytes(fl validator.FieldLevel) bool {
	return len(fl.Field().String()) <= password.MaxBytes
}

var passwordTooLong = fmt.Sprintf("Password must be at most %d bytes", password.MaxBytes)

// respondError logs err and writes the matching envelope.
func respondError(c *gin.Context, log *logrus.Entry, err error) {
	switch {
	case errors.Is(err, services.ErrEmployeeNotFound):
		log.WithError(err).Warn("Employee not found")
		c.JSON(http.StatusNotFound, models.Error(http.StatusNotFound, err.Error()))
	case errors.Is(err, services.ErrDuplicateEmail):
		log.WithError(err).Warn("Duplicate email")
		c.JSON(http.StatusBadRequest, models.Error(http.StatusBadRequest, err.Error()))
	case errors.Is(err, password.ErrTooLong):
		log.WithError(err).Warn("Password too long")
		c.JSON(http.StatusBadRequest, models.Error(http.StatusBadRequest, passwordTooLong))
	case errors.Is(err, services.ErrCSVFormat):
		log.WithError(err).Warn("Upload rejected")
		c.JSON(http.StatusBadRequest, models.Error(http.StatusBadRequest, "CSV upload failed: "+err.Error()))
	default:
		log.WithError(err).Error("Unexpected error")
		c.JSON(http.StatusInternalServerError, models.Error(http.StatusInternalServerError, "Internal server error"))
	}
}

// respondBindError writes a 400 for a request body that failed to bind.
// Validation failures carry a field to message map.
func respondBindError(c *gin.Context, log *logrus.Entry, err error) {
	fields := map[string]string{}
	collectFieldErrors(fields, "", err)
	respondFieldErrors(c, log, err, fields)
}

// respondBatchBindError reports validation failures of a batch body keyed
// by element index, e.g. "[2].email".
func respondBatchBindError(c *gin.Context, log *logrus.Entry, err error, items []models.CreateEmployeeRequest) {
	fields := map[string]string{}
	var sliceErr binding.SliceValidationError
	if errors.As(err, &sliceErr) {
		for i := range items {
			if verr := binding.Validator.ValidateStruct(items[i]); verr != nil {
				collectFieldErrors(fields, fmt.Sprintf("[%d].", i), verr)
			}
		}
	}
	respondFieldErrors(c, log, err, fields)
}

func respondFieldErrors(c *gin.Context, log *logrus.Entry, err error, fields map[string]string) {
	log.WithError(err).Warn("Invalid request body")
	if len(fields) == 0 {
		c.JSON(http.StatusBadRequest, models.Error(http.StatusBadRequest, "Malformed request body"))
		return
	}
	c.JSON(http.StatusBadRequest, models.APIResponse{
		Code:    http.StatusBadRequest,
		Message: "Validation failed",
		Data:    fields,
	})
}

func collectFieldErrors(fields map[string]string, prefix string, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return
	}
	for _, fe := range verrs {
		fields[prefix+fe.Field()] = fieldMessage(fe)
	}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return capitalize(fe.Field()) + " is required"
	case "email":
		return "Invalid email format"
	case "pwbytes":
		return passwordTooLong
	}
	return capitalize(fe.Field()) + " is invalid"
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
