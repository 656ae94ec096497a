package handlers

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"reflect"
	"strings"
	"todoTracker/internal/service"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// ошибки валидатора называют поля так же, как JSON
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateRequest возвращает первую ошибку в виде VALIDATION_ERROR
func validateRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		switch fe.Tag() {
		case "required":
			return service.NewValidationError(fe.Field(), "поле обязательно")
		case "oneof":
			return service.NewValidationError(fe.Field(), fmt.Sprintf("допустимые значения: %s", fe.Param()))
		default:
			return service.NewValidationError(fe.Field(), fe.Tag())
		}
	}
	return err
}

func checkContentType(r *http.Request, target string) bool {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return false
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}

	return mediaType == target
}
