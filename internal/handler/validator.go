package handler

import (
    "errors"
    "net/http"
    "reflect"
    "strings"

    "github.com/go-playground/validator/v10"
    "github.com/labstack/echo/v4"
)

// RequestValidator plugs go-playground/validator into echo.  Field errors
// are reported under their json names.
type RequestValidator struct {
    v *validator.Validate
}

func NewValidator() *RequestValidator {
    v := validator.New(validator.WithRequiredStructEnabled())
    v.RegisterTagNameFunc(func(f reflect.StructField) string {
        name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
        if name == "-" {
            return ""
        }
        return name
    })
    return &RequestValidator{v: v}
}

// Validate implements echo.Validator.
func (rv *RequestValidator) Validate(i interface{}) error {
    return rv.v.Struct(i)
}

func fieldMessage(fe validator.FieldError) string {
    switch fe.Tag() {
    case "required":
        return "Missing data for required field."
    case "email":
        return "Not a valid email address."
    case "gte":
        return "Must be greater than or equal to " + fe.Param() + "."
    case "min":
        return "Must not be empty."
    case "max":
        return "Longer than maximum length " + fe.Param() + "."
    }
    return "Invalid value."
}

// fieldErrors flattens a validation failure into json field -> message,
// keeping the first problem per field.
func fieldErrors(err error) map[string]string {
    out := map[string]string{}
    var ves validator.ValidationErrors
    if !errors.As(err, &ves) {
        out["_schema"] = "Invalid input."
        return out
    }
    for _, fe := range ves {
        if _, seen := out[fe.Field()]; !seen {
            out[fe.Field()] = fieldMessage(fe)
        }
    }
    return out
}

// firstFieldError returns the first failing field in struct order.
func firstFieldError(err error) (validator.FieldError, bool) {
    var ves validator.ValidationErrors
    if !errors.As(err, &ves) || len(ves) == 0 {
        return nil, false
    }
    return ves[0], true
}

// invalidField answers 400 for a failed c.Validate.  An absent or empty
// required field gets the missing message when one is given.
func invalidField(c echo.Context, err error, missing func(field string) string) error {
    fe, ok := firstFieldError(err)
    if !ok {
        return invalidBody(c)
    }
    empty := fe.Tag() == "required" || (fe.Tag() == "min" && fe.Param() == "1")
    if empty && missing != nil {
        return message(c, http.StatusBadRequest, missing(fe.Field()))
    }
    return message(c, http.StatusBadRequest, fe.Field()+": "+fieldMessage(fe))
}
