package handler

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/theater-booking/internal/service/booking"
)

const timestampLayout = "2006-01-02 15:04:05"

// Responder writes the JSON envelopes every endpoint uses:
//
//	{"success": true, "data": ...}
//	{"success": false, "error": "...", "data": <status>, "timestamp": "YYYY-MM-DD HH:MM:SS"}
//
// Timestamps are rendered in the reference timezone.
type Responder struct {
	loc *time.Location
	now func() time.Time
}

// NewResponder returns a Responder stamping errors in loc (UTC when nil).
func NewResponder(loc *time.Location) Responder {
	if loc == nil {
		loc = time.UTC
	}
	return Responder{loc: loc, now: time.Now}
}

func (r Responder) ok(c echo.Context, status int, data any) error {
	return c.JSON(status, echo.Map{"success": true, "data": data})
}

func (r Responder) fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{
		"success":   false,
		"error":     msg,
		"data":      status,
		"timestamp": r.timestamp(),
	})
}

func (r Responder) timestamp() string {
	now, loc := time.Now, r.loc
	if r.now != nil {
		now = r.now
	}
	if loc == nil {
		loc = time.UTC
	}
	return now().In(loc).Format(timestampLayout)
}

// failErr maps a service error to its status.  Unclassified errors become
// a 500 with a generic message.
func (r Responder) failErr(c echo.Context, err error) error {
	var de *booking.Error
	if !errors.As(err, &de) {
		return r.fail(c, http.StatusInternalServerError, "internal server error")
	}
	return r.fail(c, statusFor(de.Kind), de.Message)
}

// HTTPErrorHandler renders errors that never reached a handler (unknown
// routes, middleware denials, panics) in the failure envelope.
func (r Responder) HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg, ok := he.Message.(string)
		if !ok {
			msg = http.StatusText(he.Code)
		}
		_ = r.fail(c, he.Code, msg)
		return
	}
	_ = r.failErr(c, err)
}

func statusFor(k booking.Kind) int {
	switch k {
	case booking.KindNotFound:
		return http.StatusNotFound
	case booking.KindConflict:
		return http.StatusConflict
	case booking.KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Validator adapts go-playground/validator to echo.Validator.  Field names
// in messages use the json tag.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{v: v}
}

// Validate implements echo.Validator.
func (cv *Validator) Validate(i any) error {
	err := cv.v.Struct(i)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s must have at least %s item(s)", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be >= %s", field, fe.Param())
	case "uuid":
		return field + " must be a UUID"
	case "datetime":
		return fmt.Sprintf("%s must match %s", field, fe.Param())
	}
	return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
}

// bindAndValidate decodes the request body into dst and validates it.  The
// returned message is safe to show to clients.
func bindAndValidate(c echo.Context, dst any) (string, bool) {
	if err := c.Bind(dst); err != nil {
		return "invalid request body", false
	}
	if err := c.Validate(dst); err != nil {
		return err.Error(), false
	}
	return "", true
}
