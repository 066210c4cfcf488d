package middleware

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/bilgisen/newsdesk/internal/logger"
)

// QueryParamsKey is the Locals key holding validated query parameters.
const QueryParamsKey = "queryParams"

// Validator is a struct that holds the validator instance
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{validate: validator.New()}
}

// Validate validates the struct against its validate tags
func (v *Validator) Validate(s interface{}) error {
	return v.validate.Struct(s)
}

// ValidateQueryParams parses the query string into a fresh value from newParams
// and validates it. The result is stored under QueryParamsKey.
func ValidateQueryParams(newParams func() interface{}) fiber.Handler {
	v := NewValidator()

	return func(c *fiber.Ctx) error {
		params := newParams()
		if err := c.QueryParser(params); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid query parameters",
				"msg":   err.Error(),
			})
		}

		if err := v.Validate(params); err != nil {
			var verrs validator.ValidationErrors
			if !errors.As(err, &verrs) {
				return err
			}
			fields := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				fields[fe.Field()] = fe.Tag()
			}

			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":  "Invalid query parameters",
				"fields": fields,
			})
		}

		c.Locals(QueryParamsKey, params)
		return c.Next()
	}
}

// ErrorHandler renders errors that escape the handlers as JSON
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}

	logger.Get().Error().
		Err(err).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Int("status", code).
		Msg("HTTP error")

	return c.Status(code).JSON(fiber.Map{
		"error": http.StatusText(code),
	})
}
