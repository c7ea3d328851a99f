package http

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Respaldo-api/internal/application/dto"
)

// validate instancia compartida (el validador cachea la metadata de cada struct).
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Los errores se reportan con el nombre JSON del campo.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// parseBody decodifica el cuerpo (vacío = valores por defecto) y lo valida.
// Si devuelve false ya escribió la respuesta 400.
func parseBody(c *fiber.Ctx, out any) (bool, error) {
	if len(c.Body()) > 0 {
		if err := c.BodyParser(out); err != nil {
			return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
		}
	}
	if err := validate.Struct(out); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(validationResponse(err))
	}
	return true, nil
}

func validationResponse(err error) dto.ValidationErrorResponse {
	resp := dto.ValidationErrorResponse{Code: "VALIDATION", Message: "datos inválidos"}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		resp.Message = err.Error()
		return resp
	}
	resp.Fields = make(map[string]string, len(verrs))
	for _, fe := range verrs {
		resp.Fields[fe.Field()] = describe(fe)
	}
	return resp
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "es requerido"
	case "min":
		return fmt.Sprintf("debe ser al menos %s", fe.Param())
	case "max":
		return fmt.Sprintf("debe ser como máximo %s", fe.Param())
	case "email":
		return "debe ser un email válido"
	default:
		return fmt.Sprintf("no cumple %s", fe.Tag())
	}
}
