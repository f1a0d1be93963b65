package validate

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/artfolio/engagement-service/internal/domain"
)

var v = validator.New(validator.WithRequiredStructEnabled())

func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return domain.ErrValidation("invalid json body")
	}
	return Struct(dst)
}

// Struct runs the tag validators and converts failures into the
// field-keyed meta map the error envelope carries.
func Struct(dst any) error {
	err := v.Struct(dst)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return domain.ErrValidation("invalid body")
	}

	meta := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		meta[strings.ToLower(fe.Field())] = ruleMessage(fe)
	}
	return domain.ErrValidationMeta("invalid body", meta)
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_unless":
		return "required"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "min":
		return "must be >= " + fe.Param()
	case "max":
		return "too long"
	default:
		return "invalid"
	}
}
