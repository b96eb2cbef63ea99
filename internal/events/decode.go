package events

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"crowdhook/internal/types"
)

// validate is shared across requests; validator instances are safe for
// concurrent use. Field names are reported by their JSON tag.
var validate = newValidator()

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

// Decode parses an inbound webhook body. Structural problems (invalid JSON, a
// required field missing, a field of the wrong JSON type) yield a
// *types.AppError with code ErrCodeValidationMalformedPayload. Optional fields
// that are absent decode to nil and never fail.
func Decode(body []byte) (*WebhookEvent, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, malformed("request body must not be empty", nil, nil)
	}

	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, mapDecodeError(err)
	}

	if err := validate.Struct(&event); err != nil {
		return nil, mapValidationError(err)
	}

	return &event, nil
}

// Encode is the reference encoder for WebhookEvent. Decode(Encode(e)) yields a
// value equal to e.
func Encode(event *WebhookEvent) ([]byte, error) {
	if event == nil {
		return nil, fmt.Errorf("encode webhook event: event is nil")
	}
	return json.Marshal(event)
}

func malformed(message string, err error, details map[string]any) *types.AppError {
	if details == nil {
		return types.NewAppError(types.ErrCodeValidationMalformedPayload, message, err)
	}
	return types.NewAppErrorWithDetails(types.ErrCodeValidationMalformedPayload, message, err, details)
}

// mapDecodeError translates a json.Unmarshal error into a malformed-payload error.
func mapDecodeError(err error) *types.AppError {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return malformed("malformed JSON in request body", err, map[string]any{
			"offset": syntaxErr.Offset,
		})
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return malformed("invalid value for field", err, map[string]any{
			"field":    typeErr.Field,
			"expected": typeErr.Type.String(),
		})
	}

	return malformed("invalid JSON in request body", err, nil)
}

// mapValidationError reports every missing required field by its JSON path.
func mapValidationError(err error) *types.AppError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return malformed("payload validation failed", err, nil)
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, jsonPath(fe.Namespace()))
	}

	return malformed(
		"missing required field: "+strings.Join(fields, ", "),
		err,
		map[string]any{"fields": fields},
	)
}

// jsonPath strips the root type name from a validator namespace
// ("WebhookEvent.data.attributes.key" -> "data.attributes.key").
func jsonPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}
