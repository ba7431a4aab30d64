package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/justestif/go-image-to-song/internal/logging"
	"github.com/justestif/go-image-to-song/internal/preferences"
)

// maxJSONBody bounds JSON request bodies.
const maxJSONBody = 1 << 20

// Response is the envelope for every API response.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func init() {
	// Report JSON field names in validation errors.
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, resp Response) {
	body, err := json.Marshal(resp)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("encoding response")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"success":false,"error":"error encoding response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}

func respondData(w http.ResponseWriter, r *http.Request, message string, data any) {
	writeJSON(w, r, http.StatusOK, Response{Success: true, Message: message, Data: data})
}

func respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, r, status, Response{Success: false, Error: message})
}

// decodeJSON reads a JSON body into dst and validates it. Failures are
// returned as *preferences.ValidationError.
func decodeJSON(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxJSONBody+1))
	if err != nil {
		return &preferences.ValidationError{Field: "body", Message: "could not read request body"}
	}
	if len(body) > maxJSONBody {
		return &preferences.ValidationError{Field: "body", Message: "request body too large"}
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return &preferences.ValidationError{Field: "body", Message: fmt.Sprintf("invalid JSON: %v", err)}
	}
	return validateStruct(dst)
}

// validateStruct runs struct-tag validation and reports the first failure.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &preferences.ValidationError{Field: "body", Message: err.Error()}
	}
	fe := verrs[0]
	return &preferences.ValidationError{Field: fieldPath(fe), Message: tagMessage(fe)}
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must have at least " + fe.Param() + " item(s)"
	case "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of " + fe.Param()
	default:
		return "failed " + fe.Tag() + " validation"
	}
}
