package http

import (
	"encoding/json"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"rentalshop-backend/internal/domain"
)

var validate = newValidator()

// newValidator reports fields by their json names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decode reads a JSON body into dst and validates it.
func decode(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return domain.Invalid("body", "malformed JSON: %v", err)
	}
	return validate.Struct(dst)
}

// decodeOptional is decode for endpoints whose body may be left out.
func decodeOptional(r *http.Request, dst interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return validate.Struct(dst)
	}
	return decode(r, dst)
}

func pathID(r *http.Request, name string) (int32, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || id <= 0 {
		return 0, domain.Invalid(name, "%q is not a valid id", raw)
	}
	return int32(id), nil
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.Invalid(name, "%q is not a number", raw)
	}
	return n, nil
}

func pagination(r *http.Request) (int32, int32, error) {
	page, err := queryInt(r, "page", 1)
	if err != nil {
		return 0, 0, err
	}
	size, err := queryInt(r, "page_size", 50)
	if err != nil {
		return 0, 0, err
	}
	if page < 1 || size < 1 || size > 200 {
		return 0, 0, domain.Invalid("page_size", "page must be >= 1 and page_size between 1 and 200")
	}
	return int32(page), int32(size), nil
}

func requireQuery(r *http.Request, names ...string) error {
	for _, name := range names {
		if r.URL.Query().Get(name) == "" {
			return domain.Invalid(name, "query parameter is required")
		}
	}
	return nil
}
