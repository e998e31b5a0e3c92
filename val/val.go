// Package val provides request schema validation on top of go-playground/validator.
package val

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate //nolint:gochecknoglobals // shared validator caches struct metadata

func init() { //nolint:gochecknoinits // validator must be ready before the first request
	validate = validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(getTagName)
}

// getTagName returns the name of a struct field as the client sees it.
// It checks 'json', 'form', 'query' and 'params' tags in that order and falls
// back to the Go field name.
func getTagName(fld reflect.StructField) string {
	for _, tagName := range []string{"json", "form", "query", "params"} {
		name := strings.SplitN(fld.Tag.Get(tagName), ",", 2)[0] //nolint:mnd // name,options
		if name != "" && name != "-" {
			return name
		}
	}

	return fld.Name
}
