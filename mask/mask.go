// Package mask flattens structs into ordered maps for logging, hiding the
// values of fields tagged with `mask`.
//
//	Password string `mask:"true"` // replaced with a placeholder
//	DSN      string `mask:"url"`  // only the URL password is replaced
//
// Keys are dotted paths built from json tags, then yaml tags, then field names.
package mask

import (
	"fmt"
	"net/url"
	"reflect"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

const (
	tagName = "mask"

	modeAll = "true"
	modeURL = "url"
)

// OrdMap is the result of StructToOrdMap. It marshals to JSON in field order.
type OrdMap = orderedmap.OrderedMap[string, any]

// StructToOrdMap returns the fields of v with masked values hidden. Non-struct
// values are returned under the empty key.
func StructToOrdMap(v any) *OrdMap {
	if v == nil {
		return nil
	}
	om := orderedmap.New[string, any]()
	flatten(om, reflect.ValueOf(v), "")
	return om
}

func flatten(om *OrdMap, val reflect.Value, prefix string) {
	if val.Kind() == reflect.Pointer {
		if val.IsNil() {
			om.Set(prefix, nil)
			return
		}
		val = val.Elem()
	}

	if val.Kind() != reflect.Struct {
		om.Set(prefix, val.Interface())
		return
	}

	typ := val.Type()
	for i := range val.NumField() {
		sf := typ.Field(i)
		if !sf.IsExported() {
			continue
		}

		name, skip := fieldName(sf)
		if skip {
			continue
		}
		if prefix != "" {
			name = prefix + "." + name
		}

		field := val.Field(i)
		switch mode := strings.ToLower(sf.Tag.Get(tagName)); {
		case mode == modeAll:
			om.Set(name, hide(field))
		case mode == modeURL:
			om.Set(name, hideURLPassword(field))
		case expandable(field):
			flatten(om, field, name)
		default:
			om.Set(name, field.Interface())
		}
	}
}

func expandable(val reflect.Value) bool {
	if val.Kind() == reflect.Pointer {
		return !val.IsNil() && val.Elem().Kind() == reflect.Struct
	}
	return val.Kind() == reflect.Struct
}

// hide keeps nil and zero values visible so that missing settings stay obvious.
func hide(val reflect.Value) any {
	switch val.Kind() { //nolint:exhaustive // other kinds are never nil
	case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Interface:
		if val.IsNil() {
			return nil
		}
	}
	if val.Kind() == reflect.Pointer {
		val = val.Elem()
	}
	if val.IsZero() {
		return val.Interface()
	}
	return fmt.Sprintf("***masked-%s***", placeholder(val.Kind()))
}

func placeholder(kind reflect.Kind) string {
	switch kind { //nolint:exhaustive // default covers the rest
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "int"
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "uint"
	case reflect.Float32, reflect.Float64:
		return "float"
	case reflect.Slice, reflect.Array:
		return "slice"
	default:
		return kind.String()
	}
}

func hideURLPassword(val reflect.Value) any {
	if val.Kind() != reflect.String || val.Len() == 0 {
		return hide(val)
	}
	u, err := url.Parse(val.String())
	if err != nil || u.User == nil {
		return hide(val)
	}
	return u.Redacted()
}

// fieldName returns the key for sf and whether the field is excluded.
func fieldName(sf reflect.StructField) (string, bool) {
	for _, key := range []string{"json", "yaml"} {
		tag, ok := sf.Tag.Lookup(key)
		if !ok {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")
		if name == "-" {
			return "", true
		}
		if name != "" {
			return name, false
		}
	}
	return sf.Name, false
}
