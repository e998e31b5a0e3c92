package cfgloader

import (
	"fmt"
	"log/slog"
	"net/url"
	"reflect"

	"gopkg.in/yaml.v3"
)

const (
	maskTag = "mask"

	// maskAll hides the whole value.
	maskAll = "true"
	// maskURL hides only the password part of a connection URL.
	maskURL = "url"

	maskedValue = "******"
)

func printConfig(config any) {
	out, err := yaml.Marshal(maskStruct(config))
	if err != nil {
		slog.Error("failed to marshal config", "error", err.Error())
		return
	}
	slog.Info(fmt.Sprintf("Loaded config:\n%s", string(out)))
}

// maskStruct returns a copy of cfg in which fields tagged with `mask` are hidden.
func maskStruct(cfg any) any {
	val := reflect.ValueOf(cfg)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	return maskValue(val).Interface()
}

func maskValue(val reflect.Value) reflect.Value {
	if !val.IsValid() {
		return val
	}

	switch val.Kind() { //nolint:exhaustive // only kinds that can hold tagged fields
	case reflect.Ptr:
		if val.IsNil() {
			return val
		}
		ptr := reflect.New(val.Elem().Type())
		ptr.Elem().Set(maskValue(val.Elem()))
		return ptr

	case reflect.Struct:
		masked := reflect.New(val.Type()).Elem()
		for i := range val.NumField() {
			field := val.Type().Field(i)
			if !masked.Field(i).CanSet() {
				continue
			}

			switch field.Tag.Get(maskTag) {
			case maskAll:
				masked.Field(i).Set(hide(val.Field(i)))
			case maskURL:
				masked.Field(i).Set(hideURLPassword(val.Field(i)))
			default:
				masked.Field(i).Set(maskValue(val.Field(i)))
			}
		}
		return masked

	default:
		return val
	}
}

func hide(val reflect.Value) reflect.Value {
	if val.Kind() == reflect.String {
		if val.Len() == 0 {
			return val
		}
		return reflect.ValueOf(maskedValue).Convert(val.Type())
	}
	return reflect.Zero(val.Type())
}

func hideURLPassword(val reflect.Value) reflect.Value {
	if val.Kind() != reflect.String {
		return hide(val)
	}

	u, err := url.Parse(val.String())
	if err != nil || u.User == nil {
		return hide(val)
	}

	return reflect.ValueOf(u.Redacted()).Convert(val.Type())
}
