// Package cfgloader provides a simple way to load and validate configuration at the start of an application.
package cfgloader

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"

	"github.com/code19m/errx"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvProduction = "production"
	EnvStaging    = "staging"
	EnvDev        = "dev"
	EnvLocal      = "local"
	EnvTest       = "test"

	envVarName = "ENVIRONMENT"
)

// MustLoad loads and validates configuration from a YAML file chosen by the
// ENVIRONMENT variable and exits the process on any failure.
//
// The file is ${ConfigDir}/${ENVIRONMENT}.yaml (./config by default). Before
// unmarshalling, ${VAR} references in the file are replaced with environment
// variables, which is how deploy-time values such as DATABASE_URL or PORT
// reach the service. A .env file in the working directory is loaded first if
// present.
//
// Default values come from `default` struct tags (creasty/defaults) and are
// applied after unmarshalling, then the struct is validated with
// go-playground/validator `validate` tags.
func MustLoad[T any](opts ...Option) T {
	config, err := Load[T](opts...)
	if err != nil {
		slog.Error(fmt.Sprintf("[cfgloader]: %s", err.Error()))
		os.Exit(1)
	}
	return config
}

// Load is MustLoad that returns an error instead of exiting.
func Load[T any](opts ...Option) (T, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	var config T
	if reflect.ValueOf(&config).Elem().Kind() == reflect.Ptr {
		return config, errx.New("arg config must not be a pointer")
	}

	_ = godotenv.Load()

	env, err := defineEnvironment()
	if err != nil {
		return config, err
	}

	path := filepath.Join(o.ConfigDir, env+".yaml")
	data, err := readConfigFile(path)
	if err != nil {
		return config, err
	}

	data = []byte(os.ExpandEnv(string(data)))

	if err = yaml.Unmarshal(data, &config); err != nil {
		return config, errx.Wrap(err, errx.WithDetails(errx.D{"path": path}))
	}

	if err = defaults.Set(&config); err != nil {
		return config, errx.Wrap(err)
	}

	if err = validateConfig(&config, env); err != nil {
		return config, err
	}

	if !o.Silent {
		printConfig(config)
	}

	return config, nil
}

func defineEnvironment() (string, error) {
	env := os.Getenv(envVarName)
	choices := []string{EnvProduction, EnvStaging, EnvDev, EnvLocal, EnvTest}
	if !slices.Contains(choices, env) {
		return "", errx.New(fmt.Sprintf(
			"%s env variable is not set or invalid. Choices are: %s", envVarName, strings.Join(choices, ", "),
		))
	}
	return env, nil
}

func readConfigFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errx.New(fmt.Sprintf(
			"config file not found in the path %s - make sure that the yaml file exists for each environment", path,
		))
	}
	if err != nil {
		return nil, errx.Wrap(err, errx.WithDetails(errx.D{"path": path}))
	}
	return data, nil
}

func validateConfig(config any, env string) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	err := v.Struct(config)
	if err == nil {
		return nil
	}

	failedFields := make([]string, 0)
	if errs, ok := err.(validator.ValidationErrors); ok { //nolint:errorlint // validator returns the concrete type
		for _, fieldErr := range errs {
			tagErr := fieldErr.Tag()
			if fieldErr.Param() != "" {
				tagErr += "=" + fieldErr.Param()
			}
			failedFields = append(failedFields, fmt.Sprintf("%s: %s", fieldErr.Namespace(), tagErr))
		}
	}

	if len(failedFields) == 0 {
		return errx.Wrap(err)
	}

	return errx.New(fmt.Sprintf("invalid fields in %s config -> %s", env, strings.Join(failedFields, ",  ")))
}
