package server

import (
	"fmt"
	"time"
)

// Config defines configuration options for the HTTP server.
type Config struct {
	// HideErrorDetails drops error trace and details from responses.
	HideErrorDetails bool `yaml:"hide_error_details"`

	// Host address to bind the server to.
	Host string `yaml:"host" default:"0.0.0.0"`

	// Port number to listen on (required).
	Port int `yaml:"port" validate:"required"`

	// ReadTimeout is a maximum duration for reading the entire request, including uploads.
	ReadTimeout time.Duration `yaml:"read_timeout" validate:"required" default:"60s"`

	// WriteTimeout is a maximum duration before timing out writes of the response.
	WriteTimeout time.Duration `yaml:"write_timeout" validate:"required" default:"60s"`

	// IdleTimeout is a maximum amount of time to wait for the next request.
	IdleTimeout time.Duration `yaml:"idle_timeout" validate:"required" default:"120s"`

	// HandleTimeout is a maximum duration for handling a single request.
	HandleTimeout time.Duration `yaml:"handle_timeout" validate:"required" default:"30s"`

	// BodyLimit is the maximum request body size in bytes. Default is 25MB.
	BodyLimit int `yaml:"body_limit" validate:"required" default:"26214400"`
}

// Address returns the server's listen address in the form "host:port".
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
