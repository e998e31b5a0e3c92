package app

import (
	"github.com/rise-and-shine/voiceout/filestore/localfs"
	"github.com/rise-and-shine/voiceout/filestore/miniowr"
	"github.com/rise-and-shine/voiceout/filestore/pgblob"
	"github.com/rise-and-shine/voiceout/http/server"
	"github.com/rise-and-shine/voiceout/observability/logger"
	"github.com/rise-and-shine/voiceout/observability/tracing"
	"github.com/rise-and-shine/voiceout/pg"
	"github.com/rise-and-shine/voiceout/upload"
)

// Media backends.
const (
	BackendLocal  = "local"
	BackendPGBlob = "pgblob"
	BackendMinio  = "minio"
)

// Config is loaded with cfgloader from config/<environment>.yaml.
type Config struct {
	Service    ServiceConfig  `yaml:"service"`
	Logger     logger.Config  `yaml:"logger"`
	Tracing    tracing.Config `yaml:"tracing"`
	HTTPServer server.Config  `yaml:"http_server"`
	Postgres   pg.Config      `yaml:"postgres"`
	Media      MediaConfig    `yaml:"media"`
}

type ServiceConfig struct {
	Name    string `yaml:"name"    default:"voiceout"`
	Version string `yaml:"version" default:"dev"`
}

// MediaConfig selects where uploaded files go. Only the section of the chosen
// backend is used.
type MediaConfig struct {
	Backend string          `yaml:"backend" default:"local" validate:"oneof=local pgblob minio"`
	Local   localfs.Config  `yaml:"local"`
	PGBlob  pgblob.Config   `yaml:"pgblob"`
	Minio   *miniowr.Config `yaml:"minio"   validate:"required_if=Backend minio"`
	Upload  upload.Rules    `yaml:"upload"`

	// MaxImageWidth scales down wider JPEG and PNG uploads. Zero keeps originals.
	MaxImageWidth int `yaml:"max_image_width" validate:"gte=0"`
}
