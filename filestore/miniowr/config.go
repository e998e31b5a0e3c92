package miniowr

// Config defines the configuration options for the S3-compatible store.
type Config struct {
	// Endpoint is the server endpoint without scheme (e.g., "localhost:9000").
	Endpoint string `yaml:"endpoint" validate:"required"`

	AccessKey string `yaml:"access_key" validate:"required" mask:"true"`
	SecretKey string `yaml:"secret_key" validate:"required" mask:"true"`
	Region    string `yaml:"region"`

	// Bucket receives every upload. It is created on startup when missing.
	Bucket string `yaml:"bucket" validate:"required"`

	// Folder is the top level key prefix. Keys are <folder>/<kind>/<name>.
	Folder string `yaml:"folder" default:"uploads"`

	// UseSSL enables HTTPS connection to the server.
	UseSSL bool `yaml:"use_ssl" default:"false"`

	// PublicBaseURL is how clients reach the bucket, e.g. a CDN in front of it.
	// Defaults to the endpoint URL.
	PublicBaseURL string `yaml:"public_base_url" validate:"omitempty,url"`
}
