package pg

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Config defines the configuration options for PostgreSQL connections.
//
// Either DSN (a postgres:// URL, usually injected as ${DATABASE_URL}) or the
// discrete Host/Port/User/Password/Database fields must be provided. DSN wins
// when both are set.
type Config struct {
	// Debug enables SQL query logging when set to true.
	Debug bool `yaml:"debug" default:"false"`

	// AutoMigrate creates missing tables and indexes at startup.
	AutoMigrate bool `yaml:"auto_migrate" default:"false"`

	// DSN is a full connection URL.
	DSN string `yaml:"dsn" mask:"url"`

	Host     string `yaml:"host"     validate:"required_without=DSN"`
	Port     int    `yaml:"port"     validate:"required_without=DSN"`
	User     string `yaml:"user"     validate:"required_without=DSN"`
	Password string `yaml:"password"                                 mask:"true"`
	Database string `yaml:"database" validate:"required_without=DSN"`

	// SSLMode specifies the SSL mode for the connection.
	SSLMode string `yaml:"sslmode"         default:"disable" validate:"oneof=disable allow prefer require verify-ca verify-full"`
	// SearchPath specifies the schema search path.
	SearchPath string `yaml:"search_path"     default:"public"`
	// ConnectTimeout specifies the maximum time to wait when connecting to the server.
	ConnectTimeout time.Duration `yaml:"connect_timeout" default:"10s"`

	// PoolMaxConns specifies the maximum number of connections in the pool.
	PoolMaxConns int32 `yaml:"pool_max_conns"          default:"10"`
	// PoolMinConns specifies the minimum number of connections in the pool.
	PoolMinConns int32 `yaml:"pool_min_conns"          default:"1"`
	// PoolMaxConnLifetime specifies the maximum lifetime of a connection.
	PoolMaxConnLifetime time.Duration `yaml:"pool_max_conn_lifetime"  default:"1h"`
	// PoolMaxConnIdleTime specifies how long a connection can remain idle in the pool.
	PoolMaxConnIdleTime time.Duration `yaml:"pool_max_conn_idle_time" default:"30m"`

	// ConnectAttempts is how many times the initial ping is tried before giving up.
	ConnectAttempts uint `yaml:"connect_attempts" default:"5"`
}

// ConnString returns the connection string pgx should parse.
func (c Config) ConnString() string {
	if c.DSN != "" {
		return c.DSN
	}

	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s search_path=%s connect_timeout=%d",
		c.Host,
		c.Port,
		c.User,
		quote(c.Password),
		c.Database,
		c.SSLMode,
		c.SearchPath,
		int(c.ConnectTimeout.Seconds()),
	)
}

// redactedTarget describes the server being connected to without credentials.
func (c Config) redactedTarget() string {
	if c.DSN == "" {
		return fmt.Sprintf("%s:%d/%s", c.Host, c.Port, c.Database)
	}
	u, err := url.Parse(c.DSN)
	if err != nil {
		return "<unparsable dsn>"
	}
	return u.Redacted()
}

func quote(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, ` '\`) {
		return s
	}
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return "'" + s + "'"
}
