package pg_test

import (
	"database/sql"
	"fmt"
	"testing"

	"github.com/code19m/errx"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/rise-and-shine/voiceout/pg"
)

type panickingQuery struct{}

func (panickingQuery) String() string { panic("incomplete model") }

func TestErrorHelpers(t *testing.T) {
	conflict := fmt.Errorf("insert: %w", &pgconn.PgError{
		Code:           "23505",
		Message:        "duplicate key value violates unique constraint",
		TableName:      "voice_outs",
		ConstraintName: "voice_outs_pkey",
	})

	assert.True(t, pg.IsConflict(conflict))
	assert.Equal(t, "voice_outs_pkey", pg.ConstraintName(conflict))
	assert.False(t, pg.IsConflict(sql.ErrNoRows))
	assert.Empty(t, pg.ConstraintName(sql.ErrNoRows))

	assert.True(t, pg.IsNotFound(errx.Wrap(sql.ErrNoRows)))
	assert.False(t, pg.IsNotFound(conflict))
}

func TestGetPgErrorDetails(t *testing.T) {
	err := &pgconn.PgError{Code: "42P01", Message: "relation does not exist", TableName: "feedbacks"}

	details := pg.GetPgErrorDetails(err, nil)
	assert.Equal(t, "42P01", details["pg.code"])
	assert.Equal(t, "feedbacks", details["pg.table"])
	assert.NotContains(t, details, "query")

	details = pg.GetPgErrorDetails(sql.ErrConnDone, panickingQuery{})
	assert.Empty(t, details)
}

func TestConfig_ConnString(t *testing.T) {
	tests := []struct {
		name string
		cfg  pg.Config
		want string
	}{
		{
			name: "dsn wins",
			cfg:  pg.Config{DSN: "postgres://app:secret@db:5432/voiceout", Host: "ignored"},
			want: "postgres://app:secret@db:5432/voiceout",
		},
		{
			name: "discrete fields",
			cfg: pg.Config{
				Host: "localhost", Port: 5432, User: "app", Password: "p w", Database: "voiceout",
				SSLMode: "disable", SearchPath: "public",
			},
			want: "host=localhost port=5432 user=app password='p w' dbname=voiceout sslmode=disable search_path=public connect_timeout=0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.ConnString())
		})
	}
}
