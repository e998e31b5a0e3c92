package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rise-and-shine/voiceout/filestore/localfs"
	"github.com/rise-and-shine/voiceout/observability/logger"
)

func TestNewMediaStore(t *testing.T) {
	tests := []struct {
		name       string
		media      MediaConfig
		wantRoute  string
		wantPrefix string
		wantErr    bool
	}{
		{
			name:       "local",
			media:      MediaConfig{Backend: BackendLocal, Local: localfs.Config{Dir: t.TempDir(), RefPrefix: "/uploads/"}},
			wantRoute:  "/uploads",
			wantPrefix: "uploads/",
		},
		{
			name:      "pgblob",
			media:     MediaConfig{Backend: BackendPGBlob},
			wantRoute: pgblobMediaRoute,
		},
		{
			name:    "minio without section",
			media:   MediaConfig{Backend: BackendMinio},
			wantErr: true,
		},
		{
			name:    "unknown",
			media:   MediaConfig{Backend: "ftp"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &App{cfg: Config{Media: tt.media}, log: logger.NewNop()}

			store, route, prefix, err := a.newMediaStore(context.Background())
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, store)
			assert.Equal(t, tt.wantRoute, route)
			assert.Equal(t, tt.wantPrefix, prefix)
		})
	}
}
