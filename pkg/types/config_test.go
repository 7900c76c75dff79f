package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfig(t *testing.T) {
	tests := []struct {
		name         string
		config       Config
		wantErr      error
		wantInMemory bool
	}{
		{name: "empty backend", config: Config{DataDir: "/tmp/data"}, wantErr: ErrBackendEmpty},
		{name: "unknown backend", config: Config{Backend: "postgres", DataDir: "/tmp/data"}, wantErr: ErrBackendUnknown},
		{name: "sqlite on disk", config: Config{Backend: BackendSQLite, DataDir: "/tmp/data"}},
		{name: "memory needs no data dir", config: Config{Backend: BackendMemory}, wantInMemory: true},
		{name: "memory ignores data dir", config: Config{Backend: BackendMemory, DataDir: "/tmp/data"}, wantInMemory: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantInMemory, tt.config.InMemory())
		})
	}
}
