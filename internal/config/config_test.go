package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "loyaltycli/internal/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "loyalty.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, []string{"latin-1"}, cfg.Loader.RosterEncodings)
	assert.Equal(t, []string{"utf-8"}, cfg.Loader.ShippingEncodings)
	assert.Equal(t, 10, cfg.Performers.TopN)
	assert.Equal(t, []string{"utf-8", "latin-1"}, cfg.Performers.Encodings)
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		env      map[string]string
		wantErr  bool
		validate func(t *testing.T, cfg *Config)
	}{
		{
			name: "file overrides defaults",
			file: "loader:\n  activity_policy: profile-override\n  access_policy: null-means-access\nperformers:\n  top_n: 5\n",
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "profile-override", cfg.Loader.ActivityPolicy)
				assert.Equal(t, "null-means-access", cfg.Loader.AccessPolicy)
				assert.Equal(t, 5, cfg.Performers.TopN)
				assert.Equal(t, "Mayorista", cfg.Loader.OverrideProfile, "untouched keys keep defaults")
			},
		},
		{
			name: "env overrides file",
			file: "performers:\n  top_n: 5\n",
			env: map[string]string{
				"LOYALTY_PERFORMERS_TOP_N":         "3",
				"LOYALTY_PIPELINE_OUTPUT_ENCODING": "latin-1",
				"LOYALTY_PIPELINE_PROFILES":        "Minorista,Oro",
			},
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 3, cfg.Performers.TopN)
				assert.Equal(t, "latin-1", cfg.Pipeline.OutputEncoding)
				assert.Equal(t, []string{"Minorista", "Oro"}, cfg.Pipeline.Profiles)
			},
		},
		{
			name:    "invalid policy",
			file:    "loader:\n  activity_policy: sometimes\n",
			wantErr: true,
		},
		{
			name:    "invalid encoding",
			env:     map[string]string{"LOYALTY_LOADER_SHIPPING_ENCODINGS": "ebcdic"},
			wantErr: true,
		},
		{
			name:    "malformed yaml",
			file:    "logging: [\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.file != "" {
				path = writeConfig(t, tt.file)
			}

			cfg, err := Load(path)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, apperrors.ErrConfig))
				return
			}
			require.NoError(t, err)
			tt.validate(t, cfg)
		})
	}
}

func TestValidate_ReportsYamlNames(t *testing.T) {
	cfg := Default()
	cfg.Performers.TopN = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "performers.top_n")
}

func TestValidate_OverrideProfileRequiredForOverridePolicy(t *testing.T) {
	cfg := Default()
	cfg.Loader.ActivityPolicy = "profile-override"
	cfg.Loader.OverrideProfile = ""
	assert.Error(t, cfg.Validate())

	cfg.Loader.ActivityPolicy = "by-value"
	assert.NoError(t, cfg.Validate())
}

func TestLoad_ShippedSample(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "configs", "loyalty.yaml"))
	require.NoError(t, err)

	def := Default()
	assert.Equal(t, def.Loader, cfg.Loader)
	assert.Equal(t, def.Pipeline, cfg.Pipeline)
	assert.Equal(t, def.Performers, cfg.Performers)
	assert.Equal(t, MetricsFileName, cfg.Telemetry.MetricsFile)
}
