package validation

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "loyaltycli/internal/errors"
)

func TestFileValidator_ValidateInputDirectory(t *testing.T) {
	tests := []struct {
		name            string
		setupFunc       func(t *testing.T) string
		requiredPattern string
		wantErr         error
	}{
		{
			name: "valid directory with files",
			setupFunc: func(t *testing.T) string {
				dir := t.TempDir()
				require.NoError(t, os.WriteFile(filepath.Join(dir, "metas_01.csv"), []byte("x"), 0644))
				return dir
			},
			requiredPattern: "*.csv",
		},
		{
			name: "valid directory without files",
			setupFunc: func(t *testing.T) string {
				return t.TempDir()
			},
			requiredPattern: "*.csv",
		},
		{
			name: "non-existent directory",
			setupFunc: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "missing")
			},
			wantErr: apperrors.ErrNotFound,
		},
		{
			name: "path is file not directory",
			setupFunc: func(t *testing.T) string {
				file := filepath.Join(t.TempDir(), "test.txt")
				require.NoError(t, os.WriteFile(file, []byte("test"), 0644))
				return file
			},
			wantErr: apperrors.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewFileValidator(nil)
			err := v.ValidateInputDirectory(tt.setupFunc(t), tt.requiredPattern)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestFileValidator_ValidateCSVFile(t *testing.T) {
	dir := t.TempDir()
	csv := filepath.Join(dir, "roster.csv")
	txt := filepath.Join(dir, "roster.txt")
	require.NoError(t, os.WriteFile(csv, []byte("a\n"), 0644))
	require.NoError(t, os.WriteFile(txt, []byte("a\n"), 0644))

	v := NewFileValidator(nil)
	assert.NoError(t, v.ValidateCSVFile(csv))
	assert.True(t, errors.Is(v.ValidateCSVFile(txt), apperrors.ErrValidation))
	assert.True(t, errors.Is(v.ValidateCSVFile(filepath.Join(dir, "none.csv")), apperrors.ErrNotFound))
	assert.True(t, errors.Is(v.ValidateFile(dir), apperrors.ErrValidation))

	assert.NoError(t, v.ValidateCSVFiles(csv, csv))
	assert.Error(t, v.ValidateCSVFiles(csv, txt))
}

func TestFileValidator_ValidateOutputDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports", "nested")

	v := NewFileValidator(nil)
	require.NoError(t, v.ValidateOutputDirectory(dir))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "the write probe is removed")
}

func TestFileValidator_CountFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.csv", "b.csv", "c.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "d.csv"), 0755))

	v := NewFileValidator(nil)
	n, err := v.CountFiles(dir, "*.csv")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = v.CountFiles(dir, "[")
	assert.Error(t, err)
}
