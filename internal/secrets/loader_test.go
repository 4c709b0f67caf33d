package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spigell/job-matcher/internal/errs"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	keyFile := filepath.Join(dir, "key")
	if err := os.WriteFile(keyFile, []byte("  from-file\n"), 0o600); err != nil {
		t.Fatalf("write key file: %v", err)
	}
	emptyFile := filepath.Join(dir, "empty")
	if err := os.WriteFile(emptyFile, []byte("\n"), 0o600); err != nil {
		t.Fatalf("write empty file: %v", err)
	}

	t.Setenv("JOB_MATCHER_TEST_KEY", " from-env ")

	tests := []struct {
		name    string
		src     Source
		want    string
		wantErr bool
	}{
		{name: "file wins", src: Source{File: keyFile, Env: "JOB_MATCHER_TEST_KEY", Value: "inline"}, want: "from-file"},
		{name: "env before value", src: Source{Env: "JOB_MATCHER_TEST_KEY", Value: "inline"}, want: "from-env"},
		{name: "inline value", src: Source{Env: "JOB_MATCHER_UNSET_KEY", Value: " inline "}, want: "inline"},
		{name: "empty file", src: Source{File: emptyFile, Value: "inline"}, wantErr: true},
		{name: "missing file", src: Source{File: filepath.Join(dir, "absent")}, wantErr: true},
		{name: "nothing configured", src: Source{Name: "api key", Env: "JOB_MATCHER_UNSET_KEY"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.src)
			if tt.wantErr {
				if !errs.Is(err, errs.TypeConfig) {
					t.Fatalf("expected config error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
