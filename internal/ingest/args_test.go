package ingest

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/tinytelemetry/roundwatch/internal/model"
)

func TestParseArgsPairs(t *testing.T) {
	t.Parallel()

	got, err := ParseArgs([]string{"a.txt", "auto", "b.txt", "manual"})
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	want := []Input{{Path: "a.txt", Label: "auto"}, {Path: "b.txt", Label: "manual"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("inputs = %+v, want %+v", got, want)
	}
}

func TestParseArgsUsageErrors(t *testing.T) {
	t.Parallel()

	for _, args := range [][]string{nil, {"a.txt"}, {"a.txt", "auto", "b.txt"}, {"a.txt", " "}} {
		if _, err := ParseArgs(args); !errors.Is(err, model.ErrUsage) {
			t.Errorf("ParseArgs(%q) err = %v, want ErrUsage", args, err)
		}
	}
}

func TestLoadManifest(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "runs.yml")
	body := "runs:\n  - file: tmp/auto.txt\n    label: auto\n  - file: tmp/hpa.txt\n    label: hpa\n"
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := LoadManifest(path)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	want := []Input{{Path: "tmp/auto.txt", Label: "auto"}, {Path: "tmp/hpa.txt", Label: "hpa"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("inputs = %+v, want %+v", got, want)
	}
}

func TestLoadManifestRejectsIncompleteRun(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "runs.yml")
	if err := os.WriteFile(path, []byte("runs:\n  - file: a.txt\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := LoadManifest(path); !errors.Is(err, model.ErrUsage) {
		t.Fatalf("err = %v, want ErrUsage", err)
	}
}
