package fs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewIgnoreMatcher(t *testing.T) {
	t.Run("skips blank lines, comments and bad globs", func(t *testing.T) {
		t.Parallel()
		m := NewIgnoreMatcher([]string{"", "  ", "# comment", "*.log", "[unclosed"})
		if len(m.patterns) != 1 {
			t.Fatalf("expected 1 pattern, got %d", len(m.patterns))
		}
		if m.patterns[0].glob != "*.log" {
			t.Errorf("expected *.log, got %s", m.patterns[0].glob)
		}
	})

	t.Run("classifies anchored and directory patterns", func(t *testing.T) {
		t.Parallel()
		m := NewIgnoreMatcher([]string{"*.log", "build/output", "cache/", "/top"})
		want := []ignorePattern{
			{glob: "*.log"},
			{glob: "build/output", anchored: true},
			{glob: "cache", dirOnly: true},
			{glob: "top"},
		}
		if len(m.patterns) != len(want) {
			t.Fatalf("got %d patterns, want %d", len(m.patterns), len(want))
		}
		for i := range want {
			if m.patterns[i] != want[i] {
				t.Errorf("pattern %d = %+v, want %+v", i, m.patterns[i], want[i])
			}
		}
	})
}

func TestIgnoreMatcher_Match(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
		rel      string
		dir      bool
		want     bool
	}{
		{name: "basename glob in root", patterns: []string{"*.log"}, rel: "app.log", want: true},
		{name: "basename glob in subdirectory", patterns: []string{"*.log"}, rel: filepath.Join("sub", "app.log"), want: true},
		{name: "different extension", patterns: []string{"*.log"}, rel: "app.txt", want: false},
		{name: "exact basename in subdirectory", patterns: []string{".DS_Store"}, rel: filepath.Join("sub", ".DS_Store"), want: true},
		{name: "anchored path", patterns: []string{"build/output"}, rel: filepath.Join("build", "output"), want: true},
		{name: "anchored path elsewhere", patterns: []string{"build/output"}, rel: filepath.Join("src", "output"), want: false},
		{name: "anchored glob", patterns: []string{"build/*.o"}, rel: filepath.Join("build", "main.o"), want: true},
		{name: "question mark", patterns: []string{"?.flac"}, rel: "a.flac", want: true},
		{name: "question mark is one char", patterns: []string{"?.flac"}, rel: "ab.flac", want: false},
		{name: "character class", patterns: []string{"*.[oa]"}, rel: "main.o", want: true},
		{name: "no patterns", patterns: nil, rel: "anything.txt", want: false},
		{name: "empty path", patterns: []string{"*.log"}, rel: "", want: false},
		{name: "dir pattern skips files", patterns: []string{"cache/"}, rel: "cache", want: false},
		{name: "dir pattern matches dirs", patterns: []string{"cache/"}, rel: filepath.Join("a", "cache"), dir: true, want: true},
		{name: "plain pattern matches dirs", patterns: []string{"node_modules"}, rel: "node_modules", dir: true, want: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := NewIgnoreMatcher(tt.patterns)
			got := m.Match(tt.rel)
			if tt.dir {
				got = m.MatchDir(tt.rel)
			}
			if got != tt.want {
				t.Errorf("match(%q, dir=%v) = %v, want %v", tt.rel, tt.dir, got, tt.want)
			}
		})
	}
}

func TestParseIgnoreFile(t *testing.T) {
	t.Run("reads raw lines", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		path := filepath.Join(dir, IgnoreFileName)
		if err := os.WriteFile(path, []byte("*.log\n# comment\n\n*.tmp\nbuild/\n"), 0644); err != nil {
			t.Fatalf("writing test file: %v", err)
		}

		patterns, err := ParseIgnoreFile(path)
		if err != nil {
			t.Fatalf("ParseIgnoreFile() error = %v", err)
		}
		// Filtering blank lines and comments is NewIgnoreMatcher's job.
		if len(patterns) != 5 {
			t.Fatalf("expected 5 raw lines, got %d", len(patterns))
		}
		if m := NewIgnoreMatcher(patterns); len(m.patterns) != 3 {
			t.Errorf("expected 3 parsed patterns, got %d", len(m.patterns))
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		patterns, err := ParseIgnoreFile(filepath.Join(t.TempDir(), IgnoreFileName))
		if err != nil {
			t.Fatalf("ParseIgnoreFile() error = %v", err)
		}
		if patterns != nil {
			t.Errorf("expected nil patterns, got %v", patterns)
		}
	})
}
