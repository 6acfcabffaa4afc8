package version

import (
	"os"
	"testing"

	"github.com/fatih/color"
)

func TestVersion_DefaultValues(t *testing.T) {
	if Version == "" {
		t.Error("Version should have a default value")
	}
}

func TestColored(t *testing.T) {
	orig, origNoColor := Version, color.NoColor
	defer func() { Version, color.NoColor = orig, origNoColor }()
	color.NoColor = true

	cases := []struct {
		version string
		want    string
	}{
		{"0.1.0-dev", "0.1.0-dev"},
		{"1.2.3", "1.2.3"},
		{"2.0", "2.0"},
		{"1.0.0-beta.1", "1.0.0-beta.1"},
		{"  ", "dev"},
	}
	for _, tc := range cases {
		Version = tc.version
		if got := Colored(); got != tc.want {
			t.Errorf("Colored() with %q = %q, want %q", tc.version, got, tc.want)
		}
	}
}

func TestColoredAddsEscapes(t *testing.T) {
	if os.Getenv("NO_COLOR") != "" {
		t.Skip("NO_COLOR is set")
	}
	orig, origNoColor := Version, color.NoColor
	defer func() { Version, color.NoColor = orig, origNoColor }()
	color.NoColor = false
	Version = "1.2.3"
	if got := Colored(); got == "1.2.3" {
		t.Fatalf("expected colored output, got %q", got)
	}
}
