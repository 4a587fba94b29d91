package ui

import (
	"strings"
	"testing"
)

func TestConfigure(t *testing.T) {
	prev := Current()
	defer Use(prev)

	tests := []struct {
		name    string
		theme   string
		noColor bool
		noEnv   string
		want    string
	}{
		{"Dark", "dark", false, "", "dark"},
		{"Light", "light", false, "", "light"},
		{"Unknown falls back to dark", "solarized", false, "", "dark"},
		{"NoColor flag wins", "light", true, "", "none"},
		{"NO_COLOR env wins", "dark", false, "1", "none"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.noEnv != "" {
				t.Setenv("NO_COLOR", tt.noEnv)
			} else if ColorDisabledByEnv() && !tt.noColor {
				t.Skip("NO_COLOR is set in the test environment")
			}
			Configure(tt.theme, tt.noColor)
			if got := Current().Name; got != tt.want {
				t.Errorf("Configure(%q, %v) = %q, want %q", tt.theme, tt.noColor, got, tt.want)
			}
		})
	}
}

func TestNames(t *testing.T) {
	t.Parallel()
	if got := strings.Join(Names(), ","); got != "dark,light,none" {
		t.Errorf("Names() = %s", got)
	}
	if _, ok := Lookup("none"); !ok {
		t.Error("none theme not registered")
	}
}

func TestPaintAndStatus(t *testing.T) {
	prev := Use(DarkTheme)
	defer Use(prev)

	if got := Paint(ColorGreen(), "ok"); got != DarkTheme.Success+"ok"+DarkTheme.Reset {
		t.Errorf("Paint = %q", got)
	}
	if got := Status(false, "OK", "FAIL"); !strings.Contains(got, "FAIL") || !strings.HasPrefix(got, DarkTheme.Error) {
		t.Errorf("Status(false) = %q", got)
	}

	Use(NoColorTheme)
	if got := Status(true, "OK", "FAIL"); got != "OK" {
		t.Errorf("Status without colors = %q", got)
	}
}
