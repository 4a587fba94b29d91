// Package ui holds the color themes shared by the configuration usage text,
// the progress display and the summary table.
package ui

import (
	"os"
	"sort"
	"sync"
)

// Theme is a set of ANSI escape codes, one per role.
type Theme struct {
	Name      string
	Primary   string
	Secondary string
	Success   string
	Warning   string
	Error     string
	Info      string
	Bold      string
	Underline string
	Reset     string
}

var (
	// DarkTheme suits dark terminal backgrounds.
	DarkTheme = Theme{
		Name:      "dark",
		Primary:   "\033[38;5;39m",
		Secondary: "\033[38;5;245m",
		Success:   "\033[38;5;82m",
		Warning:   "\033[38;5;220m",
		Error:     "\033[38;5;196m",
		Info:      "\033[38;5;141m",
		Bold:      "\033[1m",
		Underline: "\033[4m",
		Reset:     "\033[0m",
	}

	// LightTheme suits light terminal backgrounds.
	LightTheme = Theme{
		Name:      "light",
		Primary:   "\033[38;5;27m",
		Secondary: "\033[38;5;240m",
		Success:   "\033[38;5;28m",
		Warning:   "\033[38;5;130m",
		Error:     "\033[38;5;124m",
		Info:      "\033[38;5;54m",
		Bold:      "\033[1m",
		Underline: "\033[4m",
		Reset:     "\033[0m",
	}

	// NoColorTheme emits no escape codes at all.
	NoColorTheme = Theme{Name: "none"}
)

var themes = map[string]Theme{
	DarkTheme.Name:    DarkTheme,
	LightTheme.Name:   LightTheme,
	NoColorTheme.Name: NoColorTheme,
}

var (
	mu      sync.RWMutex
	current = DarkTheme
)

// Lookup returns the theme registered under name.
func Lookup(name string) (Theme, bool) {
	t, ok := themes[name]
	return t, ok
}

// Names returns the registered theme names in sorted order.
func Names() []string {
	names := make([]string, 0, len(themes))
	for name := range themes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Current returns the active theme.
func Current() Theme {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Use makes t the active theme and returns the previous one, so tests can
// restore it.
func Use(t Theme) Theme {
	mu.Lock()
	defer mu.Unlock()
	prev := current
	current = t
	return prev
}

// Configure activates the named theme. Colors are disabled when noColor is
// set or the NO_COLOR environment variable is present (https://no-color.org/).
// Unknown names fall back to the dark theme.
func Configure(name string, noColor bool) {
	if noColor || ColorDisabledByEnv() {
		Use(NoColorTheme)
		return
	}
	t, ok := Lookup(name)
	if !ok {
		t = DarkTheme
	}
	Use(t)
}

// ColorDisabledByEnv reports whether NO_COLOR is set.
func ColorDisabledByEnv() bool {
	_, ok := os.LookupEnv("NO_COLOR")
	return ok
}
