package ui

// ColorReset returns the reset code of the active theme.
func ColorReset() string { return Current().Reset }

// ColorRed returns the error color.
func ColorRed() string { return Current().Error }

// ColorGreen returns the success color.
func ColorGreen() string { return Current().Success }

// ColorYellow returns the warning color.
func ColorYellow() string { return Current().Warning }

// ColorBlue returns the primary color.
func ColorBlue() string { return Current().Primary }

// ColorMagenta returns the info color.
func ColorMagenta() string { return Current().Info }

// ColorCyan returns the secondary color.
func ColorCyan() string { return Current().Secondary }

// ColorBold returns the bold code.
func ColorBold() string { return Current().Bold }

// Paint wraps s in color and the active theme's reset code. An empty color
// leaves s untouched.
func Paint(color, s string) string {
	if color == "" {
		return s
	}
	return color + s + ColorReset()
}

// Status renders a pass or fail label in the success or error color.
func Status(passed bool, ok, fail string) string {
	if passed {
		return Paint(ColorGreen(), ok)
	}
	return Paint(ColorRed(), fail)
}
