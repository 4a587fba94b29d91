package cli

import (
	apperrors "github.com/agbru/cgbench/internal/errors"
	"github.com/agbru/cgbench/internal/ui"
)

// Ensure CLIColorProvider implements apperrors.ColorProvider at compile time.
var _ apperrors.ColorProvider = CLIColorProvider{}

// CLIColorProvider implements apperrors.ColorProvider using the current
// theme, so error messages follow -no-color and -theme.
type CLIColorProvider struct{}

// Yellow returns the warning color of the current theme.
func (CLIColorProvider) Yellow() string { return ui.ColorYellow() }

// Reset returns the reset code of the current theme.
func (CLIColorProvider) Reset() string { return ui.ColorReset() }
