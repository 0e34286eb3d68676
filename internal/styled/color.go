// Package styled holds the colors and table style shared by the sealite
// command line tools.
package styled

import "github.com/fatih/color"

// DimmedColor returns a dimmed *color.Color to print secondary information.
func DimmedColor() *color.Color {
	return color.RGB(128, 128, 128)
}

// SuccessColor returns the color of passed checks.
func SuccessColor() *color.Color {
	return color.New(color.FgGreen, color.Bold)
}

// FailureColor returns the color of failed checks and errors.
func FailureColor() *color.Color {
	return color.New(color.FgRed, color.Bold)
}

// WarningColor returns the color of skipped checks and warnings.
func WarningColor() *color.Color {
	return color.New(color.FgYellow)
}
