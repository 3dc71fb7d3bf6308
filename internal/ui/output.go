package ui

import "fmt"

// Unicode symbols for status indicators
const (
	SymbolSuccess = "✓"
	SymbolError   = "✗"
	SymbolWarning = "⚠"
	SymbolAdded   = "+"
	SymbolRemoved = "-"
)

// Success returns a success message with checkmark symbol
func Success(msg string) string {
	return fmt.Sprintf("%s %s", SymbolSuccess, msg)
}

// Successf returns a formatted success message with checkmark symbol
func Successf(format string, args ...any) string {
	return Success(fmt.Sprintf(format, args...))
}

// Error returns an error message with X symbol
func Error(msg string) string {
	return fmt.Sprintf("%s %s", SymbolError, msg)
}

// Warningf returns a formatted warning message with warning symbol
func Warningf(format string, args ...any) string {
	return fmt.Sprintf("%s %s", SymbolWarning, fmt.Sprintf(format, args...))
}

// Header returns a styled section header
func Header(msg string) string {
	return render(Bold, msg)
}

// ObjectID returns an accent-styled object ID
func ObjectID(id string) string {
	return render(Accent, id)
}

// Hint returns muted hint text
func Hint(msg string) string {
	return render(Muted, msg)
}

// Event renders one domain event line, e.g. "+ kitchen  object-added".
func Event(kind, id string) string {
	symbol := SymbolAdded
	if kind == "object-removed" {
		symbol = SymbolRemoved
	}
	return fmt.Sprintf("%s %s  %s", symbol, render(AccentBold, id), Hint(kind))
}

// Count returns a count with the right noun, e.g. "3 objects".
func Count(n int, singular, plural string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, singular)
	}
	return fmt.Sprintf("%d %s", n, plural)
}
