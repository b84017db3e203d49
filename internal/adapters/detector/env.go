// Package detector selects the output mode for the current environment.
package detector

import (
	"os"

	"golang.org/x/term"
)

// OutputMode represents how progress is reported to the user.
type OutputMode int

const (
	// ModeAuto automatically detects the appropriate mode.
	ModeAuto OutputMode = iota
	// ModePretty uses the terminal's full colour profile.
	ModePretty
	// ModeLinear restricts output to basic ANSI colours for logs and CI.
	ModeLinear
)

// String returns the flag spelling of the mode.
func (m OutputMode) String() string {
	switch m {
	case ModePretty:
		return "pretty"
	case ModeLinear:
		return "linear"
	default:
		return "auto"
	}
}

// DetectEnvironment returns ModePretty when stderr is a terminal outside CI,
// and ModeLinear otherwise.
func DetectEnvironment() OutputMode {
	return detect(term.IsTerminal(int(os.Stderr.Fd())), os.Getenv("CI"))
}

func detect(isTTY bool, ci string) OutputMode {
	if !isTTY || ci == "true" || ci == "1" {
		return ModeLinear
	}
	return ModePretty
}

// ResolveMode applies the --output flag to the detected mode.
// userFlag should be one of: "auto", "pretty", "linear", "ci", or empty.
func ResolveMode(autoDetected OutputMode, userFlag string) OutputMode {
	switch userFlag {
	case "pretty":
		return ModePretty
	case "linear", "ci":
		return ModeLinear
	default:
		return autoDetected
	}
}
