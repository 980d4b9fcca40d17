package render

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// Profile selects how much of the event taxonomy is shown.
type Profile string

const (
	// ProfileCompact shows primary types only, for small viewports.
	ProfileCompact Profile = "compact"
	// ProfileVerbose shows primary and secondary types.
	ProfileVerbose Profile = "verbose"
	// ProfileAuto picks a profile from the terminal size.
	ProfileAuto Profile = "auto"
)

// CompactWidth is the terminal width below which the compact profile is used.
const CompactWidth = 80

// ParseProfile parses a configured profile name. Empty means auto.
func ParseProfile(s string) (Profile, error) {
	switch p := Profile(strings.ToLower(strings.TrimSpace(s))); p {
	case "", ProfileAuto:
		return ProfileAuto, nil
	case ProfileCompact, ProfileVerbose:
		return p, nil
	default:
		return "", fmt.Errorf("unknown render profile %q (want auto, compact or verbose)", s)
	}
}

// ProfileForWidth maps a viewport width to a profile.
func ProfileForWidth(width int) Profile {
	if width > 0 && width < CompactWidth {
		return ProfileCompact
	}
	return ProfileVerbose
}

// DetectProfile resolves p against the terminal attached to f. Non-auto
// profiles are returned unchanged; auto falls back to verbose when f is not a
// terminal.
func DetectProfile(p Profile, f *os.File) Profile {
	if p != ProfileAuto && p != "" {
		return p
	}

	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return ProfileVerbose
	}

	width, _, err := term.GetSize(fd)
	if err != nil {
		return ProfileVerbose
	}
	return ProfileForWidth(width)
}
