// Package render decides how relay events reach a visible transcript: which
// event types are shown on which device profile, how each is presented, and
// how rapid narration fragments are coalesced into fewer redraws.
package render

import (
	"fmt"

	"github.com/papercomputeco/thoughtwire/pkg/sse"
)

// Visibility controls on which profiles an event type is shown.
type Visibility int

const (
	// Primary types are shown on every profile.
	Primary Visibility = iota
	// Secondary types are shown on the verbose profile only.
	Secondary
	// Suppressed types are never shown.
	Suppressed
)

func (v Visibility) String() string {
	switch v {
	case Primary:
		return "primary"
	case Secondary:
		return "secondary"
	case Suppressed:
		return "suppressed"
	default:
		return fmt.Sprintf("visibility(%d)", int(v))
	}
}

// FlushStrategy controls when a shown event is committed to the surface.
type FlushStrategy int

const (
	// FlushImmediate commits the event as soon as it arrives.
	FlushImmediate FlushStrategy = iota
	// FlushCoalesce buffers fragments until a sentence ends or the
	// coalescing window elapses.
	FlushCoalesce
)

// Transform renders an event message for presentation. Transforms produce
// markdown; the surface decides how to display it.
type Transform func(string) string

// Plain returns s unchanged.
func Plain(s string) string { return s }

// Bold wraps s in markdown strong emphasis.
func Bold(s string) string { return "**" + s + "**" }

// Italic wraps s in markdown emphasis.
func Italic(s string) string { return "_" + s + "_" }

// Warning prefixes s with a warning marker.
func Warning(s string) string { return "⚠ " + s }

// Policy is the presentation rule for one event type.
type Policy struct {
	Visibility Visibility
	Flush      FlushStrategy
	Transform  Transform
}

// Policies maps event types to their presentation rule. Adding an event type
// means adding one entry here.
type Policies map[string]Policy

// DefaultPolicies is the standard policy table for the event taxonomy.
var DefaultPolicies = Policies{
	sse.TypeThoughtStream: {Visibility: Primary, Flush: FlushCoalesce, Transform: Plain},
	sse.TypeFinal:         {Visibility: Primary, Flush: FlushImmediate, Transform: Bold},
	sse.TypeToolResult:    {Visibility: Primary, Flush: FlushImmediate, Transform: Plain},
	sse.TypeError:         {Visibility: Primary, Flush: FlushImmediate, Transform: Warning},

	sse.TypeIteration:      {Visibility: Secondary, Flush: FlushImmediate, Transform: Bold},
	sse.TypeThinking:       {Visibility: Secondary, Flush: FlushImmediate, Transform: Italic},
	sse.TypeReasoningStart: {Visibility: Secondary, Flush: FlushImmediate, Transform: Italic},
	sse.TypeToolPrep:       {Visibility: Secondary, Flush: FlushImmediate, Transform: Italic},
	sse.TypeToolReady:      {Visibility: Secondary, Flush: FlushImmediate, Transform: Italic},
	sse.TypeExecuting:      {Visibility: Secondary, Flush: FlushImmediate, Transform: Italic},
	sse.TypeToolStream:     {Visibility: Secondary, Flush: FlushImmediate, Transform: Plain},
	sse.TypeReasoningDone:  {Visibility: Secondary, Flush: FlushImmediate, Transform: Italic},
	sse.TypeContinue:       {Visibility: Secondary, Flush: FlushImmediate, Transform: Italic},

	sse.TypeKeepalive: {Visibility: Suppressed},
	sse.TypeToolInput: {Visibility: Suppressed},
}

// Lookup returns the policy for eventType. Types missing from the table are
// suppressed.
func (p Policies) Lookup(eventType string) Policy {
	if pol, ok := p[eventType]; ok {
		return pol
	}
	return Policy{Visibility: Suppressed}
}

// Visible reports whether the policy shows its type on profile.
func (pol Policy) Visible(profile Profile) bool {
	switch pol.Visibility {
	case Primary:
		return true
	case Secondary:
		return profile == ProfileVerbose
	default:
		return false
	}
}

// Apply runs the policy transform, defaulting to Plain.
func (pol Policy) Apply(s string) string {
	if pol.Transform == nil {
		return s
	}
	return pol.Transform(s)
}
