package grid

// LossDetector is the contract a host integration uses to notice a lost
// GPU context and trigger Grid.RecreateResources (spec.md section 4.11).
// The concept originates with WebGL's webglcontextlost/restored events;
// native OpenGL contexts (what cmd/gputerm-demo uses, via go-gl + SDL2)
// have no equivalent, so a native host can satisfy this interface with a
// detector that never reports loss.
type LossDetector interface {
	// Lost reports whether the context has been lost since the last call.
	Lost() bool
	// Restored reports whether a previously lost context has come back.
	Restored() bool
}

// NoopLossDetector satisfies LossDetector for hosts with no context-loss
// concept to report, such as a native GL window. Native implementations
// need not implement anything beyond this (spec.md section 4.11).
type NoopLossDetector struct{}

// Lost always reports false: native GL contexts aren't lost out from under
// the process the way a browser tab's WebGL context can be.
func (NoopLossDetector) Lost() bool { return false }

// Restored always reports false, for the same reason.
func (NoopLossDetector) Restored() bool { return false }
