package atlas

import "fmt"

// DataError reports a failure to parse the atlas binary format (spec.md
// section 4.2/6.1/7): truncated input, unknown version, implausible
// dimensions, or an out-of-range style ordinal. Construction-time only —
// the atlas is simply not loaded.
type DataError struct {
	Reason string
}

func (e *DataError) Error() string {
	return fmt.Sprintf("gputerm/atlas: data error: %s", e.Reason)
}

func newDataError(format string, args ...any) *DataError {
	return &DataError{Reason: fmt.Sprintf(format, args...)}
}

// ResourceError reports a GPU resource that failed to allocate (texture,
// buffer, VAO, UBO, or a missing uniform location). Fatal at construction;
// retryable once a lost GL context has been restored (spec.md section 7).
type ResourceError struct {
	Resource string
	Reason   string
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("gputerm/atlas: resource error: failed to create %s: %s", e.Resource, e.Reason)
}

func newResourceError(resource, reason string) *ResourceError {
	return &ResourceError{Resource: resource, Reason: reason}
}

// RasterizerError reports a failure from the dynamic atlas's rasterization
// backend (canvas/font allocation failed, fill-text failed, font family
// unset). Reported up from Flush; Grid.FlushCells returns it wrapped and
// does not mark the offending glyph or substitute a fallback for it.
type RasterizerError struct {
	Reason string
}

func (e *RasterizerError) Error() string {
	return fmt.Sprintf("gputerm/atlas: rasterizer error: %s", e.Reason)
}

func newRasterizerError(format string, args ...any) *RasterizerError {
	return &RasterizerError{Reason: fmt.Sprintf(format, args...)}
}
