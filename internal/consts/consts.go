// Package consts holds small build-mode flags shared by assert and the
// rest of the module, mirroring the teacher's consts.Mode_Debug switch.
package consts

// Mode_Debug gates assertions and verbose diagnostics. Left true here since
// this module has no release-build tag wiring of its own; a host binary
// that vendors gputerm can flip it off in an init() before first use.
var Mode_Debug = true
