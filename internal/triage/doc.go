// Package triage implements the core assessment pipeline: an identity
// tracker that turns per-frame person detections into persistent tracks,
// per-track signal buffers and extraction of a breathing rate and a
// movement label from noisy positional series, and a deterministic rule
// engine mapping those signals into a START-style triage category.
//
// The package has no I/O surface. Detection input, override input and
// snapshot publication are the host's responsibility; the pipeline is
// driven entirely through Pipeline.Tick.
package triage
