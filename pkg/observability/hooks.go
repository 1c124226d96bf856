// Package observability provides hooks for metrics, tracing, and logging.
//
// Extraction code emits events through the hooks registered here without
// depending on any particular backend. The defaults are no-ops; main (or a
// test) registers real implementations at startup.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetPipelineHooks(&myPipelineHooks{})
//	    observability.SetOutputHooks(&myOutputHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Pipeline().OnStageStart(ctx, runID, observability.StageParse)
//	// ... read the DEF file ...
//	observability.Pipeline().OnStageComplete(ctx, runID, observability.StageParse, matched, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// Stage names one step of an extraction run.
type Stage string

// Stages emitted by the extraction pipelines.
const (
	StageParse  Stage = "parse"
	StageShapes Stage = "shapes"
	StageBin    Stage = "bin"
	StageWrite  Stage = "write"
	StageRender Stage = "render"
)

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from extraction runs.
type PipelineHooks interface {
	// Run events
	OnRunStart(ctx context.Context, runID, kind, input string)
	OnRunComplete(ctx context.Context, runID, kind string, duration time.Duration, err error)

	// Stage events. items is the stage's natural count: placements parsed,
	// shapes written, grid cells emitted.
	OnStageStart(ctx context.Context, runID string, stage Stage)
	OnStageComplete(ctx context.Context, runID string, stage Stage, items int, duration time.Duration, err error)
}

// =============================================================================
// Output Hooks
// =============================================================================

// OutputHooks receives events for files written by a run.
type OutputHooks interface {
	// OnFileWritten records a file that was created or replaced.
	OnFileWritten(ctx context.Context, runID, path string, rows int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnRunStart(context.Context, string, string, string)                  {}
func (NoopPipelineHooks) OnRunComplete(context.Context, string, string, time.Duration, error) {}
func (NoopPipelineHooks) OnStageStart(context.Context, string, Stage)                         {}
func (NoopPipelineHooks) OnStageComplete(context.Context, string, Stage, int, time.Duration, error) {
}

// NoopOutputHooks is a no-op implementation of OutputHooks.
type NoopOutputHooks struct{}

func (NoopOutputHooks) OnFileWritten(context.Context, string, string, int) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	pipelineHooks PipelineHooks = NoopPipelineHooks{}
	outputHooks   OutputHooks   = NoopOutputHooks{}
	hooksMu       sync.RWMutex
)

// SetPipelineHooks registers custom pipeline hooks.
// This should be called once at application startup before any runs.
func SetPipelineHooks(h PipelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pipelineHooks = h
	}
}

// SetOutputHooks registers custom output hooks.
func SetOutputHooks(h OutputHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		outputHooks = h
	}
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pipelineHooks
}

// Output returns the registered output hooks.
func Output() OutputHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return outputHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	pipelineHooks = NoopPipelineHooks{}
	outputHooks = NoopOutputHooks{}
}
