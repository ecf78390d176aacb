package search

import (
	"github.com/poiesic/geofind/ai"
	"github.com/poiesic/geofind/core"
)

// SearchMonitor provides hooks to observe the resolution of a query.
// Implement this interface to trace intermediate steps, as the CLI does
// with --verbose.
type SearchMonitor interface {
	Start(query string)
	DirectHit(name string)
	AfterSpellCheck(before, after string)
	AfterAdvanced(candidates []string, chosen string)
	AfterCorrection(correction ai.Correction)
	AfterEmbedding(text string, dim int)
	Finish(resolution *core.Resolution)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                     {}
func (n *noopMonitor) DirectHit(_ string)                 {}
func (n *noopMonitor) AfterSpellCheck(_, _ string)        {}
func (n *noopMonitor) AfterAdvanced(_ []string, _ string) {}
func (n *noopMonitor) AfterCorrection(_ ai.Correction)    {}
func (n *noopMonitor) AfterEmbedding(_ string, _ int)     {}
func (n *noopMonitor) Finish(_ *core.Resolution)          {}
