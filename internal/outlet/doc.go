// Package outlet holds the consumers at the far end of the reserved
// topics: things that react to the coordinator rather than feed it.
//
// RangeUpdater follows bounds.updated and keeps a mappable's value range
// (a colorbar, say) in step with one named coordinate. Redrawer follows
// reflow.done and asks a drawer to repaint once all pipelines have run.
package outlet
