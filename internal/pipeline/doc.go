// Package pipeline provides push-based processing stages for record
// batches.
//
// Every stage is a flow.Receiver[*record.Batch]: calling Send processes
// the batch and synchronously forwards zero or more batches to the
// stage's target(s). Stages are wired by passing the downstream stage to
// the upstream constructor:
//
//	sink := pipeline.NewCollector()
//	fan := pipeline.NewBranchpoint(sink, plotA, plotB)
//	filter := pipeline.NewBoundsFilter(fan, view, pipeline.RestrictTo("x", "y"))
//	_ = filter.Send(ctx, batch)
//
// Stage links must form a tree or DAG. Delivery is depth-first, so a
// cycle through direct references recurses forever; feedback belongs on
// the exchange.
//
// A Branchpoint hands the same batch to every target. A stage that
// mutates its input, such as ItemModifier, must only be placed where it
// is the sole consumer.
package pipeline
