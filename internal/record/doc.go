// Package record provides the columnar record batch that flows through
// pipeline stages.
//
// A Batch is an ordered set of rows with a fixed Schema. Data is stored
// column-wise: every field is one typed slice (float64, int64 or string)
// and all slices have the batch's row count.
//
// Row selection uses Masks, which are compressed bitmaps of row indices:
//
//	m, _ := b.RangeMask("x", 0, 10)
//	inside := b.Select(m)
//
// Select and WithField return new batches and leave the receiver alone.
// Set writes in place and must only be used by a stage that is the sole
// consumer of the batch.
package record
