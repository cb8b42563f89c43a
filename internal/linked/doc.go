// Package linked keeps several 2-D views of a shared coordinate space in
// sync.
//
// Each view is registered with the names of its horizontal and vertical
// coordinates. When a user finishes changing a view's limits, the view's
// collaborator publishes the view on the interaction.complete topic.
// Panels then:
//
//  1. reads the view's new limits;
//  2. widens one extent if the view is aspect-locked, keeping its center;
//  3. if anything changed, stores both extents in its Bounds and sets the
//     limits of every view that uses either coordinate;
//  4. publishes bounds.updated, reflow.start and reflow.done, in that
//     order.
//
// Delivery on the exchange is synchronous, so every reflow.start
// subscriber has returned before any reflow.done subscriber runs.
//
// Views must not report programmatic limit changes as interactions. If
// one does anyway, Panels drops interactions that arrive while it is
// already handling one.
package linked
