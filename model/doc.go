// Package model holds the logical project state read by the engine: layers
// of clips, output slices and the orphaned-locator list.
//
// The engine only consumes Snapshot values through StateProvider. Store is
// an in-memory provider with the editing operations of a live session.
package model
