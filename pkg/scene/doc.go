// Package scene implements the scene-graph substrate that the metadata layer
// stores into: named nodes carrying ordered, typed attribute slots, with
// directed connections between slots forming the runtime graph.
//
// # Model
//
// A Scene owns a flat table of nodes keyed by unique name plus an optional
// parent/child hierarchy. Each Node carries an ordered list of attribute
// Slots. A Slot has a kind from package attr, an optional value, bounds and
// display metadata, and edge state: at most one incoming connection and any
// number of outgoing connections. Array slots hold sparse, integer-indexed
// element slots; compound slots hold named child slots.
//
// # Mutation
//
// Direct methods (CreateNode, AddAttribute, Connect, SetValue, ...) mutate
// immediately. The Modifier type batches the same mutations into a single
// undoable command: queued operations run together at DoIt and reverse in
// LIFO order at UndoIt. An Executor keeps the undo/redo stacks.
//
// Locks gate mutation: a locked node rejects attribute changes and deletion,
// a locked slot rejects value and connection changes. WithUnlocked and
// WithUnlockedNode run a function with the lock cleared and restore the
// recorded state on every path, including errors.
//
// Scene and its nodes are not safe for concurrent use without external
// synchronization.
package scene
