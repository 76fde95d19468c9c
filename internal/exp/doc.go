// Package exp implements the engine's persistent experience store: a keyed
// map from position hash to the moves previously evaluated there, used to
// seed future searches without recomputation.
//
// On disk an experience file is a short ASCII signature followed by
// fixed-width 20-byte entries. In memory, entries sharing a key form a
// quality-descending chain held in an arena and indexed by key; duplicate
// (key, move) pairs merge into one node. New entries produced during play
// wait in PV/MultiPV pending queues until a save appends them.
//
// Loading runs either synchronously or on a background goroutine with a
// one-shot teardown cancellation; saving is incremental append in the steady
// state and backup-protected full rewrite for maintenance. Defragment and
// MergeFiles compose the two for offline file care.
package exp
