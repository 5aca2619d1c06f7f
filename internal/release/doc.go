// Package release cuts a stream of parsed commits into release blocks and
// groups and sorts the commits of each block.
//
// The stream is expected newest first, which is the order the git source
// yields by default. Commits that precede the first commit satisfying the
// generate-on predicate form the unreleased block. Every satisfying commit
// opens a new block keyed by its version, and it and the older commits that
// follow it, up to the next satisfying commit, belong to that block.
//
// In all-blocks mode every block is emitted, the unreleased one included even
// when empty, so the block count is the number of satisfying commits plus one.
// Otherwise only the most recent non-empty block is emitted and the engine
// stops reading as soon as it closes.
package release
