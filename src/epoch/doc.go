// Package epoch implements the Epoch Source consumed by oracles.
//
// A Manager combines three things: a Clock that numbers epochs, a score board
// where the host records how available every node was during each epoch, and a
// Store that persists the agreed table of every synchronized epoch along with
// the sync cursor (the last synchronized epoch).
//
// Epochs are numbered from 1. Epoch 0 is the time before genesis, there is
// nothing to agree on for it, and a sync cursor of 0 means that no epoch was
// synchronized yet.
//
// Stores only accept agreed tables in sequence: writing epoch e requires the
// cursor to be e-1. Anything older fails with a TooLate StoreErr, anything
// newer with a SkippedIndex StoreErr, and the cursor is left untouched.
package epoch
