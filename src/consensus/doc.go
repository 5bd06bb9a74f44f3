// Package consensus holds the oracle data model and the Consensus Aggregator.
//
// Each oracle computes a LocalTable, mapping node addresses to availability
// scores, for the epoch that just ended. Oracles exchange their LocalTables and
// each one computes, for every node, the median of the values it received
// (MedianScores). The signed medians (MedianEntry) are exchanged in turn, and
// the value submitted by a strict majority of the expected participants becomes
// the agreed value for that node (AgreeMedianTables). The signed medians that
// carry the agreed value travel with it as a proof (AgreedEntry).
//
// Oracles that fell behind rebuild AgreedTables from the answers of their peers
// instead, applying the same majority rule to whole AgreedTables
// (AgreeAgreedTables).
//
// All the functions of this package are pure: they neither sign, verify, log
// nor keep state, and their results only depend on their arguments, including
// the order of the submissions which is used to break ties.
package consensus
