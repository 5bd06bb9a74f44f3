package consensus

import (
	"errors"
	"fmt"

	"github.com/NaeuralEdgeProtocol/oraclesync/src/common"
)

// ErrInsufficientQuorum is returned by MedianScores when too few oracles
// contributed a LocalTable.
var ErrInsufficientQuorum = errors.New("insufficient quorum")

// NoMajorityError is returned when no value for a node was submitted by a
// strict majority of the expected participants. Oracles treat it as
// unrecoverable.
type NoMajorityError struct {
	Node     string
	Value    Score
	Count    int
	Expected int
}

// Error implements the error interface.
func (e *NoMajorityError) Error() string {
	return fmt.Sprintf("no majority for node %s: best value %d submitted %d times, %d participants expected",
		e.Node, e.Value, e.Count, e.Expected)
}

// IsNoMajority checks whether err is, or wraps, a NoMajorityError.
func IsNoMajority(err error) bool {
	var nm *NoMajorityError
	return errors.As(err, &nm)
}

// MedianSubmission is the MedianTable received from one oracle.
type MedianSubmission struct {
	Oracle string
	Table  MedianTable
}

// AgreedSubmission is the AgreedTable received from one oracle for one epoch.
type AgreedSubmission struct {
	Oracle string
	Table  AgreedTable
}

// Median returns the median of a set of scores.
func Median(values []Score) Score {
	in := make([]int64, len(values))
	for i, v := range values {
		in[i] = int64(v)
	}
	return Score(common.Median(in))
}

// MedianScores computes, for every node appearing in at least one table, the
// median of the values contributed by every table; a node missing from a table
// counts as NeverSeen. Nil tables are not contributions. More than half of the
// expected participants must have contributed.
func MedianScores(tables []LocalTable, expected int) (map[string]Score, error) {
	contributions := make([]LocalTable, 0, len(tables))
	nodes := make(map[string]struct{})
	for _, t := range tables {
		if t == nil {
			continue
		}
		contributions = append(contributions, t)
		for node := range t {
			nodes[node] = struct{}{}
		}
	}

	if !common.StrictMajority(len(contributions), expected) {
		return nil, fmt.Errorf("%w: %d local tables, %d participants expected",
			ErrInsufficientQuorum, len(contributions), expected)
	}

	res := make(map[string]Score, len(nodes))
	values := make([]Score, len(contributions))
	for node := range nodes {
		for i, t := range contributions {
			values[i] = t[node]
		}
		res[node] = Median(values)
	}

	return res, nil
}

// Majority returns the most frequent value, ties going to the value that
// appeared first, and whether its frequency is strictly greater than half of
// expected.
func Majority(values []Score, expected int) (Score, int, bool) {
	counts := make(map[Score]int)
	order := []Score{}
	for _, v := range values {
		if _, ok := counts[v]; !ok {
			order = append(order, v)
		}
		counts[v]++
	}

	if len(order) == 0 {
		return NeverSeen, 0, false
	}

	best := order[0]
	for _, v := range order[1:] {
		if counts[v] > counts[best] {
			best = v
		}
	}

	return best, counts[best], common.StrictMajority(counts[best], expected)
}

// AgreeMedianTables selects, for every node seen across the submissions, the
// majority median and attaches the signed MedianEntries carrying it.
func AgreeMedianTables(subs []MedianSubmission, expected int) (AgreedTable, error) {
	res := make(AgreedTable)

	for _, node := range nodesInOrder(len(subs), func(i int) []string { return sortedKeys(subs[i].Table) }) {
		entries := []*MedianEntry{}
		for _, sub := range subs {
			if e := sub.Table[node]; e != nil {
				entries = append(entries, e)
			}
		}

		values := make([]Score, len(entries))
		for i, e := range entries {
			values[i] = e.Value
		}

		winner, count, ok := Majority(values, expected)
		if !ok {
			return nil, &NoMajorityError{Node: node, Value: winner, Count: count, Expected: expected}
		}

		proof := make([]*MedianEntry, 0, count)
		for _, e := range entries {
			if e.Value == winner {
				proof = append(proof, e)
			}
		}

		res[node] = &AgreedEntry{Value: winner, Signatures: proof}
	}

	return res, nil
}

// AgreeAgreedTables rebuilds an epoch's AgreedTable from the tables sent by
// several peers. The winning value of each node keeps the proof of the first
// submission that carried it.
func AgreeAgreedTables(subs []AgreedSubmission, expected int) (AgreedTable, error) {
	res := make(AgreedTable)

	for _, node := range nodesInOrder(len(subs), func(i int) []string { return sortedKeys(subs[i].Table) }) {
		entries := []*AgreedEntry{}
		for _, sub := range subs {
			if e := sub.Table[node]; e != nil {
				entries = append(entries, e)
			}
		}

		values := make([]Score, len(entries))
		for i, e := range entries {
			values[i] = e.Value
		}

		winner, count, ok := Majority(values, expected)
		if !ok {
			return nil, &NoMajorityError{Node: node, Value: winner, Count: count, Expected: expected}
		}

		for _, e := range entries {
			if e.Value == winner {
				res[node] = &AgreedEntry{
					Value:      winner,
					Signatures: append([]*MedianEntry(nil), e.Signatures...),
				}
				break
			}
		}
	}

	return res, nil
}

// nodesInOrder lists node addresses in the order they are first seen.
func nodesInOrder(n int, nodesOf func(i int) []string) []string {
	seen := make(map[string]struct{})
	res := []string{}
	for i := 0; i < n; i++ {
		for _, node := range nodesOf(i) {
			if _, ok := seen[node]; ok {
				continue
			}
			seen[node] = struct{}{}
			res = append(res, node)
		}
	}
	return res
}
