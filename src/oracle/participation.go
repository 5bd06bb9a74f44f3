package oracle

import "sort"

// ParticipationSet records which oracles are expected to submit a value in the
// current round. It is built fresh for every round and only grows.
type ParticipationSet struct {
	expected map[string]struct{}
}

// NewParticipationSet ...
func NewParticipationSet() *ParticipationSet {
	return &ParticipationSet{
		expected: make(map[string]struct{}),
	}
}

// Expect marks an oracle as expected to participate.
func (p *ParticipationSet) Expect(address string) {
	p.expected[address] = struct{}{}
}

// Expected ...
func (p *ParticipationSet) Expected(address string) bool {
	_, ok := p.expected[address]
	return ok
}

// Count is the number of expected participants; quorums are computed against
// it.
func (p *ParticipationSet) Count() int {
	return len(p.expected)
}

// Addresses returns the sorted addresses of the expected participants.
func (p *ParticipationSet) Addresses() []string {
	res := make([]string, 0, len(p.expected))
	for a := range p.expected {
		res = append(res, a)
	}
	sort.Strings(res)
	return res
}
