package oracle

import (
	"fmt"

	"github.com/NaeuralEdgeProtocol/oraclesync/src/consensus"
)

// ValidationError explains why a received message was dropped.
type ValidationError struct {
	Stage  Stage
	Sender string
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: message from %s rejected: %s", e.Stage, e.Sender, e.Reason)
}

// check validates a message received in a given state.
type check func(o *Oracle, m *Message) error

// validators is the dispatch table of the receiving states: for each of them,
// the stages its messages may be tagged with and the content check of each.
// Oracles in S8 accept the requests of other lagging oracles, which tell them
// which epochs those oracles miss.
var validators = map[Stage]map[Stage]check{
	WaitForEpochChange: {
		RequestAgreedMedianTable: checkRequest,
	},
	SendLocalTable: {
		SendLocalTable: checkLocalTable,
	},
	SendMedianTable: {
		SendMedianTable: checkMedianTable,
	},
	SendAgreedMedianTable: {
		SendAgreedMedianTable: checkAgreedTable,
	},
	RequestAgreedMedianTable: {
		WaitForEpochChange:       checkAnswer,
		RequestAgreedMedianTable: checkRequest,
	},
}

// validate runs the checks shared by every message, then those of the
// receiving state. Signatures are verified after the cheap structural checks.
func (o *Oracle) validate(receiver Stage, m *Message) error {
	reject := func(format string, args ...interface{}) error {
		return &ValidationError{
			Stage:  receiver,
			Sender: m.Sender(),
			Reason: fmt.Sprintf(format, args...),
		}
	}

	checks, ok := validators[receiver]
	if !ok {
		return reject("state does not receive messages")
	}

	check, ok := checks[m.Stage]
	if !ok {
		return reject("unexpected stage %s", m.Stage)
	}

	if m.Sender() == "" {
		return reject("unsigned")
	}

	if m.Sender() == o.address {
		return reject("own message")
	}

	if !o.oracles.Contains(m.Sender()) {
		return reject("sender is not an oracle")
	}

	if err := check(o, m); err != nil {
		return reject("%v", err)
	}

	if err := o.signer.Verify(m); err != nil {
		return reject("%v", err)
	}

	return nil
}

func checkRequest(o *Oracle, m *Message) error {
	if !m.RequestAgreedMedianTable {
		return fmt.Errorf("not a request")
	}
	if m.StartEpoch == 0 || m.StartEpoch > m.EndEpoch {
		return fmt.Errorf("bad range [%d, %d]", m.StartEpoch, m.EndEpoch)
	}
	// a request sent before the last epoch change says nothing about what
	// its sender holds now
	if current := o.source.CurrentEpoch(); m.Epoch < current {
		return fmt.Errorf("stale request from epoch %d, current is %d", m.Epoch, current)
	}
	return nil
}

// checkParticipation enforces that a value is present if and only if the
// sender is expected to participate.
func checkParticipation(o *Oracle, m *Message, present bool) error {
	if m.Epoch != o.round.epoch {
		return fmt.Errorf("epoch %d, expected %d", m.Epoch, o.round.epoch)
	}

	expected := o.round.participation.Expected(m.Sender())
	switch {
	case expected && !present:
		return fmt.Errorf("participant sent no value")
	case !expected && present:
		return fmt.Errorf("value sent by non participant")
	}
	return nil
}

func checkLocalTable(o *Oracle, m *Message) error {
	return checkParticipation(o, m, m.LocalTable != nil)
}

func checkMedianTable(o *Oracle, m *Message) error {
	if err := checkParticipation(o, m, m.MedianTable != nil); err != nil {
		return err
	}

	for node, entry := range m.MedianTable {
		if entry == nil {
			return fmt.Errorf("null median for %s", node)
		}
		if entry.Node != node || entry.Epoch != o.round.epoch {
			return fmt.Errorf("median for %s is for node %s in epoch %d", node, entry.Node, entry.Epoch)
		}
		if entry.Signature.Signer != m.Sender() {
			return fmt.Errorf("median for %s signed by %s", node, entry.Signature.Signer)
		}
		if err := o.signer.Verify(entry); err != nil {
			return fmt.Errorf("median for %s: %v", node, err)
		}
	}

	return nil
}

func checkAgreedTable(o *Oracle, m *Message) error {
	if err := checkParticipation(o, m, m.AgreedMedianTable != nil); err != nil {
		return err
	}
	return o.checkProofs(m.Epoch, m.AgreedMedianTable)
}

func checkAnswer(o *Oracle, m *Message) error {
	if m.RequestAgreedMedianTable {
		return fmt.Errorf("request tagged as answer")
	}
	for _, et := range m.EpochAgreedMedianTable {
		if et.Table == nil {
			return fmt.Errorf("null table for epoch %d", et.Epoch)
		}
		if err := o.checkProofs(et.Epoch, et.Table); err != nil {
			return fmt.Errorf("epoch %d: %v", et.Epoch, err)
		}
	}
	return nil
}

// checkProofs verifies that every entry of an AgreedTable is backed by valid
// signatures of distinct oracles over the entry's value for that node and
// epoch.
func (o *Oracle) checkProofs(epoch uint64, table consensus.AgreedTable) error {
	for node, entry := range table {
		if entry == nil || len(entry.Signatures) == 0 {
			return fmt.Errorf("no proof for %s", node)
		}

		signers := make(map[string]struct{}, len(entry.Signatures))
		for _, sig := range entry.Signatures {
			if sig == nil {
				return fmt.Errorf("null proof for %s", node)
			}
			if sig.Node != node || sig.Epoch != epoch || sig.Value != entry.Value {
				return fmt.Errorf("proof for %s does not match value %d", node, entry.Value)
			}
			if _, ok := signers[sig.Signature.Signer]; ok {
				return fmt.Errorf("duplicate signer in proof for %s", node)
			}
			signers[sig.Signature.Signer] = struct{}{}
			if !o.oracles.Contains(sig.Signature.Signer) {
				return fmt.Errorf("proof for %s signed by non oracle", node)
			}
			if err := o.signer.Verify(sig); err != nil {
				return fmt.Errorf("proof for %s: %v", node, err)
			}
		}
	}
	return nil
}
