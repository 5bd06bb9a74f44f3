package oracle

import (
	"testing"

	"github.com/NaeuralEdgeProtocol/oraclesync/src/consensus"
	"github.com/NaeuralEdgeProtocol/oraclesync/src/crypto/keys"
	"github.com/NaeuralEdgeProtocol/oraclesync/src/net"
	"github.com/NaeuralEdgeProtocol/oraclesync/src/signer"
)

// newValidatorFixture returns oracle 0 of a 3-oracle network in S2 of the
// round for epoch 1, expecting oracles 0 and 1.
func newValidatorFixture(t *testing.T) (*network, *testOracle, []*signer.ECDSASigner) {
	n := newNetwork(t, 3, 2)
	o := n.start(0)

	if err := o.SetStage(SendLocalTable); err != nil {
		t.Fatal(err)
	}
	o.round.participation.Expect(n.address(0))
	o.round.participation.Expect(n.address(1))

	signers := []*signer.ECDSASigner{}
	for _, k := range n.keys {
		signers = append(signers, signer.NewECDSASigner(k))
	}

	return n, o, signers
}

func signed(t *testing.T, s *signer.ECDSASigner, m *Message) *Message {
	if err := s.Sign(m); err != nil {
		t.Fatal(err)
	}
	return m
}

func TestStageIsolation(t *testing.T) {
	_, o, signers := newValidatorFixture(t)

	msg := func(stage Stage) *Message {
		return signed(t, signers[1], &Message{
			Stage:      stage,
			Epoch:      1,
			LocalTable: consensus.LocalTable{"X": 255},
		})
	}

	if err := o.validate(SendLocalTable, msg(SendLocalTable)); err != nil {
		t.Fatalf("valid local table rejected: %v", err)
	}

	for _, stage := range Stages {
		if stage == SendLocalTable {
			continue
		}
		err := o.validate(SendLocalTable, msg(stage))
		if _, ok := err.(*ValidationError); !ok {
			t.Fatalf("local table tagged %s should be rejected, got %v", stage, err)
		}
	}
}

func TestLocalTableValidation(t *testing.T) {
	_, o, signers := newValidatorFixture(t)

	stranger, _ := keys.GenerateECDSAKey()

	tampered := signed(t, signers[1], &Message{Stage: SendLocalTable, Epoch: 1, LocalTable: consensus.LocalTable{"X": 255}})
	tampered.LocalTable["X"] = 0

	cases := []struct {
		name string
		msg  *Message
	}{
		{"unsigned", &Message{Stage: SendLocalTable, Epoch: 1, LocalTable: consensus.LocalTable{}}},
		{"not an oracle", signed(t, signer.NewECDSASigner(stranger), &Message{Stage: SendLocalTable, Epoch: 1, LocalTable: consensus.LocalTable{}})},
		{"tampered", tampered},
		{"other epoch", signed(t, signers[1], &Message{Stage: SendLocalTable, Epoch: 2, LocalTable: consensus.LocalTable{}})},
		{"participant without table", signed(t, signers[1], &Message{Stage: SendLocalTable, Epoch: 1})},
		{"non participant with table", signed(t, signers[2], &Message{Stage: SendLocalTable, Epoch: 1, LocalTable: consensus.LocalTable{}})},
		{"own message", signed(t, signers[0], &Message{Stage: SendLocalTable, Epoch: 1, LocalTable: consensus.LocalTable{}})},
	}

	for _, c := range cases {
		if err := o.validate(SendLocalTable, c.msg); err == nil {
			t.Fatalf("%s: message should be rejected", c.name)
		}
	}

	// a non participant may say it does not participate
	silent := signed(t, signers[2], &Message{Stage: SendLocalTable, Epoch: 1})
	if err := o.validate(SendLocalTable, silent); err != nil {
		t.Fatalf("null table from non participant rejected: %v", err)
	}
}

func TestMedianTableValidation(t *testing.T) {
	_, o, signers := newValidatorFixture(t)
	if err := o.SetStage(SendMedianTable); err != nil {
		t.Fatal(err)
	}
	o.round.participation.Expect(o.address)
	o.round.participation.Expect(signers[1].Address())

	entry := func(s *signer.ECDSASigner, node string, e uint64) *consensus.MedianEntry {
		me := &consensus.MedianEntry{Node: node, Epoch: e, Value: 255}
		if err := s.Sign(me); err != nil {
			t.Fatal(err)
		}
		return me
	}

	valid := signed(t, signers[1], &Message{
		Stage:       SendMedianTable,
		Epoch:       1,
		MedianTable: consensus.MedianTable{"X": entry(signers[1], "X", 1)},
	})
	if err := o.validate(SendMedianTable, valid); err != nil {
		t.Fatalf("valid median table rejected: %v", err)
	}

	for name, table := range map[string]consensus.MedianTable{
		"signed by another oracle": {"X": entry(signers[2], "X", 1)},
		"for another node":         {"X": entry(signers[1], "Y", 1)},
		"for another epoch":        {"X": entry(signers[1], "X", 2)},
		"null entry":               {"X": nil},
	} {
		m := signed(t, signers[1], &Message{Stage: SendMedianTable, Epoch: 1, MedianTable: table})
		if err := o.validate(SendMedianTable, m); err == nil {
			t.Fatalf("median %s should be rejected", name)
		}
	}

	null := signed(t, signers[1], &Message{Stage: SendMedianTable, Epoch: 1})
	if err := o.validate(SendMedianTable, null); err == nil {
		t.Fatalf("null median table from a participant should be rejected")
	}
}

func TestAgreedTableProofs(t *testing.T) {
	_, o, signers := newValidatorFixture(t)

	entry := func(s *signer.ECDSASigner, v consensus.Score) *consensus.MedianEntry {
		me := &consensus.MedianEntry{Node: "X", Epoch: 1, Value: v}
		if err := s.Sign(me); err != nil {
			t.Fatal(err)
		}
		return me
	}

	good := consensus.AgreedTable{"X": {Value: 255, Signatures: []*consensus.MedianEntry{entry(signers[0], 255), entry(signers[1], 255)}}}
	if err := o.checkProofs(1, good); err != nil {
		t.Fatalf("valid proof rejected: %v", err)
	}

	forged := entry(signers[1], 255)
	forged.Value = 0

	for name, table := range map[string]consensus.AgreedTable{
		"no proof":          {"X": {Value: 255}},
		"other value":       {"X": {Value: 255, Signatures: []*consensus.MedianEntry{entry(signers[0], 0)}}},
		"duplicate signers": {"X": {Value: 255, Signatures: []*consensus.MedianEntry{entry(signers[0], 255), entry(signers[0], 255)}}},
		"forged":            {"X": {Value: 0, Signatures: []*consensus.MedianEntry{forged}}},
	} {
		if err := o.checkProofs(1, table); err == nil {
			t.Fatalf("%s should be rejected", name)
		}
	}

	if err := o.checkProofs(2, good); err == nil {
		t.Fatalf("proof should not be valid for another epoch")
	}
}

func TestCatchUpValidation(t *testing.T) {
	_, o, signers := newValidatorFixture(t)

	request := signed(t, signers[1], &Message{
		Stage:                    RequestAgreedMedianTable,
		Epoch:                    2,
		RequestAgreedMedianTable: true,
		StartEpoch:               1,
		EndEpoch:                 1,
	})
	if err := o.validate(WaitForEpochChange, request); err != nil {
		t.Fatalf("request rejected in S0: %v", err)
	}
	if err := o.validate(RequestAgreedMedianTable, request); err != nil {
		t.Fatalf("request rejected in S8: %v", err)
	}

	badRange := signed(t, signers[1], &Message{
		Stage:                    RequestAgreedMedianTable,
		Epoch:                    2,
		RequestAgreedMedianTable: true,
		StartEpoch:               3,
		EndEpoch:                 1,
	})
	if err := o.validate(WaitForEpochChange, badRange); err == nil {
		t.Fatalf("inverted range should be rejected")
	}

	answer := signed(t, signers[1], &Message{
		Stage:                  WaitForEpochChange,
		Epoch:                  2,
		EpochAgreedMedianTable: []EpochTable{{Epoch: 1, Table: consensus.AgreedTable{}}},
	})
	if err := o.validate(RequestAgreedMedianTable, answer); err != nil {
		t.Fatalf("answer rejected in S8: %v", err)
	}
	if err := o.validate(WaitForEpochChange, answer); err == nil {
		t.Fatalf("answers should not be accepted in S0")
	}

	if err := o.validate(ComputeMedianTable, answer); err == nil {
		t.Fatalf("S3 does not receive messages")
	}
}

func TestStaleRequestIsIgnored(t *testing.T) {
	n, o, signers := newValidatorFixture(t)
	n.clock.Set(3)

	stale := signed(t, signers[1], &Message{
		Stage:                    RequestAgreedMedianTable,
		Epoch:                    2,
		RequestAgreedMedianTable: true,
		StartEpoch:               1,
		EndEpoch:                 2,
	})
	if err := o.validate(WaitForEpochChange, stale); err == nil {
		t.Fatalf("request from an earlier epoch should be rejected in S0")
	}
	if err := o.validate(RequestAgreedMedianTable, stale); err == nil {
		t.Fatalf("request from an earlier epoch should be rejected in S8")
	}

	current := signed(t, signers[1], &Message{
		Stage:                    RequestAgreedMedianTable,
		Epoch:                    3,
		RequestAgreedMedianTable: true,
		StartEpoch:               1,
		EndEpoch:                 2,
	})
	if err := o.validate(RequestAgreedMedianTable, current); err != nil {
		t.Fatalf("request for the current epoch rejected: %v", err)
	}
}

func TestStaleRequestDoesNotCountAsLacking(t *testing.T) {
	n := newNetwork(t, 3, 3)
	o := n.start(0)

	_, feed := net.NewInmemTransport("feed")
	feed.Connect(o.transport.LocalAddr(), o.transport)

	// oracle 1 asked before the epoch changed, oracle 2 asks now
	for i, e := range map[int]uint64{1: 2, 2: 3} {
		m := signed(t, signer.NewECDSASigner(n.keys[i]), &Message{
			Stage:                    RequestAgreedMedianTable,
			Epoch:                    e,
			RequestAgreedMedianTable: true,
			StartEpoch:               1,
			EndEpoch:                 2,
		})
		data, err := m.Marshal()
		if err != nil {
			t.Fatal(err)
		}
		if err := feed.Broadcast(data); err != nil {
			t.Fatal(err)
		}
	}

	if err := o.requestAgreedTables(); err != nil {
		t.Fatal(err)
	}

	for e := uint64(1); e <= 2; e++ {
		lacking := o.catchUp.lacking[e]
		if _, ok := lacking[n.address(2)]; !ok {
			t.Fatalf("epoch %d: current request should count its sender as lacking", e)
		}
		if _, ok := lacking[n.address(1)]; ok {
			t.Fatalf("epoch %d: stale request should not count its sender as lacking", e)
		}
	}
}
