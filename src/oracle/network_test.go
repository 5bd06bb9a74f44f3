package oracle

import (
	"crypto/ecdsa"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/NaeuralEdgeProtocol/oraclesync/src/common"
	"github.com/NaeuralEdgeProtocol/oraclesync/src/consensus"
	"github.com/NaeuralEdgeProtocol/oraclesync/src/crypto/keys"
	"github.com/NaeuralEdgeProtocol/oraclesync/src/epoch"
	"github.com/NaeuralEdgeProtocol/oraclesync/src/net"
	"github.com/NaeuralEdgeProtocol/oraclesync/src/peers"
	"github.com/NaeuralEdgeProtocol/oraclesync/src/signer"
	"github.com/sirupsen/logrus"
)

const (
	testSendPeriod   = 10 * time.Second
	testSendInterval = 2 * time.Second
	testTick         = time.Second
)

// fakeTime is the wall clock shared by the oracles of a test network.
type fakeTime struct {
	sync.Mutex
	now time.Time
}

func (f *fakeTime) Now() time.Time {
	f.Lock()
	defer f.Unlock()
	return f.now
}

func (f *fakeTime) Advance(d time.Duration) {
	f.Lock()
	defer f.Unlock()
	f.now = f.now.Add(d)
}

type testOracle struct {
	*Oracle
	manager   *epoch.Manager
	transport *net.InmemTransport
	signer    *signer.ECDSASigner
}

// network simulates oracles sharing an epoch clock, a wall clock and an
// in-memory broadcast medium.
type network struct {
	t       *testing.T
	clock   *epoch.ManualClock
	time    *fakeTime
	keys    []*ecdsa.PrivateKey
	peerSet *peers.PeerSet
	oracles map[int]*testOracle
}

func newNetwork(t *testing.T, n int, startEpoch uint64) *network {
	nw := &network{
		t:       t,
		clock:   epoch.NewManualClock(startEpoch),
		time:    &fakeTime{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		oracles: make(map[int]*testOracle),
	}

	ps := []*peers.Peer{}
	for i := 0; i < n; i++ {
		key, err := keys.GenerateECDSAKey()
		if err != nil {
			t.Fatal(err)
		}
		nw.keys = append(nw.keys, key)
		ps = append(ps, peers.NewPeer(keys.PublicKeyHex(&key.PublicKey), "", fmt.Sprintf("oracle%d", i)))
	}
	nw.peerSet = peers.NewPeerSet(ps)

	return nw
}

func (n *network) address(i int) string {
	return keys.PublicKeyHex(&n.keys[i].PublicKey)
}

func (n *network) config() *Config {
	return &Config{
		SendPeriod:           testSendPeriod,
		SendInterval:         testSendInterval,
		RequestTimeoutFactor: 10,
		MaxRequestEpochs:     100,
		Now:                  n.time.Now,
		Logger:               common.NewTestEntry(n.t, logrus.DebugLevel),
	}
}

// start creates oracle i and connects it to the oracles already started.
func (n *network) start(i int) *testOracle {
	to := n.detached(i)

	for _, other := range n.oracles {
		other.transport.Connect(to.transport.LocalAddr(), to.transport)
		to.transport.Connect(other.transport.LocalAddr(), other.transport)
	}

	n.oracles[i] = to
	return to
}

// detached returns oracle i with a fresh store, sharing the clocks of the
// network but connected to nobody.
func (n *network) detached(i int) *testOracle {
	manager := epoch.NewManager(n.clock, epoch.NewInmemStore(), common.NewTestEntry(n.t, common.TestLogLevel))
	_, trans := net.NewInmemTransport(n.address(i))
	sig := signer.NewECDSASigner(n.keys[i])

	o, err := NewOracle(n.config(), manager, sig, trans, n.peerSet)
	if err != nil {
		n.t.Fatal(err)
	}

	return &testOracle{
		Oracle:    o,
		manager:   manager,
		transport: trans,
		signer:    sig,
	}
}

// record makes every started oracle observe the scores of the oracles in
// epoch e, plus the extra scores of observer i.
func (n *network) record(e uint64, oracleScore func(i int) consensus.Score, extra func(i int) map[string]consensus.Score) {
	for i, o := range n.oracles {
		scores := make(map[string]consensus.Score)
		for j := range n.keys {
			scores[n.address(j)] = oracleScore(j)
		}
		if extra != nil {
			for node, s := range extra(i) {
				scores[node] = s
			}
		}
		o.manager.RecordScores(e, scores)
	}
}

func (n *network) step() {
	n.time.Advance(testTick)
	for i := 0; i < len(n.keys); i++ {
		if o, ok := n.oracles[i]; ok {
			if err := o.Step(); err != nil {
				n.t.Fatalf("oracle %d: %v", i, err)
			}
		}
	}
}

func (n *network) runUntil(desc string, cond func() bool, maxSteps int) {
	for s := 0; s < maxSteps; s++ {
		n.step()
		if cond() {
			return
		}
	}
	for i, o := range n.oracles {
		n.t.Logf("oracle %d: stage %s, last synced %d", i, o.Stage(), o.manager.LastSyncedEpoch())
	}
	n.t.Fatalf("timeout waiting for %s", desc)
}

// synced is true when every started oracle waits in S0 with e committed.
func (n *network) synced(e uint64) func() bool {
	return func() bool {
		for _, o := range n.oracles {
			if o.Stage() != WaitForEpochChange || o.manager.LastSyncedEpoch() != e {
				return false
			}
		}
		return true
	}
}

func fullyOnline(int) consensus.Score { return consensus.FullyOnline }

// onlyFirst scores the first k oracles fully online and the others never seen.
func onlyFirst(k int) func(int) consensus.Score {
	return func(i int) consensus.Score {
		if i < k {
			return consensus.FullyOnline
		}
		return consensus.NeverSeen
	}
}

// runEpoch records the availability of the oracles in e, starts epoch e+1 and
// waits for the round to commit e.
func (n *network) runEpoch(e uint64, oracleScore func(int) consensus.Score, extra func(i int) map[string]consensus.Score) {
	n.record(e, oracleScore, extra)
	n.clock.Set(e + 1)
	n.runUntil(fmt.Sprintf("epoch %d", e), n.synced(e), 200)
}
