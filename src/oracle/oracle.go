package oracle

import (
	"sort"
	"time"

	"github.com/NaeuralEdgeProtocol/oraclesync/src/consensus"
	"github.com/NaeuralEdgeProtocol/oraclesync/src/fsm"
	"github.com/sirupsen/logrus"
)

// round holds everything an oracle accumulates during one epoch cycle. It is
// replaced, never cleared field by field.
type round struct {
	// cached is the current epoch when the round was created; epoch is the
	// epoch under agreement, the one before it.
	cached uint64
	epoch  uint64

	participating bool
	participation *ParticipationSet

	localTable  consensus.LocalTable
	medianTable consensus.MedianTable
	agreedTable consensus.AgreedTable

	// received values, keyed by sender
	localTables  map[string]consensus.LocalTable
	medianTables map[string]consensus.MedianTable
	agreedTables map[string]consensus.AgreedTable
}

func newRound(current uint64) *round {
	r := &round{
		cached:        current,
		participation: NewParticipationSet(),
		localTables:   make(map[string]consensus.LocalTable),
		medianTables:  make(map[string]consensus.MedianTable),
		agreedTables:  make(map[string]consensus.AgreedTable),
	}
	if current > 0 {
		r.epoch = current - 1
	}
	return r
}

// catchUp holds what S8 learnt about the missing epochs.
type catchUp struct {
	start, end uint64
	// answers[epoch][sender] are the tables sent by peers holding the epoch.
	answers map[uint64]map[string]consensus.AgreedTable
	// lacking[epoch] are the peers known not to hold the epoch.
	lacking map[uint64]map[string]struct{}
}

func newCatchUp() *catchUp {
	return &catchUp{
		answers: make(map[uint64]map[string]consensus.AgreedTable),
		lacking: make(map[uint64]map[string]struct{}),
	}
}

func (c *catchUp) answer(epoch uint64, sender string, table consensus.AgreedTable) {
	byEpoch, ok := c.answers[epoch]
	if !ok {
		byEpoch = make(map[string]consensus.AgreedTable)
		c.answers[epoch] = byEpoch
	}
	byEpoch[sender] = table
}

func (c *catchUp) lack(epoch uint64, sender string) {
	bySender, ok := c.lacking[epoch]
	if !ok {
		bySender = make(map[string]struct{})
		c.lacking[epoch] = bySender
	}
	bySender[sender] = struct{}{}
}

// pendingCommit is the AgreedTable handed from S6 to S7.
type pendingCommit struct {
	epoch uint64
	table consensus.AgreedTable
}

// Oracle runs the synchronization protocol for one oracle.
type Oracle struct {
	conf      *Config
	address   string
	source    EpochSource
	signer    Signer
	transport Transport
	oracles   OracleSet

	machine *fsm.StateMachine

	round   *round
	catchUp *catchUp
	pending *pendingCommit
	timer   sendTimer

	logger *logrus.Entry
}

// NewOracle creates an oracle. The machine starts in S8 so that an oracle that
// was down first recovers the AgreedTables it missed.
func NewOracle(conf *Config,
	source EpochSource,
	signer Signer,
	transport Transport,
	oracles OracleSet) (*Oracle, error) {

	logger := conf.Logger
	if logger == nil {
		logger = logrus.NewEntry(logrus.New())
	}
	if conf.Now == nil {
		conf.Now = time.Now
	}

	o := &Oracle{
		conf:      conf,
		address:   signer.Address(),
		source:    source,
		signer:    signer,
		transport: transport,
		oracles:   oracles,
		logger:    logger.WithField("oracle", shortAddr(signer.Address())),
	}

	o.resetRound()
	o.resetCatchUp()

	machine, err := fsm.NewStateMachine("oracle_sync",
		string(RequestAgreedMedianTable),
		o.states(),
		o.logger)
	if err != nil {
		return nil, err
	}
	o.machine = machine

	return o, nil
}

// states wires the callbacks and guarded transitions of every stage.
func (o *Oracle) states() map[string]fsm.State {
	return map[string]fsm.State{
		string(WaitForEpochChange): {
			Callback: o.answerRequests,
			Transitions: []fsm.Transition{
				{Next: string(ComputeLocalTable), Guard: o.epochChanged, Action: o.resetRound},
			},
		},
		string(ComputeLocalTable): {
			Callback: o.computeLocalTable,
			Transitions: []fsm.Transition{
				{Next: string(SendLocalTable), Guard: o.canParticipate, Action: o.timer.reset},
				{Next: string(RequestAgreedMedianTable), Guard: fsm.Always, Action: o.resetCatchUp},
			},
		},
		string(SendLocalTable): {
			Callback: o.sendLocalTable,
			Transitions: []fsm.Transition{
				{Next: string(ComputeMedianTable), Guard: o.sendPeriodElapsed},
			},
		},
		string(ComputeMedianTable): {
			Callback: o.computeMedianTable,
			Transitions: []fsm.Transition{
				{Next: string(SendMedianTable), Guard: fsm.Always, Action: o.timer.reset},
			},
		},
		string(SendMedianTable): {
			Callback: o.sendMedianTable,
			Transitions: []fsm.Transition{
				{Next: string(ComputeAgreedMedianTable), Guard: o.sendPeriodElapsed},
			},
		},
		string(ComputeAgreedMedianTable): {
			Callback: o.computeAgreedMedianTable,
			Transitions: []fsm.Transition{
				{Next: string(SendAgreedMedianTable), Guard: fsm.Always, Action: o.timer.reset},
			},
		},
		string(SendAgreedMedianTable): {
			Callback: o.sendAgreedMedianTable,
			Transitions: []fsm.Transition{
				{Next: string(UpdateEpochSource), Guard: o.sendPeriodElapsed, Action: o.closeRound},
			},
		},
		string(UpdateEpochSource): {
			Callback: o.updateEpochSource,
			Transitions: []fsm.Transition{
				{Next: string(WaitForEpochChange), Guard: fsm.Always},
			},
		},
		string(RequestAgreedMedianTable): {
			Callback: o.requestAgreedTables,
			Transitions: []fsm.Transition{
				{Next: string(ComputeRequestedAgreedMedianTable), Guard: o.requestTimedOut},
				{Next: string(WaitForEpochChange), Guard: o.caughtUp, Action: o.resetRound},
			},
		},
		string(ComputeRequestedAgreedMedianTable): {
			Callback: o.computeRequestedAgreedTables,
			Transitions: []fsm.Transition{
				{Next: string(WaitForEpochChange), Guard: fsm.Always, Action: o.resetRound},
			},
		},
	}
}

// Step advances the oracle by one step. Errors are unrecoverable; consensus
// failures satisfy consensus.IsNoMajority.
func (o *Oracle) Step() error {
	return o.machine.Step()
}

// Stage returns the current stage.
func (o *Oracle) Stage() Stage {
	return Stage(o.machine.Current())
}

// SetStage restores a stage saved by the host. The per-epoch state is not
// restored; a restored oracle starts the stage with empty buffers.
func (o *Oracle) SetStage(s Stage) error {
	o.resetRound()
	o.resetCatchUp()
	o.timer.reset()
	return o.machine.SetState(string(s))
}

// Address ...
func (o *Oracle) Address() string {
	return o.address
}

// RoundEpoch returns the epoch under agreement in the current round.
func (o *Oracle) RoundEpoch() uint64 {
	return o.round.epoch
}

// Participating reports whether the oracle takes part in the current round.
func (o *Oracle) Participating() bool {
	return o.round.participating
}

// Participants returns the oracles expected to submit in the current round.
func (o *Oracle) Participants() []string {
	return o.round.participation.Addresses()
}

// resetRound discards the per-epoch state and caches the current epoch.
func (o *Oracle) resetRound() {
	o.round = newRound(o.source.CurrentEpoch())
	o.pending = nil
	o.timer.reset()
}

func (o *Oracle) resetCatchUp() {
	o.catchUp = newCatchUp()
	o.timer.reset()
}

// closeRound hands the agreed table to S7 and drops the buffers of the round.
// The cached epoch is kept so that S0 waits for the next epoch.
func (o *Oracle) closeRound() {
	o.pending = &pendingCommit{
		epoch: o.round.epoch,
		table: o.round.agreedTable,
	}
	o.round = newRound(o.round.cached)
}

/*******************************************************************************
Messaging
*******************************************************************************/

// broadcast signs and sends a message tagged with the current stage.
func (o *Oracle) broadcast(m *Message) {
	m.Stage = o.Stage()

	if err := o.signer.Sign(m); err != nil {
		o.logger.WithError(err).Error("Signing message")
		return
	}

	data, err := m.Marshal()
	if err != nil {
		o.logger.WithError(err).Error("Encoding message")
		return
	}

	if err := o.transport.Broadcast(data); err != nil {
		o.logger.WithError(err).Warn("Broadcasting message")
	}
}

// receive pulls the messages delivered since the last call and returns the
// ones that are valid in the current state. The others are dropped.
func (o *Oracle) receive() []*Message {
	stage := o.Stage()
	res := []*Message{}

	for _, data := range o.transport.Received() {
		m := new(Message)
		if err := m.Unmarshal(data); err != nil {
			o.logger.WithError(err).Debug("Dropping undecodable message")
			continue
		}

		if err := o.validate(stage, m); err != nil {
			o.logger.WithFields(logrus.Fields{
				"stage":  m.Stage,
				"sender": shortAddr(m.Sender()),
			}).Debug(err)
			continue
		}

		res = append(res, m)
	}

	return res
}

/*******************************************************************************
Guards
*******************************************************************************/

func (o *Oracle) epochChanged() bool {
	return o.source.CurrentEpoch() != o.round.cached
}

// upToDate reports whether the only epoch left to commit is the one under
// agreement.
func (o *Oracle) upToDate() bool {
	return o.round.epoch > 0 && o.source.LastSyncedEpoch()+1 == o.round.epoch
}

func (o *Oracle) canParticipate() bool {
	return o.round.participating && o.upToDate()
}

func (o *Oracle) sendPeriodElapsed() bool {
	return o.timer.expired(o.conf.Now(), o.conf.SendPeriod)
}

func shortAddr(address string) string {
	if len(address) <= 12 {
		return address
	}
	return address[:6] + "..." + address[len(address)-4:]
}

func sortedSenders[V any](m map[string]V) []string {
	res := make([]string, 0, len(m))
	for k := range m {
		res = append(res, k)
	}
	sort.Strings(res)
	return res
}
