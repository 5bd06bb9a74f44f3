package node

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/NaeuralEdgeProtocol/oraclesync/src/consensus"
	"github.com/NaeuralEdgeProtocol/oraclesync/src/net"
	"github.com/NaeuralEdgeProtocol/oraclesync/src/oracle"
	"github.com/NaeuralEdgeProtocol/oraclesync/src/peers"
	"github.com/sirupsen/logrus"
)

// EpochSource is the epoch source shared by the node and its oracle. The node
// feeds it the availability scores observed by the local monitor and closes it
// on shutdown.
type EpochSource interface {
	oracle.EpochSource
	RecordScores(epoch uint64, scores map[string]consensus.Score)
	Close() error
}

//Node hosts an oracle
type Node struct {
	state

	conf   *Config
	logger *logrus.Entry

	oracle     *oracle.Oracle
	oracleLock sync.Mutex

	source EpochSource
	trans  net.Transport
	peers  *peers.PeerSet

	shutdownCh   chan struct{}
	shutdownOnce sync.Once

	controlTimer *ControlTimer

	start   time.Time
	steps   int
	lastErr error
}

//NewNode is a factory method that returns a Node instance
func NewNode(conf *Config,
	o *oracle.Oracle,
	source EpochSource,
	trans net.Transport,
	peers *peers.PeerSet,
) *Node {
	node := Node{
		conf:         conf,
		logger:       conf.Logger.WithField("moniker", conf.Moniker),
		oracle:       o,
		source:       source,
		trans:        trans,
		peers:        peers,
		shutdownCh:   make(chan struct{}),
		controlTimer: NewTickControlTimer(),
		start:        time.Now(),
	}

	return &node
}

//RunAsync runs the node in a goroutine. Errors are logged and available in
//the stats.
func (n *Node) RunAsync(ctx context.Context) {
	n.logger.Debug("runasync")

	go n.Run(ctx)
}

//Run steps the oracle on every tick until the context is cancelled, the node
//is shut down, or a step fails. The error of a failed step is returned.
func (n *Node) Run(ctx context.Context) error {
	go n.controlTimer.Run(n.conf.TickInterval)

	var statsCh <-chan time.Time
	if n.conf.StatsInterval > 0 {
		ticker := time.NewTicker(n.conf.StatsInterval)
		defer ticker.Stop()
		statsCh = ticker.C
	}

	for {
		select {
		case <-n.controlTimer.tickCh:
			if err := n.step(); err != nil {
				n.logger.WithError(err).Error("Oracle failed")
				n.setState(Failed)
				n.Shutdown()
				return err
			}
		case <-statsCh:
			n.logStats()
		case <-ctx.Done():
			n.Shutdown()
			return nil
		case <-n.shutdownCh:
			return nil
		}
	}
}

func (n *Node) step() error {
	n.oracleLock.Lock()
	defer n.oracleLock.Unlock()

	n.steps++

	if err := n.oracle.Step(); err != nil {
		n.lastErr = err
		return err
	}

	return nil
}

//Shutdown stops the timer and closes the transport and the epoch source. The
//state is left as Failed if the node failed.
func (n *Node) Shutdown() {
	n.shutdownOnce.Do(func() {
		n.logger.Debug("Shutdown")

		if n.getState() != Failed {
			n.setState(Shutdown)
		}

		close(n.shutdownCh)

		n.controlTimer.Shutdown()

		// wait for a running step
		n.oracleLock.Lock()
		defer n.oracleLock.Unlock()

		if err := n.trans.Close(); err != nil {
			n.logger.WithError(err).Warn("Closing transport")
		}

		if err := n.source.Close(); err != nil {
			n.logger.WithError(err).Warn("Closing epoch source")
		}
	})
}

//GetState returns the state of the node
func (n *Node) GetState() State {
	return n.getState()
}

//GetStats returns stats
func (n *Node) GetStats() map[string]string {
	n.oracleLock.Lock()
	defer n.oracleLock.Unlock()

	lastErr := ""
	if n.lastErr != nil {
		lastErr = n.lastErr.Error()
	}

	s := map[string]string{
		"state":             n.getState().String(),
		"stage":             n.oracle.Stage().String(),
		"current_epoch":     strconv.FormatUint(n.source.CurrentEpoch(), 10),
		"last_synced_epoch": strconv.FormatUint(n.source.LastSyncedEpoch(), 10),
		"round_epoch":       strconv.FormatUint(n.oracle.RoundEpoch(), 10),
		"participating":     strconv.FormatBool(n.oracle.Participating()),
		"participants":      strconv.Itoa(len(n.oracle.Participants())),
		"num_oracles":       strconv.Itoa(n.peers.Len()),
		"steps":             strconv.Itoa(n.steps),
		"uptime":            time.Since(n.start).Truncate(time.Second).String(),
		"address":           n.oracle.Address(),
		"moniker":           n.conf.Moniker,
		"last_error":        lastErr,
	}
	return s
}

func (n *Node) logStats() {
	stats := n.GetStats()

	n.logger.WithFields(logrus.Fields{
		"state":             stats["state"],
		"stage":             stats["stage"],
		"current_epoch":     stats["current_epoch"],
		"last_synced_epoch": stats["last_synced_epoch"],
		"participating":     stats["participating"],
		"participants":      stats["participants"],
		"steps":             stats["steps"],
	}).Info("Stats")
}

//GetEpochTable returns the agreed table committed for an epoch
func (n *Node) GetEpochTable(epoch uint64) (consensus.AgreedTable, error) {
	return n.source.EpochTable(epoch)
}

//LastSyncedEpoch ...
func (n *Node) LastSyncedEpoch() uint64 {
	return n.source.LastSyncedEpoch()
}

//RecordScores records the availability scores observed for an epoch. They
//become the LocalTable of the round agreeing on that epoch.
func (n *Node) RecordScores(epoch uint64, scores map[string]consensus.Score) {
	n.logger.WithFields(logrus.Fields{
		"epoch": epoch,
		"nodes": len(scores),
	}).Debug("RecordScores")

	n.source.RecordScores(epoch, scores)
}

//GetPeers returns the oracles
func (n *Node) GetPeers() []*peers.Peer {
	return n.peers.Peers
}

//Stage returns the stage of the oracle
func (n *Node) Stage() oracle.Stage {
	n.oracleLock.Lock()
	defer n.oracleLock.Unlock()
	return n.oracle.Stage()
}

// Err returns the error that stopped the node, if any.
func (n *Node) Err() error {
	n.oracleLock.Lock()
	defer n.oracleLock.Unlock()
	return n.lastErr
}

// IsNoMajority reports whether the node stopped on a consensus failure.
func (n *Node) IsNoMajority() bool {
	err := n.Err()
	return err != nil && consensus.IsNoMajority(err)
}
