// Package oraclesync assembles an oracle from its configuration: key, oracle
// set, epoch store, transport, host node and HTTP service.
package oraclesync

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"os"
	"path/filepath"

	"github.com/NaeuralEdgeProtocol/oraclesync/src/config"
	"github.com/NaeuralEdgeProtocol/oraclesync/src/crypto/keys"
	"github.com/NaeuralEdgeProtocol/oraclesync/src/epoch"
	"github.com/NaeuralEdgeProtocol/oraclesync/src/net"
	"github.com/NaeuralEdgeProtocol/oraclesync/src/node"
	"github.com/NaeuralEdgeProtocol/oraclesync/src/oracle"
	"github.com/NaeuralEdgeProtocol/oraclesync/src/peers"
	"github.com/NaeuralEdgeProtocol/oraclesync/src/service"
	"github.com/NaeuralEdgeProtocol/oraclesync/src/signer"
	"github.com/gammazero/nexus/v3/router"
	"github.com/sirupsen/logrus"
)

// OracleSync is the top-level object. Fields that are set before Init are
// used as they are, the others are created from the Config.
type OracleSync struct {
	Config *config.Config

	// Clock numbers the epochs. Defaults to the genesis clock of the Config.
	Clock epoch.Clock

	// Router, when set, is an in-process WAMP router the transport connects
	// to directly instead of dialing Config.RouterURL.
	Router router.Router

	Peers     *peers.PeerSet
	Store     epoch.Store
	Manager   *epoch.Manager
	Transport net.Transport
	Oracle    *oracle.Oracle
	Node      *node.Node
	Service   *service.Service

	logger *logrus.Entry
}

// NewOracleSync ...
func NewOracleSync(c *config.Config) *OracleSync {
	return &OracleSync{
		Config: c,
		logger: c.Logger(),
	}
}

// Init initialises all the components. It must be called before Run.
func (s *OracleSync) Init() error {
	s.logger.Debug("validateConfig")
	if err := s.validateConfig(); err != nil {
		s.logger.WithError(err).Error("oraclesync.go:Init() validateConfig")
		return err
	}

	s.logger.Debug("initKey")
	if err := s.initKey(); err != nil {
		s.logger.WithError(err).Error("oraclesync.go:Init() initKey")
		return err
	}

	s.logger.Debug("initPeers")
	if err := s.initPeers(); err != nil {
		s.logger.WithError(err).Error("oraclesync.go:Init() initPeers")
		return err
	}

	s.logger.Debug("initStore")
	if err := s.initStore(); err != nil {
		s.logger.WithError(err).Error("oraclesync.go:Init() initStore")
		return err
	}

	s.logger.Debug("initTransport")
	if err := s.initTransport(); err != nil {
		s.logger.WithError(err).Error("oraclesync.go:Init() initTransport")
		return err
	}

	s.logger.Debug("initNode")
	if err := s.initNode(); err != nil {
		s.logger.WithError(err).Error("oraclesync.go:Init() initNode")
		return err
	}

	s.logger.Debug("initService")
	if err := s.initService(); err != nil {
		s.logger.WithError(err).Error("oraclesync.go:Init() initService")
		return err
	}

	return nil
}

// Run starts the service and runs the node until the context is cancelled or
// the node stops. It returns the error that stopped the node.
func (s *OracleSync) Run(ctx context.Context) error {
	if s.Service != nil {
		go s.Service.Serve()
	}

	err := s.Node.Run(ctx)
	if err != nil && s.Node.IsNoMajority() {
		s.logger.WithError(err).Error("Oracle stopped, the network has no majority")
	}

	return err
}

// Shutdown stops the node. The transport and the store are closed with it.
func (s *OracleSync) Shutdown() {
	s.Node.Shutdown()
}

func (s *OracleSync) validateConfig() error {
	if s.Config.TickInterval <= 0 {
		return fmt.Errorf("tick interval must be positive")
	}

	if s.Config.SendInterval > s.Config.SendPeriod {
		s.logger.WithFields(logrus.Fields{
			"send_interval": s.Config.SendInterval,
			"send_period":   s.Config.SendPeriod,
		}).Warn("Send interval longer than send period. Payloads will be sent once per stage.")
	}

	if s.Config.MaxRequestEpochs <= 0 {
		return fmt.Errorf("max-request-epochs must be positive")
	}

	if s.Config.RequestTimeoutFactor <= 0 {
		return fmt.Errorf("request-timeout-factor must be positive")
	}

	return nil
}

func (s *OracleSync) initKey() error {
	if s.Config.Key == nil {
		simpleKeyfile := keys.NewSimpleKeyfile(s.Config.Keyfile())

		privKey, err := simpleKeyfile.ReadKey()
		if err != nil {
			s.logger.Errorf("Error reading private key from file: %v", err)
			return err
		}

		s.Config.Key = privKey
	}
	return nil
}

func (s *OracleSync) initPeers() error {
	if s.Peers == nil {
		if err := s.loadPeers(); err != nil {
			return err
		}
	}

	address := keys.PublicKeyHex(&s.Config.Key.PublicKey)
	if !s.Peers.Contains(address) {
		return fmt.Errorf("cannot find self pubkey in %s", s.Config.PeersFile())
	}

	return nil
}

func (s *OracleSync) loadPeers() error {
	peerStore := peers.NewJSONPeerSet(s.Config.DataDir)

	participants, err := peerStore.PeerSet()
	if err != nil {
		return err
	}

	if participants == nil || participants.Len() == 0 {
		return fmt.Errorf("%s should list at least one oracle", peerStore.Path())
	}

	s.Peers = participants

	return nil
}

func (s *OracleSync) initStore() error {
	if s.Store != nil {
		return nil
	}

	if !s.Config.Store {
		s.Store = epoch.NewInmemStore()

		s.logger.Debug("created new in-mem store")
	} else {
		if err := os.MkdirAll(s.Config.DatabaseDir, 0700); err != nil {
			return err
		}

		s.logger.WithField("path", s.Config.DatabaseDir).Debug("Attempting to load or create database")

		store, err := epoch.NewBadgerStore(s.Config.DatabaseDir, s.logger)
		if err != nil {
			return err
		}

		s.logger.WithField("last_synced_epoch", store.LastSyncedEpoch()).Debug("Opened badger store")

		s.Store = store
	}

	return nil
}

func (s *OracleSync) initTransport() error {
	if s.Transport != nil {
		return nil
	}

	address := keys.PublicKeyHex(&s.Config.Key.PublicKey)

	var (
		trans net.Transport
		err   error
	)

	if s.Router != nil {
		trans, err = net.NewLocalWAMPTransport(address, s.Router, s.Config.WAMPConfig(), s.logger)
	} else {
		trans, err = net.NewWAMPTransport(address, s.Config.WAMPConfig(), s.logger)
	}
	if err != nil {
		return err
	}

	s.Transport = trans

	return nil
}

func (s *OracleSync) initNode() error {
	key := s.Config.Key

	address := keys.PublicKeyHex(&key.PublicKey)

	if s.Config.Moniker == "" {
		s.Config.Moniker = s.Peers.Moniker(address)
	}

	s.logger.WithFields(logrus.Fields{
		"oracles": s.Peers.Len(),
		"address": address,
		"moniker": s.Config.Moniker,
	}).Debug("ORACLES")

	clock := s.Clock
	if clock == nil {
		c, err := s.Config.EpochClock()
		if err != nil {
			return err
		}
		clock = c
	}

	s.Manager = epoch.NewManager(clock, s.Store, s.logger)
	for _, p := range s.Peers.Peers {
		s.Manager.AddNode(p.PubKeyString())
	}

	o, err := oracle.NewOracle(
		s.Config.OracleConfig(),
		s.Manager,
		signer.NewECDSASigner(key),
		s.Transport,
		s.Peers,
	)
	if err != nil {
		return fmt.Errorf("failed to initialize oracle: %s", err)
	}
	s.Oracle = o

	s.Node = node.NewNode(
		s.Config.NodeConfig(),
		s.Oracle,
		s.Manager,
		s.Transport,
		s.Peers,
	)

	return nil
}

func (s *OracleSync) initService() error {
	if !s.Config.NoService {
		s.Service = service.NewService(s.Config.ServiceAddr, s.Node, s.logger)
	}
	return nil
}

// Keygen generates a new key and writes it to the keyfile of the datadir. It
// fails if a key already exists.
func Keygen(datadir string) (*ecdsa.PrivateKey, error) {
	simpleKeyfile := keys.NewSimpleKeyfile(filepath.Join(datadir, config.DefaultKeyfile))

	if _, err := simpleKeyfile.ReadKey(); err == nil {
		return nil, fmt.Errorf("another key already lives under %s", datadir)
	}

	privKey, err := keys.GenerateECDSAKey()
	if err != nil {
		return nil, err
	}

	if err := simpleKeyfile.WriteKey(privKey); err != nil {
		return nil, err
	}

	return privKey, nil
}
