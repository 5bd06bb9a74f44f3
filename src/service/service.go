package service

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"

	"github.com/NaeuralEdgeProtocol/oraclesync/src/common"
	"github.com/NaeuralEdgeProtocol/oraclesync/src/consensus"
	"github.com/NaeuralEdgeProtocol/oraclesync/src/node"
	"github.com/NaeuralEdgeProtocol/oraclesync/src/peers"
	"github.com/sirupsen/logrus"
)

// Service exposes the state of a node over HTTP.
type Service struct {
	sync.Mutex

	bindAddress string
	node        *node.Node
	mux         *http.ServeMux
	logger      *logrus.Entry
}

// NewService ...
func NewService(bindAddress string, n *node.Node, logger *logrus.Entry) *Service {
	service := Service{
		bindAddress: bindAddress,
		node:        n,
		mux:         http.NewServeMux(),
		logger:      logger,
	}

	service.registerHandlers()

	return &service
}

func (s *Service) registerHandlers() {
	s.logger.Debug("Registering Oracle Sync API handlers")
	s.mux.HandleFunc("/stats", s.makeHandler(s.GetStats))
	s.mux.HandleFunc("/epoch/", s.makeHandler(s.GetEpoch))
	s.mux.HandleFunc("/epochs/last", s.makeHandler(s.GetLastEpoch))
	s.mux.HandleFunc("/peers", s.makeHandler(s.GetPeers))
	s.mux.HandleFunc("/scores/", s.makeHandler(s.PostScores))
}

func (s *Service) makeHandler(fn func(http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Lock()
		defer s.Unlock()

		// enable CORS
		w.Header().Set("Access-Control-Allow-Origin", "*")

		fn(w, r)
	}
}

// Handler returns the handler serving the API.
func (s *Service) Handler() http.Handler {
	return s.mux
}

// Serve calls ListenAndServe. This is a blocking call.
func (s *Service) Serve() {
	s.logger.WithField("bind_address", s.bindAddress).Debug("Serving Oracle Sync API")

	err := http.ListenAndServe(s.bindAddress, s.mux)
	if err != nil {
		s.logger.Error(err)
	}
}

// GetStats ...
func (s *Service) GetStats(w http.ResponseWriter, r *http.Request) {
	stats := s.node.GetStats()

	w.Header().Set("Content-Type", "application/json")

	json.NewEncoder(w).Encode(stats)
}

// GetEpoch returns the AgreedTable committed for the epoch in the path, with
// its proofs, in the canonical encoding oracles sign.
func (s *Service) GetEpoch(w http.ResponseWriter, r *http.Request) {
	param := r.URL.Path[len("/epoch/"):]

	epoch, err := strconv.ParseUint(param, 10, 64)
	if err != nil {
		s.logger.WithError(err).Errorf("Parsing epoch parameter %s", param)

		http.Error(w, err.Error(), http.StatusBadRequest)

		return
	}

	table, err := s.node.GetEpochTable(epoch)
	if err != nil {
		s.logger.WithError(err).Debugf("Retrieving epoch %d", epoch)

		status := http.StatusInternalServerError
		if common.IsStore(err, common.KeyNotFound) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)

		return
	}

	data, err := table.Marshal()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	w.Write(data)
}

// GetLastEpoch returns the last synced epoch.
func (s *Service) GetLastEpoch(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	json.NewEncoder(w).Encode(map[string]uint64{
		"last_synced_epoch": s.node.LastSyncedEpoch(),
	})
}

// PostScores records the availability scores the local monitor observed for
// the epoch in the path. The body is a JSON object mapping node addresses to
// scores between 0 and 255.
func (s *Service) PostScores(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	param := r.URL.Path[len("/scores/"):]

	epoch, err := strconv.ParseUint(param, 10, 64)
	if err != nil {
		s.logger.WithError(err).Errorf("Parsing epoch parameter %s", param)

		http.Error(w, err.Error(), http.StatusBadRequest)

		return
	}

	var scores map[string]consensus.Score
	if err := json.NewDecoder(r.Body).Decode(&scores); err != nil {
		s.logger.WithError(err).Error("Decoding scores")

		http.Error(w, err.Error(), http.StatusBadRequest)

		return
	}

	s.node.RecordScores(epoch, scores)

	w.WriteHeader(http.StatusNoContent)
}

// GetPeers ...
func (s *Service) GetPeers(w http.ResponseWriter, r *http.Request) {
	returnPeerSet(w, r, s.node.GetPeers())
}

func returnPeerSet(w http.ResponseWriter, r *http.Request, peers []*peers.Peer) {
	w.Header().Set("Content-Type", "application/json")

	encoder := json.NewEncoder(w)

	encoder.Encode(peers)
}
