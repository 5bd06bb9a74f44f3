package net

import (
	"context"
	"crypto/tls"
	"fmt"
	"sync"
	"time"

	"github.com/gammazero/nexus/v3/client"
	"github.com/gammazero/nexus/v3/router"
	"github.com/gammazero/nexus/v3/wamp"
	"github.com/sirupsen/logrus"
)

// WAMPTransport broadcasts messages by publishing them to a topic of a WAMP
// router, and receives the messages published to that topic by the other
// oracles.
type WAMPTransport struct {
	sync.Mutex
	localAddr string
	topic     string
	client    *client.Client
	inbox     *inbox
	shutdown  bool
	logger    *logrus.Entry
}

// WAMPConfig ...
type WAMPConfig struct {
	// RouterURL is the websocket URL of the router, ex: ws://localhost:8000
	RouterURL string
	Realm     string
	Topic     string

	// InsecureSkipVerify accepts any certificate provided by a wss router.
	InsecureSkipVerify bool
	ResponseTimeout    time.Duration
	InboxSize          int
}

// NewWAMPTransport connects to a remote WAMP router and subscribes to the
// oracle topic.
func NewWAMPTransport(localAddr string, conf WAMPConfig, logger *logrus.Entry) (*WAMPTransport, error) {
	cfg := client.Config{
		Realm:           conf.Realm,
		ResponseTimeout: conf.ResponseTimeout,
		Logger:          logger,
	}

	if conf.InsecureSkipVerify {
		logger.Debug("Skip Verify. Accepting any certificate provided by router.")
		cfg.TlsCfg = &tls.Config{InsecureSkipVerify: true}
	}

	cli, err := client.ConnectNet(context.Background(), conf.RouterURL, cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %v", conf.RouterURL, err)
	}

	return newWAMPTransport(localAddr, conf, cli, logger)
}

// NewLocalWAMPTransport connects to a router running in the same process.
func NewLocalWAMPTransport(localAddr string, r router.Router, conf WAMPConfig, logger *logrus.Entry) (*WAMPTransport, error) {
	cli, err := client.ConnectLocal(r, client.Config{
		Realm:  conf.Realm,
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}

	return newWAMPTransport(localAddr, conf, cli, logger)
}

func newWAMPTransport(localAddr string, conf WAMPConfig, cli *client.Client, logger *logrus.Entry) (*WAMPTransport, error) {
	size := conf.InboxSize
	if size == 0 {
		size = 1024
	}

	t := &WAMPTransport{
		localAddr: localAddr,
		topic:     conf.Topic,
		client:    cli,
		inbox:     newInbox(size),
		logger:    logger,
	}

	if err := cli.Subscribe(conf.Topic, t.eventHandler, nil); err != nil {
		cli.Close()
		return nil, fmt.Errorf("subscribing to %s: %v", conf.Topic, err)
	}

	logger.WithField("topic", conf.Topic).Debug("Subscribed")

	return t, nil
}

// eventHandler is called by the client for every publication on the topic.
func (t *WAMPTransport) eventHandler(event *wamp.Event) {
	if len(event.Arguments) != 1 {
		t.logger.Warnf("Event should contain 1 argument, not %d", len(event.Arguments))
		return
	}

	data, ok := wamp.AsString(event.Arguments[0])
	if !ok {
		t.logger.Warn("Error reading event argument")
		return
	}

	t.inbox.push([]byte(data))
}

// Broadcast implements the Transport interface. The router excludes the
// publisher from the recipients.
func (t *WAMPTransport) Broadcast(data []byte) error {
	t.Lock()
	defer t.Unlock()

	if t.shutdown {
		return ErrTransportShutdown
	}

	return t.client.Publish(t.topic, nil, wamp.List{string(data)}, nil)
}

// Received implements the Transport interface.
func (t *WAMPTransport) Received() [][]byte {
	return t.inbox.pull()
}

// Dropped returns the number of messages dropped because the inbox was full.
func (t *WAMPTransport) Dropped() int {
	return t.inbox.droppedCount()
}

// LocalAddr implements the Transport interface.
func (t *WAMPTransport) LocalAddr() string {
	return t.localAddr
}

// Close unsubscribes and closes the connection to the router.
func (t *WAMPTransport) Close() error {
	t.Lock()
	defer t.Unlock()

	if t.shutdown {
		return nil
	}
	t.shutdown = true

	if err := t.client.Unsubscribe(t.topic); err != nil {
		t.logger.WithError(err).Debug("Unsubscribing")
	}
	return t.client.Close()
}
