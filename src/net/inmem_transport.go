package net

import (
	"crypto/rand"
	"fmt"
	"sync"
)

// NewInmemAddr returns a new in-memory addr with a randomly generate UUID as
// the ID.
func NewInmemAddr() string {
	return generateUUID()
}

// generateUUID is used to generate a random UUID.
func generateUUID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Errorf("failed to read random bytes: %v", err))
	}

	return fmt.Sprintf("%08x-%04x-%04x-%04x-%12x",
		buf[0:4],
		buf[4:6],
		buf[6:8],
		buf[8:10],
		buf[10:16])
}

// InmemTransport implements the Transport interface, to allow oracles to be
// tested in-memory without going over a network.
type InmemTransport struct {
	sync.RWMutex
	localAddr string
	peers     map[string]*InmemTransport
	inbox     *inbox
	shutdown  bool
}

// NewInmemTransport is used to initialize a new transport and generates a
// random local address if none is specified
func NewInmemTransport(addr string) (string, *InmemTransport) {
	if addr == "" {
		addr = NewInmemAddr()
	}
	trans := &InmemTransport{
		localAddr: addr,
		peers:     make(map[string]*InmemTransport),
		inbox:     newInbox(1024),
	}
	return addr, trans
}

// ConnectAll connects every transport to every other one.
func ConnectAll(transports ...*InmemTransport) {
	for _, a := range transports {
		for _, b := range transports {
			if a != b {
				a.Connect(b.LocalAddr(), b)
			}
		}
	}
}

// Broadcast implements the Transport interface. The data is delivered
// synchronously to every connected transport.
func (i *InmemTransport) Broadcast(data []byte) error {
	i.RLock()
	defer i.RUnlock()

	if i.shutdown {
		return ErrTransportShutdown
	}

	for _, peer := range i.peers {
		peer.deliver(data)
	}

	return nil
}

func (i *InmemTransport) deliver(data []byte) {
	msg := make([]byte, len(data))
	copy(msg, data)
	i.inbox.push(msg)
}

// Received implements the Transport interface.
func (i *InmemTransport) Received() [][]byte {
	return i.inbox.pull()
}

// LocalAddr implements the Transport interface.
func (i *InmemTransport) LocalAddr() string {
	return i.localAddr
}

// Connect is used to connect this transport to another transport for a given
// peer name. This allows for local routing.
func (i *InmemTransport) Connect(peer string, t *InmemTransport) {
	i.Lock()
	defer i.Unlock()
	i.peers[peer] = t
}

// Disconnect is used to remove the ability to route to a given peer.
func (i *InmemTransport) Disconnect(peer string) {
	i.Lock()
	defer i.Unlock()
	delete(i.peers, peer)
}

// DisconnectAll is used to remove all routes to peers.
func (i *InmemTransport) DisconnectAll() {
	i.Lock()
	defer i.Unlock()
	i.peers = make(map[string]*InmemTransport)
}

// Close is used to permanently disable the transport
func (i *InmemTransport) Close() error {
	i.DisconnectAll()
	i.Lock()
	i.shutdown = true
	i.Unlock()
	return nil
}
