package net

import (
	"bytes"
	"testing"
)

func TestInmemTransportBroadcast(t *testing.T) {
	_, a := NewInmemTransport("a")
	_, b := NewInmemTransport("b")
	_, c := NewInmemTransport("c")
	ConnectAll(a, b, c)

	if err := a.Broadcast([]byte("hello")); err != nil {
		t.Fatal(err)
	}

	for _, tr := range []*InmemTransport{b, c} {
		msgs := tr.Received()
		if len(msgs) != 1 || !bytes.Equal(msgs[0], []byte("hello")) {
			t.Fatalf("%s should have received hello, got %q", tr.LocalAddr(), msgs)
		}
		if len(tr.Received()) != 0 {
			t.Fatalf("%s: messages should only be pulled once", tr.LocalAddr())
		}
	}

	if len(a.Received()) != 0 {
		t.Fatalf("sender should not receive its own broadcast")
	}
}

func TestInmemTransportDisconnect(t *testing.T) {
	_, a := NewInmemTransport("")
	_, b := NewInmemTransport("")
	ConnectAll(a, b)

	a.Disconnect(b.LocalAddr())
	a.Broadcast([]byte("x"))
	if len(b.Received()) != 0 {
		t.Fatalf("disconnected peer received a message")
	}

	b.Broadcast([]byte("y"))
	if len(a.Received()) != 1 {
		t.Fatalf("routes are one-way, a should still receive from b")
	}

	a.Close()
	if err := a.Broadcast([]byte("z")); err != ErrTransportShutdown {
		t.Fatalf("expected ErrTransportShutdown, got %v", err)
	}
}

func TestInboxDropsOldest(t *testing.T) {
	in := newInbox(2)
	in.push([]byte("1"))
	in.push([]byte("2"))
	in.push([]byte("3"))

	msgs := in.pull()
	if len(msgs) != 2 || string(msgs[0]) != "2" || string(msgs[1]) != "3" {
		t.Fatalf("inbox should keep the newest messages, got %q", msgs)
	}
	if in.droppedCount() != 1 {
		t.Fatalf("one message should have been dropped")
	}
}
