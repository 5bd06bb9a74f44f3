package net

import "sync"

// inbox buffers received messages until they are pulled. When full, the oldest
// messages are dropped; the protocol rebroadcasts periodically.
type inbox struct {
	sync.Mutex
	messages [][]byte
	capacity int
	dropped  int
}

func newInbox(capacity int) *inbox {
	return &inbox{capacity: capacity}
}

func (i *inbox) push(data []byte) {
	i.Lock()
	defer i.Unlock()

	if i.capacity > 0 && len(i.messages) >= i.capacity {
		i.messages = i.messages[1:]
		i.dropped++
	}
	i.messages = append(i.messages, data)
}

func (i *inbox) pull() [][]byte {
	i.Lock()
	defer i.Unlock()

	res := i.messages
	i.messages = nil
	return res
}

func (i *inbox) droppedCount() int {
	i.Lock()
	defer i.Unlock()
	return i.dropped
}
