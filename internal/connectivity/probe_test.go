package connectivity

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProbe_ConnectedWhenListenerUp(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go acceptAndClose(ln)

	p := NewProbe(ln.Addr().String(), time.Hour) // loop effectively disabled
	defer p.Close()

	assert.True(t, p.Connected())
}

func TestProbe_DisconnectedWhenNothingListens(t *testing.T) {
	// Grab a free port, then close it so nothing is listening.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	p := NewProbe(addr, time.Hour)
	defer p.Close()
	p.timeout = 200 * time.Millisecond

	assert.False(t, p.Connected())
}

func TestProbe_NotifiesOnTransition(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	go acceptAndClose(ln)

	p := NewProbe(addr, time.Hour)
	defer p.Close()
	p.timeout = 200 * time.Millisecond

	notified := make(chan bool, 4)
	cancel := p.Subscribe(func(online bool) { notified <- online })
	defer cancel()

	// Baseline sample: online, no notification (first observation).
	require.True(t, p.Connected())
	select {
	case <-notified:
		t.Fatal("baseline sample must not notify")
	case <-time.After(50 * time.Millisecond):
	}

	// Take the listener down; the next sample is a transition.
	require.NoError(t, ln.Close())
	require.False(t, p.Connected())

	select {
	case online := <-notified:
		assert.False(t, online)
	case <-time.After(time.Second):
		t.Fatal("expected offline notification")
	}
}

func TestProbe_CloseIdempotent(t *testing.T) {
	p := NewProbe("127.0.0.1:1", time.Hour)
	p.Close()
	p.Close()
}

func acceptAndClose(ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		conn.Close()
	}
}
