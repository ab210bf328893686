package mqtt

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMatchTopic(t *testing.T) {
	require.True(t, MatchTopic("b1/events", "b1/events"))
	require.True(t, MatchTopic("b1/events", "+/events"))
	require.True(t, MatchTopic("b1/events", "#"))
	require.True(t, MatchTopic("b1/events/x", "b1/#"))
	require.False(t, MatchTopic("b1/events", "b2/events"))
	require.False(t, MatchTopic("b1", "b1/events"))
	require.False(t, MatchTopic("b1/events/x", "+/events"))
}

func TestClientOptionsFromURL(t *testing.T) {
	opts, prefix, err := ClientOptionsFromURL("mqtt://u:p@localhost:1883/lab?client-id=mcu")
	require.NoError(t, err)
	require.Equal(t, "lab/", prefix)
	require.Len(t, opts.Servers, 1)
	require.Equal(t, "tcp://localhost:1883", opts.Servers[0].String())
	require.Equal(t, "u", opts.Username)
	require.Equal(t, "p", opts.Password)
	require.Equal(t, "mcu", opts.ClientID)

	_, prefix, err = ClientOptionsFromURL("ws://localhost:9001")
	require.NoError(t, err)
	require.Empty(t, prefix)
	require.Equal(t, "b/events", EventsTopic("b"))
}

func TestReaderStopsOnCancel(t *testing.T) {
	r := &Reader{packetCh: make(chan []byte, 1), done: make(chan struct{})}
	r.handleMsg("b/events", []byte{1})
	pkt, err := r.ReadPacket()
	require.NoError(t, err)
	require.Equal(t, []byte{1}, pkt)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-ctx.Done()
		close(r.done)
	}()
	cancel()
	_, err = r.ReadPacket()
	require.Equal(t, io.EOF, err)
}
