package sh

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/mcuasync/pkg/board"
	"github.com/robotalks/mcuasync/pkg/fairshare"
)

func newTestSession(t *testing.T) (*Session, func()) {
	conf := board.NewConfig()
	conf.ID = "sh-test"
	conf.TelemetryURL = ""
	conf.SPILatency = time.Millisecond
	conf.SPIJitter = 0
	b, err := conf.NewBoard()
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		b.Run(ctx)
		close(done)
	}()
	s := NewSession(b)
	return s, func() {
		s.Close()
		cancel()
		<-done
	}
}

func TestAccessInTicketOrder(t *testing.T) {
	s, stop := newTestSession(t)
	defer stop()
	granted := make(chan string, 2)
	s.OnGranted = func(name string, _ fairshare.Ticket) { granted <- name }

	ticket, ok, err := s.Access("a")
	require.NoError(t, err)
	require.True(t, ok)
	require.EqualValues(t, 0, ticket)
	_, _, err = s.Access("a")
	require.Equal(t, ErrHolderExists, err)

	ticket, ok, err = s.Access("b")
	require.NoError(t, err)
	require.False(t, ok)
	require.EqualValues(t, 1, ticket)
	ticket, ok, err = s.Access("c")
	require.NoError(t, err)
	require.False(t, ok)
	require.EqualValues(t, 2, ticket)

	_, err = s.Value("b", nil)
	require.Equal(t, ErrNotGranted, err)
	v := uint32(7)
	val, err := s.Value("a", &v)
	require.NoError(t, err)
	require.EqualValues(t, 7, val)

	st := s.Status()
	require.Equal(t, 2, st.Waiting)
	require.True(t, st.Busy)
	require.Len(t, st.Holders, 3)
	require.True(t, st.Holders[0].Granted)
	require.False(t, st.Holders[1].Granted)

	require.NoError(t, s.Release("a"))
	require.Equal(t, "b", <-granted)
	val, err = s.Value("b", nil)
	require.NoError(t, err)
	require.EqualValues(t, 7, val)

	require.NoError(t, s.Release("b"))
	require.Equal(t, "c", <-granted)
	require.NoError(t, s.Release("c"))
	require.Equal(t, ErrNoHolder, s.Release("c"))
	require.False(t, s.Status().Busy)
}

func TestReleaseWithdrawsPending(t *testing.T) {
	s, stop := newTestSession(t)
	defer stop()
	granted := make(chan string, 2)
	s.OnGranted = func(name string, _ fairshare.Ticket) { granted <- name }

	_, ok, err := s.Access("a")
	require.NoError(t, err)
	require.True(t, ok)
	_, ok, err = s.Access("b")
	require.NoError(t, err)
	require.False(t, ok)
	_, ok, err = s.Access("c")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.Release("b"))
	require.NoError(t, s.Release("a"))
	require.Equal(t, "c", <-granted)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Wait(ctx, "c"))
	require.Equal(t, 0, s.Status().Waiting)
}

func TestSessionTransfer(t *testing.T) {
	s, stop := newTestSession(t)
	defer stop()
	require.Equal(t, []byte{0xfe, 0x00}, s.Transfer([]byte{0x01, 0xff}))
	st := s.Status()
	require.True(t, st.SPIIdle)
	require.EqualValues(t, 1, st.Transfers)
}
