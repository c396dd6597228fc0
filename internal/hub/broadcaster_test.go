package hub

import (
	"bytes"
	"testing"

	"github.com/erilali/webchat/internal/logger"
	"github.com/erilali/webchat/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcast_Filters(t *testing.T) {
	r := NewRegistry()
	a, b, c := newFakeConn("a"), newFakeConn("b"), newFakeConn("c")
	r.Join(a)
	r.Join(b)
	r.Join(c)
	bc := NewBroadcaster(r, nil)

	res := bc.Broadcast([]byte(`{"n":1}`), Except(b))
	assert.Equal(t, Result{Targeted: 2, Delivered: 2}, res)
	assert.Equal(t, 1, a.count())
	assert.Zero(t, b.count())
	assert.Equal(t, 1, c.count())

	res = bc.Broadcast([]byte(`{"n":2}`), nil)
	assert.Equal(t, Result{Targeted: 3, Delivered: 3}, res)
	assert.Equal(t, 1, b.count())
}

func TestBroadcast_EmptyRegistry(t *testing.T) {
	res := NewBroadcaster(NewRegistry(), nil).Broadcast([]byte(`{}`), Everyone)
	assert.Equal(t, Result{}, res)
}

func TestBroadcast_FailureIsIsolated(t *testing.T) {
	r := NewRegistry()
	a, bad, c := newFakeConn("a"), newFakeConn("bad"), newFakeConn("c")
	bad.fail = true
	r.Join(a)
	r.Join(bad)
	r.Join(c)

	var buf bytes.Buffer
	bc := NewBroadcaster(r, logger.New("test", &buf))

	failedBefore := testutil.ToFloat64(metrics.DeliveriesTotal.WithLabelValues(metrics.ResultFailed))
	res := bc.Broadcast([]byte(`{"type":"system","content":"x"}`), Everyone)

	assert.Equal(t, Result{Targeted: 3, Delivered: 2, Failed: 1}, res)
	assert.Equal(t, 1, a.count())
	assert.Equal(t, 1, c.count())
	assert.Equal(t, failedBefore+1, testutil.ToFloat64(metrics.DeliveriesTotal.WithLabelValues(metrics.ResultFailed)))

	// failed recipients stay registered
	_, ok := r.NameOf(bad)
	assert.True(t, ok)
	assert.Contains(t, buf.String(), "send_error")
	assert.Contains(t, buf.String(), "User2")
}

func TestBroadcast_PanicIsIsolated(t *testing.T) {
	r := NewRegistry()
	bad, ok := newFakeConn("bad"), newFakeConn("ok")
	bad.panics = true
	r.Join(bad)
	r.Join(ok)

	bc := NewBroadcaster(r, nil)
	var res Result
	require.NotPanics(t, func() {
		res = bc.Broadcast([]byte(`{}`), Everyone)
	})

	assert.Equal(t, Result{Targeted: 2, Delivered: 1, Failed: 1}, res)
	assert.Equal(t, 1, ok.count())
}

func TestDeliver_WrapsPanic(t *testing.T) {
	bad := newFakeConn("bad")
	bad.panics = true

	err := NewBroadcaster(NewRegistry(), nil).Deliver(Member{Conn: bad, Name: "User9"}, []byte(`{}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSendPanic)
	assert.Contains(t, err.Error(), "boom")
}

func TestDeliver_ReturnsSendError(t *testing.T) {
	bad := newFakeConn("bad")
	bad.fail = true

	err := NewBroadcaster(NewRegistry(), nil).Deliver(Member{Conn: bad, Name: "User1"}, []byte(`{}`))
	assert.ErrorIs(t, err, errFakeSend)
}
