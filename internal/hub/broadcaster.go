// internal/hub/broadcaster.go
package hub

import (
	"errors"
	"fmt"

	"github.com/erilali/webchat/internal/logger"
	"github.com/erilali/webchat/internal/metrics"
)

// ErrSendPanic wraps a panic raised by a connection's Send.
var ErrSendPanic = errors.New("send panicked")

// Filter selects which members receive a broadcast.
type Filter func(Member) bool

// Everyone selects every registered member.
func Everyone(Member) bool { return true }

// Except selects every member other than c.
func Except(c Conn) Filter {
	return func(m Member) bool { return m.Conn != c }
}

// Result summarizes one fan-out. It is used for logging only.
type Result struct {
	Targeted  int
	Delivered int
	Failed    int
}

// Broadcaster delivers a payload to a filtered registry snapshot. Each
// recipient is attempted independently: a failure is logged and counted, and
// the loop moves on to the next member. Failed recipients stay registered;
// only a close notification removes them.
type Broadcaster struct {
	registry *Registry
	logger   *logger.Logger
}

func NewBroadcaster(registry *Registry, log *logger.Logger) *Broadcaster {
	if log == nil {
		log = logger.Nop()
	}
	return &Broadcaster{registry: registry, logger: log}
}

// Broadcast sends payload to every member accepted by filter. A nil filter
// means everyone. Sends happen outside the registry lock.
func (b *Broadcaster) Broadcast(payload []byte, filter Filter) Result {
	if filter == nil {
		filter = Everyone
	}

	var res Result
	for _, m := range b.registry.Snapshot() {
		if !filter(m) {
			continue
		}
		res.Targeted++
		if err := b.Deliver(m, payload); err != nil {
			res.Failed++
			continue
		}
		res.Delivered++
	}

	if res.Failed > 0 {
		b.logger.Warnf("Broadcast reached %d of %d recipients", res.Delivered, res.Targeted)
	} else {
		b.logger.Debugf("Broadcast reached %d recipients", res.Delivered)
	}
	return res
}

// Deliver sends payload to a single member. Errors and panics from the
// connection are logged and returned, never propagated further.
func (b *Broadcaster) Deliver(m Member, payload []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrSendPanic, r)
		}
		if err != nil {
			metrics.DeliveriesTotal.WithLabelValues(metrics.ResultFailed).Inc()
			b.logger.WithFields(map[string]interface{}{
				"conn": m.Conn.ID(),
				"user": m.Name,
			}).WithError(err).LogEvent("warn", "send_error", m.Name, "")
			return
		}
		metrics.DeliveriesTotal.WithLabelValues(metrics.ResultOK).Inc()
	}()

	return m.Conn.Send(payload)
}
