package notify

import (
	"context"
	"sync"

	"github.com/monocle-dev/taskboard/internal/logutils"
	"github.com/sirupsen/logrus"
)

// Dispatcher delivers an event to several recipients without making the
// caller wait for, or fail on, the delivery.
type Dispatcher interface {
	Dispatch(ctx context.Context, recipients []uint, ev Event)
}

// AsyncDispatcher fans out on a background goroutine, detached from the
// cancellation of the triggering request.
type AsyncDispatcher struct {
	notifier *Notifier
	wg       sync.WaitGroup
	log      *logrus.Entry
}

func NewAsyncDispatcher(notifier *Notifier) *AsyncDispatcher {
	return &AsyncDispatcher{notifier: notifier, log: logutils.WithComponent("dispatch")}
}

func (d *AsyncDispatcher) Dispatch(ctx context.Context, recipients []uint, ev Event) {
	recipients = Unique(recipients)
	if len(recipients) == 0 {
		return
	}

	ctx = context.WithoutCancel(ctx)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		logResult(d.log, ev, d.notifier.FanOut(ctx, recipients, ev))
	}()
}

// Wait blocks until every dispatched fan-out has finished.
func (d *AsyncDispatcher) Wait() {
	d.wg.Wait()
}

// InlineDispatcher fans out before Dispatch returns.
type InlineDispatcher struct {
	notifier *Notifier
	log      *logrus.Entry
}

func NewInlineDispatcher(notifier *Notifier) *InlineDispatcher {
	return &InlineDispatcher{notifier: notifier, log: logutils.WithComponent("dispatch")}
}

func (d *InlineDispatcher) Dispatch(ctx context.Context, recipients []uint, ev Event) {
	recipients = Unique(recipients)
	if len(recipients) == 0 {
		return
	}

	logResult(d.log, ev, d.notifier.FanOut(ctx, recipients, ev))
}

func logResult(log *logrus.Entry, ev Event, res Result) {
	fields := logutils.Fields{
		"type":      ev.Type,
		"delivered": len(res.Delivered),
		"skipped":   len(res.Skipped),
		"failed":    len(res.Failed),
	}

	if len(res.Failed) > 0 {
		log.WithFields(fields).WithError(res.Err()).Warn("Notification fan-out finished with failures")
		return
	}

	log.WithFields(fields).Debug("Notification fan-out finished")
}
