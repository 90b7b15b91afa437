package daemon

import (
	"context"
	"time"

	"mediaq/internal/events"
	"mediaq/internal/history"
	"mediaq/internal/logging"
	"mediaq/internal/notifications"
)

const notifyTimeout = 30 * time.Second

// eventHandler reacts to one bus event. Handlers run on their consumer
// goroutine, never on the queue loop.
type eventHandler func(ctx context.Context, ev events.Event)

// startConsumers subscribes every bus consumer synchronously and then drains
// each on its own goroutine.
func (d *Daemon) startConsumers(ctx context.Context) {
	if d.history != nil {
		d.consume(ctx, "history", d.recordHistory)
	}
	d.consume(ctx, "notifications", d.notify)
}

// consume runs handle for every event until ctx ends. A consumer the bus drops
// for falling behind is resubscribed; events published in between are lost.
func (d *Daemon) consume(ctx context.Context, name string, handle eventHandler) {
	logger := logging.NewComponentLogger(d.logger, "consumer").With(logging.String("consumer", name))
	sub := d.bus.Subscribe()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for {
			select {
			case <-ctx.Done():
				d.bus.Unsubscribe(sub)
				return
			case ev, ok := <-sub.Events():
				if ok {
					handle(ctx, ev)
					continue
				}
				if !sub.Dropped() || ctx.Err() != nil {
					return
				}
				logging.WarnWithContext(logger, "consumer fell behind; resubscribing", "consumer_resubscribed",
					logging.String(logging.FieldErrorHint, "a slow notification endpoint or disk can cause this"),
					logging.String(logging.FieldImpact, "events published while resubscribing are not recorded"),
				)
				sub = d.bus.Subscribe()
			}
		}
	}()
}

func (d *Daemon) recordHistory(ctx context.Context, ev events.Event) {
	rec, ok := history.RecordFromEvent(ev, time.Now())
	if !ok {
		return
	}
	if _, err := d.history.Append(ctx, rec); err != nil {
		logging.WarnWithContext(d.logger, "history record failed", "history_append_failed",
			logging.JobID(rec.JobID),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check that the history database is writable"),
			logging.String(logging.FieldImpact, "job missing from history"),
		)
	}
}

func (d *Daemon) notify(ctx context.Context, ev events.Event) {
	if ev.Type != events.JobCompleted && ev.Type != events.JobError {
		return
	}
	sendCtx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()
	if err := notifications.Dispatch(sendCtx, d.notifier, d.cfg.Notifications, ev); err != nil {
		logging.WarnWithContext(d.logger, "notification failed", "notification_failed",
			logging.String("event", string(ev.Type)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
		)
	}
}
