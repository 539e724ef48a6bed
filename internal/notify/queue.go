package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/monocle-dev/taskboard/internal/logutils"
	"github.com/sirupsen/logrus"
)

// TaskFanOut is the asynq task type carrying one fan-out.
const TaskFanOut = "notification:fanout"

type fanOutPayload struct {
	Recipients []uint `json:"recipients"`
	Event      Event  `json:"event"`
}

// NewFanOutTask builds the queued form of a fan-out.
func NewFanOutTask(recipients []uint, ev Event) (*asynq.Task, error) {
	payload, err := json.Marshal(fanOutPayload{Recipients: Unique(recipients), Event: ev})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskFanOut,
		payload,
		asynq.MaxRetry(3),
		asynq.Timeout(time.Minute),
		asynq.Retention(time.Hour),
	), nil
}

// QueueDispatcher hands fan-outs to a Redis backed asynq queue. When
// enqueueing fails the fan-out runs on the fallback dispatcher instead.
type QueueDispatcher struct {
	client   *asynq.Client
	fallback Dispatcher
	log      *logrus.Entry
}

func NewQueueDispatcher(redisURL string, fallback Dispatcher) (*QueueDispatcher, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	return &QueueDispatcher{
		client:   asynq.NewClient(opt),
		fallback: fallback,
		log:      logutils.WithComponent("queue"),
	}, nil
}

func (d *QueueDispatcher) Dispatch(ctx context.Context, recipients []uint, ev Event) {
	recipients = Unique(recipients)
	if len(recipients) == 0 {
		return
	}

	task, err := NewFanOutTask(recipients, ev)
	if err == nil {
		_, err = d.client.EnqueueContext(ctx, task)
	}

	if err == nil {
		return
	}

	d.log.WithFields(logutils.Fields{"type": ev.Type, "error": err}).Warn("Failed to enqueue notification fan-out")

	if d.fallback != nil {
		d.fallback.Dispatch(ctx, recipients, ev)
	}
}

func (d *QueueDispatcher) Close() error {
	return d.client.Close()
}

// NewFanOutHandler processes TaskFanOut tasks. Per-recipient failures are
// logged and not retried, since a retry would duplicate the delivered rows.
func NewFanOutHandler(notifier *Notifier) func(context.Context, *asynq.Task) error {
	log := logutils.WithComponent("queue")

	return func(ctx context.Context, task *asynq.Task) error {
		var payload fanOutPayload

		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			return fmt.Errorf("invalid payload: %w", asynq.SkipRetry)
		}

		if payload.Event.Type == "" {
			return fmt.Errorf("missing event type: %w", asynq.SkipRetry)
		}

		logResult(log, payload.Event, notifier.FanOut(ctx, payload.Recipients, payload.Event))
		return nil
	}
}

// StartWorker runs an asynq server consuming fan-out tasks and returns a stop
// function for coordinated shutdown.
func StartWorker(redisURL string, notifier *Notifier) (stop func(), err error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	log := logutils.WithComponent("worker")

	srv := asynq.NewServer(opt, asynq.Config{
		Concurrency:     5,
		ShutdownTimeout: 30 * time.Second,
		Logger:          log,
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			retried, _ := asynq.GetRetryCount(ctx)
			maxRetry, _ := asynq.GetMaxRetry(ctx)

			log.WithFields(logutils.Fields{
				"task_type":   task.Type(),
				"error":       err.Error(),
				"retry_count": retried,
				"max_retry":   maxRetry,
			}).Error("Task execution failed")
		}),
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskFanOut, NewFanOutHandler(notifier))

	if err := srv.Start(mux); err != nil {
		return nil, fmt.Errorf("failed to start worker: %w", err)
	}

	log.WithField("concurrency", 5).Info("Worker started")
	return srv.Shutdown, nil
}
