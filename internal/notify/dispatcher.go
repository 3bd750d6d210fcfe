package notify

import (
	"context"
	"log/slog"

	"taskhub/internal/platform/metrics"
)

// Dispatcher decouples task transitions from delivery: TaskCompleted
// enqueues without blocking and Run drains the inbox until the context
// ends. A full inbox drops the message rather than stalling a commit
// path.
type Dispatcher struct {
	sender  Sender
	inbox   chan Message
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewDispatcher(sender Sender, buffer int, m *metrics.Metrics, logger *slog.Logger) *Dispatcher {
	if buffer <= 0 {
		buffer = 64
	}
	return &Dispatcher{
		sender:  sender,
		inbox:   make(chan Message, buffer),
		metrics: m,
		logger:  logger,
	}
}

// TaskCompleted queues a completion notice. Never blocks.
func (d *Dispatcher) TaskCompleted(taskID, taskName, recipient string) {
	msg := Message{TaskID: taskID, TaskName: taskName, Recipient: recipient}
	select {
	case d.inbox <- msg:
	default:
		d.metrics.RecordNotification("dropped")
		d.logger.Warn("notification inbox full, dropping message", "task_id", taskID)
	}
}

// Run consumes the inbox until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-d.inbox:
			if err := d.sender.Send(msg); err != nil {
				d.metrics.RecordNotification("error")
				d.logger.Warn("notification delivery failed",
					"task_id", msg.TaskID, "recipient", msg.Recipient, "error", err)
				continue
			}
			d.metrics.RecordNotification("ok")
		}
	}
}
