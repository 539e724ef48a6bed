// Package notify stores notification rows and delivers them to recipients,
// one row per recipient.
package notify

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/monocle-dev/taskboard/internal/logutils"
	"github.com/monocle-dev/taskboard/internal/models"
	"github.com/monocle-dev/taskboard/internal/types"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const defaultFanOutLimit = 4

// Event describes what happened; it is rendered into one row per recipient.
type Event struct {
	Type      types.NotificationType `json:"type"`
	ActorID   *uint                  `json:"actor_id,omitempty"`
	Message   string                 `json:"message"`
	TaskID    *uint                  `json:"task_id,omitempty"`
	ProjectID *uint                  `json:"project_id,omitempty"`
}

// Publisher is told about every committed notification.
type Publisher interface {
	Publish(n models.Notification)
}

type Notifier struct {
	db        *gorm.DB
	publisher Publisher
	limit     int
	log       *logrus.Entry
}

// NewNotifier returns a Notifier writing through db. publisher may be nil.
func NewNotifier(db *gorm.DB, publisher Publisher) *Notifier {
	return &Notifier{
		db:        db,
		publisher: publisher,
		limit:     defaultFanOutLimit,
		log:       logutils.WithComponent("notify"),
	}
}

// Insert stores a notification for recipient through tx, which is usually an
// open transaction. It returns nil without error when the recipient is the
// actor or has switched this type off. The caller publishes the returned row
// once its transaction has committed.
func (n *Notifier) Insert(ctx context.Context, tx *gorm.DB, recipient uint, ev Event) (*models.Notification, error) {
	if ev.ActorID != nil && *ev.ActorID == recipient {
		return nil, nil
	}

	var user models.User

	if err := tx.WithContext(ctx).Select("id", "notification_preferences").First(&user, recipient).Error; err != nil {
		return nil, fmt.Errorf("failed to load recipient %d: %w", recipient, err)
	}

	if !user.Preferences().Allows(ev.Type) {
		return nil, nil
	}

	note := models.Notification{
		UserID:    recipient,
		ActorID:   ev.ActorID,
		Type:      ev.Type,
		Message:   ev.Message,
		TaskID:    ev.TaskID,
		ProjectID: ev.ProjectID,
	}

	if err := tx.WithContext(ctx).Omit(clause.Associations).Create(&note).Error; err != nil {
		return nil, fmt.Errorf("failed to store notification for user %d: %w", recipient, err)
	}

	return &note, nil
}

// Publish forwards committed notifications to the publisher.
func (n *Notifier) Publish(notes ...*models.Notification) {
	if n.publisher == nil {
		return
	}

	for _, note := range notes {
		if note != nil {
			n.publisher.Publish(*note)
		}
	}
}

// Result is the outcome of a fan-out, per recipient.
type Result struct {
	Delivered []uint
	Skipped   []uint
	Failed    map[uint]error
}

// Err joins every per-recipient failure.
func (r Result) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}

	ids := make([]uint, 0, len(r.Failed))
	for id := range r.Failed {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	errs := make([]error, 0, len(ids))
	for _, id := range ids {
		errs = append(errs, r.Failed[id])
	}

	return errors.Join(errs...)
}

// FanOut stores ev for each distinct recipient with its own statement. A
// failure for one recipient never stops the others; failures are logged and
// returned in the Result.
func (n *Notifier) FanOut(ctx context.Context, recipients []uint, ev Event) Result {
	result := Result{Failed: map[uint]error{}}

	var mu sync.Mutex
	g := new(errgroup.Group)
	g.SetLimit(n.limit)

	for _, recipient := range Unique(recipients) {
		g.Go(func() error {
			note, err := n.Insert(ctx, n.db, recipient, ev)

			mu.Lock()
			switch {
			case err != nil:
				result.Failed[recipient] = err
			case note == nil:
				result.Skipped = append(result.Skipped, recipient)
			default:
				result.Delivered = append(result.Delivered, recipient)
			}
			mu.Unlock()

			if err != nil {
				n.log.WithFields(logutils.Fields{
					"recipient_id": recipient,
					"type":         ev.Type,
					"error":        err,
				}).Error("Failed to deliver notification")
				return nil
			}

			n.Publish(note)
			return nil
		})
	}

	_ = g.Wait() // errors captured per recipient

	slices.Sort(result.Delivered)
	slices.Sort(result.Skipped)

	return result
}

// Unique drops zero ids and duplicates, keeping first-seen order.
func Unique(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))

	for _, id := range ids {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}

	return out
}

// View is the JSON shape of a notification.
type View struct {
	ID        uint                   `json:"id"`
	Type      types.NotificationType `json:"type"`
	Message   string                 `json:"message"`
	ActorID   *uint                  `json:"actorId"`
	TaskID    *uint                  `json:"taskId"`
	ProjectID *uint                  `json:"projectId"`
	IsRead    bool                   `json:"isRead"`
	CreatedAt time.Time              `json:"createdAt"`
}

func NewView(n models.Notification) View {
	return View{
		ID:        n.ID,
		Type:      n.Type,
		Message:   n.Message,
		ActorID:   n.ActorID,
		TaskID:    n.TaskID,
		ProjectID: n.ProjectID,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
}
