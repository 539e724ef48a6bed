package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/monocle-dev/taskboard/internal/logutils"
	"github.com/monocle-dev/taskboard/internal/models"
	"github.com/monocle-dev/taskboard/internal/storage"
	"github.com/monocle-dev/taskboard/internal/types"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FileUpload is an attachment whose bytes are already in memory. Decoding the
// transport encoding is the caller's business.
type FileUpload struct {
	Name     string
	Size     int64
	MimeType string
	Data     []byte
}

// fileKeeper writes attachment bytes and cleans up after rows that never
// committed or no longer exist.
type fileKeeper struct {
	db    *gorm.DB
	store storage.FileStore
	now   func() time.Time
	log   *logrus.Entry
}

func newFileKeeper(db *gorm.DB, store storage.FileStore) *fileKeeper {
	return &fileKeeper{
		db:    db,
		store: store,
		now:   time.Now,
		log:   logutils.WithComponent("files"),
	}
}

// write stores up under scope/parentID and returns the attachment row to
// insert. The row is not saved.
func (k *fileKeeper) write(ctx context.Context, scope types.AttachmentScope, parentID, uploaderID uint, up FileUpload) (models.Attachment, error) {
	name := strings.TrimSpace(up.Name)
	if name == "" {
		return models.Attachment{}, invalid("Attachment name is required")
	}

	ts := k.now()
	path := storage.AttachmentPath(scope, parentID, ts, name)

	// timestamps can repeat for uploads landing in the same millisecond
	for {
		if _, err := k.store.Stat(ctx, path); err != nil {
			break
		}
		ts = ts.Add(time.Millisecond)
		path = storage.AttachmentPath(scope, parentID, ts, name)
	}

	if err := k.store.Save(ctx, path, up.Data); err != nil {
		return models.Attachment{}, fmt.Errorf("failed to store attachment %q: %w", name, err)
	}

	att := models.Attachment{
		Path:         path,
		OriginalName: name,
		Size:         int64(len(up.Data)),
		MimeType:     storage.DetectMIME(up.Data, up.MimeType),
		UploaderID:   uploaderID,
	}

	switch scope {
	case types.ScopeProject:
		att.ProjectID = &parentID
	case types.ScopeTask:
		att.TaskID = &parentID
	}

	return att, nil
}

// discard removes stored files that have no row. A file that is already gone
// is fine; any other failure is recorded for the sweeper.
func (k *fileKeeper) discard(ctx context.Context, paths []string, reason string) {
	for _, path := range paths {
		k.remove(ctx, path, reason)
	}
}

func (k *fileKeeper) remove(ctx context.Context, path, reason string) {
	err := k.store.Remove(ctx, path)

	if err == nil {
		return
	}

	if errors.Is(err, os.ErrNotExist) {
		k.log.WithFields(logutils.Fields{"path": path, "reason": reason}).Warn("Attachment file already missing")
		return
	}

	k.log.WithFields(logutils.Fields{"path": path, "reason": reason, "error": err}).Error("Failed to remove attachment file")
	k.recordOrphan(ctx, path, reason, err)
}

func (k *fileKeeper) recordOrphan(ctx context.Context, path, reason string, cause error) {
	now := k.now()
	orphan := models.OrphanedFile{
		Path:      path,
		Reason:    reason,
		Attempts:  1,
		LastError: cause.Error(),
		LastTryAt: &now,
	}

	err := k.db.WithContext(context.WithoutCancel(ctx)).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&orphan).Error

	if err != nil {
		k.log.WithFields(logutils.Fields{"path": path, "error": err}).Error("Failed to record orphaned file")
	}
}
