package services

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/monocle-dev/taskboard/internal/logutils"
	"github.com/monocle-dev/taskboard/internal/models"
	"github.com/monocle-dev/taskboard/internal/notify"
	"github.com/monocle-dev/taskboard/internal/storage"
	"github.com/monocle-dev/taskboard/internal/types"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/webdav"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AttachmentService struct {
	db         *gorm.DB
	store      storage.FileStore
	dispatcher notify.Dispatcher
	files      *fileKeeper
	log        *logrus.Entry
}

func NewAttachmentService(db *gorm.DB, store storage.FileStore, dispatcher notify.Dispatcher) *AttachmentService {
	return &AttachmentService{
		db:         db,
		store:      store,
		dispatcher: dispatcher,
		files:      newFileKeeper(db, store),
		log:        logutils.WithComponent("attachments"),
	}
}

// UploadTaskAttachment writes the file and then its row. When the row cannot
// be saved the file is removed again.
func (s *AttachmentService) UploadTaskAttachment(ctx context.Context, actorID, taskID uint, up FileUpload) (*AttachmentView, error) {
	tx := s.db.WithContext(ctx)

	task, err := loadTask(tx, taskID)
	if err != nil {
		return nil, err
	}

	if err := requireTaskAccess(tx, task, actorID); err != nil {
		return nil, err
	}

	att, err := s.files.write(ctx, types.ScopeTask, taskID, actorID, up)
	if err != nil {
		return nil, err
	}

	if err := tx.Omit(clause.Associations).Create(&att).Error; err != nil {
		s.files.discard(ctx, []string{att.Path}, "attachment row not saved")
		return nil, fmt.Errorf("failed to save attachment: %w", err)
	}

	s.dispatcher.Dispatch(ctx, taskAudience(task), notify.Event{
		Type:      types.NotificationNewAttachment,
		ActorID:   &actorID,
		Message:   fmt.Sprintf("New file %q added to task %q", att.OriginalName, task.Title),
		TaskID:    &task.ID,
		ProjectID: task.ProjectID,
	})

	view := newAttachmentView(att)
	return &view, nil
}

// Delete removes the row and then the stored file. A file that is already
// missing is logged; other removal failures are logged and left for the
// sweeper. Neither fails the call.
func (s *AttachmentService) Delete(ctx context.Context, actorID, attachmentID uint) error {
	tx := s.db.WithContext(ctx)

	var att models.Attachment

	if err := tx.First(&att, attachmentID).Error; err != nil {
		return lookupErr(err, "Attachment")
	}

	if err := s.authorizeDelete(tx, att, actorID); err != nil {
		return err
	}

	if err := tx.Delete(&models.Attachment{}, att.ID).Error; err != nil {
		return fmt.Errorf("failed to delete attachment: %w", err)
	}

	s.files.remove(ctx, att.Path, "attachment deleted")

	s.log.WithFields(logutils.Fields{"attachment_id": att.ID, "path": att.Path}).Info("Attachment deleted")
	return nil
}

// authorizeDelete lets the uploader, the project manager or the task creator
// delete an attachment.
func (s *AttachmentService) authorizeDelete(tx *gorm.DB, att models.Attachment, actorID uint) error {
	if att.UploaderID == actorID {
		return nil
	}

	projectID := att.ProjectID

	if att.TaskID != nil {
		task, err := loadTask(tx, *att.TaskID)
		if err != nil {
			return err
		}

		if task.CreatorID == actorID {
			return nil
		}
		projectID = task.ProjectID
	}

	if projectID != nil {
		role, err := memberRole(tx, *projectID, actorID)
		if err != nil {
			return err
		}

		if role == types.RoleManager {
			return nil
		}
	}

	return forbidden("You cannot delete this attachment")
}

// Open returns the attachment row and its stored file for download. The
// caller closes the file.
func (s *AttachmentService) Open(ctx context.Context, userID, attachmentID uint) (*models.Attachment, webdav.File, error) {
	tx := s.db.WithContext(ctx)

	var att models.Attachment

	if err := tx.First(&att, attachmentID).Error; err != nil {
		return nil, nil, lookupErr(err, "Attachment")
	}

	if err := s.authorizeRead(tx, att, userID); err != nil {
		return nil, nil, err
	}

	file, err := s.store.Open(ctx, att.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, notFound("Attachment file")
		}
		return nil, nil, fmt.Errorf("failed to open attachment: %w", err)
	}

	return &att, file, nil
}

func (s *AttachmentService) authorizeRead(tx *gorm.DB, att models.Attachment, userID uint) error {
	if att.TaskID != nil {
		task, err := loadTask(tx, *att.TaskID)
		if err != nil {
			return err
		}
		return requireTaskAccess(tx, task, userID)
	}

	if att.ProjectID != nil {
		return requireMember(tx, *att.ProjectID, userID)
	}

	if att.UploaderID != userID {
		return forbidden("You do not have access to this attachment")
	}
	return nil
}

func (s *AttachmentService) ListForTask(ctx context.Context, userID, taskID uint) ([]AttachmentView, error) {
	tx := s.db.WithContext(ctx)

	task, err := loadTask(tx, taskID)
	if err != nil {
		return nil, err
	}

	if err := requireTaskAccess(tx, task, userID); err != nil {
		return nil, err
	}

	var rows []models.Attachment

	if err := tx.Where("task_id = ?", taskID).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load attachments: %w", err)
	}

	return newAttachmentViews(rows), nil
}
