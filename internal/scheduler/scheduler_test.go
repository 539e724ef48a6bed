package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/monocle-dev/taskboard/internal/dbtest"
	"github.com/monocle-dev/taskboard/internal/models"
	"github.com/monocle-dev/taskboard/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lockedStore refuses to remove one path.
type lockedStore struct {
	storage.FileStore
	locked string
}

func (s lockedStore) Remove(ctx context.Context, relPath string) error {
	if relPath == s.locked {
		return errors.New("device busy")
	}
	return s.FileStore.Remove(ctx, relPath)
}

func TestSweepClearsRemovableOrphans(t *testing.T) {
	db := dbtest.New(t)
	mem := storage.NewMemory()
	ctx := context.Background()

	require.NoError(t, mem.Save(ctx, "tasks/1/a.txt", []byte("a")))
	require.NoError(t, mem.Save(ctx, "tasks/1/busy.txt", []byte("b")))

	for _, path := range []string{"tasks/1/a.txt", "tasks/1/gone.txt", "tasks/1/busy.txt"} {
		require.NoError(t, db.Create(&models.OrphanedFile{Path: path, Reason: "test"}).Error)
	}

	sweeper := NewSweeper(db, lockedStore{FileStore: mem, locked: "tasks/1/busy.txt"}, time.Hour)

	assert.Equal(t, 2, sweeper.Sweep(ctx))

	var left []models.OrphanedFile
	require.NoError(t, db.Find(&left).Error)
	require.Len(t, left, 1)
	assert.Equal(t, "tasks/1/busy.txt", left[0].Path)
	assert.Equal(t, 1, left[0].Attempts)
	assert.Equal(t, "device busy", left[0].LastError)
	assert.NotNil(t, left[0].LastTryAt)

	_, err := mem.Stat(ctx, "tasks/1/a.txt")
	assert.Error(t, err)

	assert.Equal(t, 0, sweeper.Sweep(ctx))
	require.NoError(t, db.First(&left[0], left[0].ID).Error)
	assert.Equal(t, 2, left[0].Attempts)
}

func TestStartRunsImmediatePass(t *testing.T) {
	db := dbtest.New(t)
	require.NoError(t, db.Create(&models.OrphanedFile{Path: "projects/1/x.txt"}).Error)

	sweeper := NewSweeper(db, storage.NewMemory(), time.Hour)
	sweeper.Start()
	sweeper.Start()

	assert.Eventually(t, func() bool {
		var n int64
		db.Model(&models.OrphanedFile{}).Count(&n)
		return n == 0
	}, 2*time.Second, 10*time.Millisecond)

	sweeper.Stop()
	sweeper.Stop()
}
