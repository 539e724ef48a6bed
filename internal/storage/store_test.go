package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/monocle-dev/taskboard/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveOpenRemove(t *testing.T) {
	ctx := context.Background()

	stores := map[string]FileStore{
		"memory": NewMemory(),
	}
	disk, err := NewDisk(t.TempDir())
	require.NoError(t, err)
	stores["disk"] = disk

	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Save(ctx, "projects/7/1_spec.txt", []byte("hello")))

			f, err := store.Open(ctx, "projects/7/1_spec.txt")
			require.NoError(t, err)
			data, err := io.ReadAll(f)
			require.NoError(t, err)
			require.NoError(t, f.Close())
			assert.Equal(t, "hello", string(data))

			// overwrite truncates
			require.NoError(t, store.Save(ctx, "projects/7/1_spec.txt", []byte("hi")))
			info, err := store.Stat(ctx, "projects/7/1_spec.txt")
			require.NoError(t, err)
			assert.EqualValues(t, 2, info.Size())

			require.NoError(t, store.Save(ctx, "projects/7/2_other.txt", []byte("x")))

			require.NoError(t, store.Remove(ctx, "projects/7/1_spec.txt"))
			_, err = store.Stat(ctx, "projects/7/1_spec.txt")
			assert.True(t, errors.Is(err, os.ErrNotExist))

			err = store.Remove(ctx, "projects/7/1_spec.txt")
			assert.True(t, errors.Is(err, os.ErrNotExist))

			// siblings survive
			_, err = store.Stat(ctx, "projects/7/2_other.txt")
			assert.NoError(t, err)

			assert.Error(t, store.Remove(ctx, "projects/7"))
		})
	}
}

func TestRejectsEscapingPaths(t *testing.T) {
	store := NewMemory()

	for _, p := range []string{"", "/", "../etc/passwd", "tasks/../../x", "a\x00b"} {
		err := store.Save(context.Background(), p, []byte("x"))
		assert.ErrorIs(t, err, ErrInvalidPath, "path %q", p)
	}
}

func TestAttachmentPath(t *testing.T) {
	now := time.UnixMilli(1735689600000)

	assert.Equal(t, "projects/12/1735689600000_report.pdf", AttachmentPath(types.ScopeProject, 12, now, "report.pdf"))
	assert.Equal(t, "tasks/3/1735689600000_passwd", AttachmentPath(types.ScopeTask, 3, now, "../../etc/passwd"))
}

func TestSafeName(t *testing.T) {
	tests := map[string]string{
		"report.pdf":           "report.pdf",
		"my file (1).png":      "my_file__1_.png",
		`C:\Users\me\plan.doc`: "plan.doc",
		"..":                   "file",
		"":                     "file",
		"résumé.txt":           "résumé.txt",
	}

	for in, want := range tests {
		assert.Equal(t, want, SafeName(in), "input %q", in)
	}

	long := strings.Repeat("a", 300) + ".txt"
	got := SafeName(long)
	assert.Len(t, []rune(got), maxNameLength)
	assert.True(t, strings.HasSuffix(got, ".txt"))
}

func TestDetectMIME(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

	assert.Equal(t, "image/png", DetectMIME(png, ""))
	assert.Equal(t, "image/png", DetectMIME(png, "application/octet-stream"))
	assert.Equal(t, "application/pdf", DetectMIME(png, "application/pdf"))
	assert.Equal(t, "text/plain; charset=utf-8", DetectMIME([]byte("plain words"), ""))
}
