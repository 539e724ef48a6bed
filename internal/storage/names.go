package storage

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/gabriel-vasile/mimetype"
	"github.com/monocle-dev/taskboard/internal/types"
)

const maxNameLength = 120

// AttachmentPath is <scope>/<parentID>/<unix millis>_<name>.
func AttachmentPath(scope types.AttachmentScope, parentID uint, now time.Time, name string) string {
	return path.Join(string(scope), fmt.Sprint(parentID), fmt.Sprintf("%d_%s", now.UnixMilli(), SafeName(name)))
}

// SafeName reduces name to its base and replaces characters that are awkward
// in paths or URLs.
func SafeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))

	var b strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	safe := strings.Trim(b.String(), ".")
	if safe == "" {
		safe = "file"
	}

	if runes := []rune(safe); len(runes) > maxNameLength {
		ext := []rune(path.Ext(safe))
		if len(ext) > 16 {
			ext = nil
		}
		safe = string(runes[:maxNameLength-len(ext)]) + string(ext)
	}

	return safe
}

// DetectMIME keeps a specific declared type and sniffs the content otherwise.
func DetectMIME(data []byte, declared string) string {
	declared = strings.TrimSpace(declared)
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}

	return mimetype.Detect(data).String()
}
