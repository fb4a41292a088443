package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"
)

// BlobStore puts bytes under a path and hands back a retrievable URL.
type BlobStore interface {
	Upload(ctx context.Context, path string, content io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, path string) error
	PublicURL(path string) string
}

// Blob path prefixes. Existing stored URLs depend on these names.
const (
	PrefixCourseThumbnails = "courseThumbnails"
	PrefixLessonThumbnails = "lessonThumbnails"
	PrefixAttachments      = "attachments"
	PrefixCoverImages      = "coverImages"
	PrefixProfilePics      = "profilePics"
)

// File is an uploaded payload as received from a multipart form.
type File struct {
	Name        string
	ContentType string
	Content     io.Reader
}

// TimestampedPath builds "<prefix>/<name>-<unix-ms>".
func TimestampedPath(prefix, name string, now time.Time) string {
	return fmt.Sprintf("%s/%s-%d", prefix, sanitizeName(name), now.UnixMilli())
}

// ProfilePicPath is keyed by user id only, so a new upload replaces the old.
func ProfilePicPath(userID string) string {
	return PrefixProfilePics + "/" + sanitizeName(userID)
}

// sanitizeName keeps names from escaping their prefix.
func sanitizeName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	if name == "" {
		return "file"
	}
	return name
}

// ContentTypeForName guesses a MIME type from the file extension.
func ContentTypeForName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	switch {
	case strings.HasSuffix(s, ".png"):
		return "image/png"
	case strings.HasSuffix(s, ".jpg"), strings.HasSuffix(s, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(s, ".webp"):
		return "image/webp"
	case strings.HasSuffix(s, ".gif"):
		return "image/gif"
	case strings.HasSuffix(s, ".svg"):
		return "image/svg+xml"
	case strings.HasSuffix(s, ".pdf"):
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

// IsImage reports whether a content type should be shown inline.
func IsImage(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(contentType), "image/")
}
