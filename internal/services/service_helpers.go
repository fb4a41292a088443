package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/lms-service/internal/auth"
	"github.com/SAP-F-2025/lms-service/internal/events"
	"github.com/SAP-F-2025/lms-service/internal/storage"
)

// changeNotifier publishes change events. Failures are logged only; the
// write they describe has already committed.
type changeNotifier struct {
	publisher  ChangePublisher
	collection string
	logger     *slog.Logger
	now        func() time.Time
}

func (n changeNotifier) notify(ctx context.Context, id string, op events.Operation, version int) {
	if n.publisher == nil {
		return
	}
	evt := events.ChangeEvent{
		Collection: n.collection,
		ID:         id,
		Op:         op,
		Version:    version,
		At:         n.now().UTC(),
	}
	if err := n.publisher.PublishChange(ctx, evt); err != nil {
		n.logger.WarnContext(ctx, "Failed to publish change event",
			"error", err, "collection", n.collection, "id", id, "op", op)
	}
}

// uploadFile stores f under path and returns its public URL.
func uploadFile(ctx context.Context, blobs storage.BlobStore, path string, f *storage.File) (string, error) {
	contentType := f.ContentType
	if contentType == "" {
		contentType = storage.ContentTypeForName(f.Name)
	}
	url, err := blobs.Upload(ctx, path, f.Content, contentType)
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", path, err)
	}
	return url, nil
}

// discardBlobs removes uploaded objects after a failed request. Failures are
// logged and the object is left behind.
func discardBlobs(ctx context.Context, blobs storage.BlobStore, logger *slog.Logger, paths ...string) {
	ctx = context.WithoutCancel(ctx)
	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := blobs.Delete(ctx, path); err != nil {
			logger.Warn("Failed to remove uploaded blob", "path", path, "error", err)
		}
	}
}

func requireModerator(sess auth.SessionContext, resource, resourceID, action string) error {
	if sess.CanModerate() {
		return nil
	}
	return NewPermissionError(sess.UserID, resourceID, resource, action, "moderator or admin role required")
}

func requireAdmin(sess auth.SessionContext, resource, resourceID, action string) error {
	if sess.IsAdmin() {
		return nil
	}
	return NewPermissionError(sess.UserID, resourceID, resource, action, "admin role required")
}

func requireSession(sess auth.SessionContext) error {
	if sess.UserID == "" {
		return ErrUnauthorized
	}
	return nil
}
