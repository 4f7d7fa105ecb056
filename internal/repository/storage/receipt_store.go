package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/google/uuid"
)

// ReceiptStore defines the interface for receipt image storage operations
type ReceiptStore interface {
	Upload(ctx context.Context, objectPath string, data io.Reader, contentType string, size int64) (string, error)
	Download(ctx context.Context, objectPath string) ([]byte, error)
	Delete(ctx context.Context, objectPath string) error
	GeneratePresignedURL(ctx context.Context, objectPath string, expiry time.Duration) (string, error)
}

// ReceiptObjectPath creates a unique object path for a receipt image
// variant ("original" or "thumb").
func ReceiptObjectPath(memberID uuid.UUID, variant string) string {
	filename := fmt.Sprintf("%s_%s.jpg", uuid.New().String(), variant)
	return path.Join("receipts", memberID.String(), filename)
}
