package jobs

import (
	"context"

	"github.com/amankumarsingh77/ffserve/internal/models"
)

// Transport moves media between remote URLs and local files.
type Transport interface {
	Download(ctx context.Context, rawURL, dstPath string) error
	Upload(ctx context.Context, rawURL, srcPath string) error
}

// Prober inspects a local file and reports its video metadata.
type Prober interface {
	Probe(ctx context.Context, path string) (*models.Metadata, error)
}
