package supervisor

import (
	"context"

	"github.com/TheKhosa/vodarchiver/internal/objectstore"
	"github.com/TheKhosa/vodarchiver/internal/upload"
)

// storeAdapter bridges objectstore.Client to upload.Putter. Both
// packages define their own Metadata type so neither has to import the
// other; this is the one place that converts between them.
type storeAdapter struct {
	store *objectstore.Client
}

func (a *storeAdapter) Put(ctx context.Context, localPath, objectKey string, meta upload.Metadata) error {
	return a.store.Put(ctx, localPath, objectKey, objectstore.Metadata{
		Stream:     meta.Stream,
		Session:    meta.Session,
		RecordedAt: meta.RecordedAt,
	})
}
