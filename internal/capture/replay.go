package capture

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/PuerkitoBio/goquery"

	"github.com/matthewgall/pricer/internal/models"
)

// Replayer serves one captured page in place of a live fetch, whatever URL
// the provider asks for. It satisfies the providers' Fetcher interfaces.
type Replayer struct {
	storage Storage
	key     string
}

func NewReplayer(storage Storage, key string) *Replayer {
	return &Replayer{storage: storage, key: key}
}

func (r *Replayer) Fetch(ctx context.Context, source models.Source, target, _ string) (*goquery.Document, error) {
	rc, err := r.storage.Open(ctx, r.key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	doc, err := goquery.NewDocumentFromReader(rc)
	if err != nil {
		return nil, fmt.Errorf("parse capture %s: %w", r.key, err)
	}
	slog.DebugContext(ctx, "replayed capture", "source", source, "key", r.key, "url", target)
	return doc, nil
}

// Discard removes the replayed capture.
func (r *Replayer) Discard(ctx context.Context) error {
	return r.storage.Delete(ctx, r.key)
}
