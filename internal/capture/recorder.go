package capture

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/matthewgall/pricer/internal/models"
)

const maxSlugLength = 60

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Recorder saves fetched pages under <source>/<timestamp>-<label>.html.
// Save failures are logged and never reach the caller.
type Recorder struct {
	storage Storage
	now     func() time.Time
}

func NewRecorder(storage Storage) *Recorder {
	return &Recorder{storage: storage, now: time.Now}
}

func (r *Recorder) Record(ctx context.Context, source models.Source, label string, body []byte) {
	key := r.Key(source, label)
	if err := r.storage.Save(ctx, key, bytes.NewReader(body)); err != nil {
		slog.WarnContext(ctx, "capture save failed", "key", key, "error", err)
		return
	}
	slog.DebugContext(ctx, "captured page", "key", key, "bytes", len(body))
}

func (r *Recorder) Key(source models.Source, label string) string {
	stamp := r.now().UTC().Format("20060102T150405.000Z")
	return fmt.Sprintf("%s/%s-%s.html", source, stamp, slug(label))
}

func slug(label string) string {
	s := strings.Trim(slugPattern.ReplaceAllString(strings.ToLower(label), "-"), "-")
	if len(s) > maxSlugLength {
		s = strings.TrimRight(s[:maxSlugLength], "-")
	}
	if s == "" {
		return "page"
	}
	return s
}
