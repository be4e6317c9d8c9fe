package capture

import (
	"context"
	"strings"

	"github.com/matthewgall/pricer/internal/config"
)

func New(ctx context.Context, cfg config.CaptureConfig) (Storage, error) {
	method := strings.ToLower(strings.TrimSpace(cfg.Method))
	switch method {
	case "", "local":
		baseDir := strings.TrimSpace(cfg.Local.Directory)
		if baseDir == "" {
			baseDir = "data/captures"
		}
		return NewLocal(baseDir), nil
	case "s3":
		return NewS3(ctx, cfg.S3)
	default:
		return nil, ErrUnknownStorage
	}
}
