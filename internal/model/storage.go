package model

import (
	"context"
	"io"
)

type Storage interface {
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Exists(ctx context.Context, key string) (bool, error)
}
