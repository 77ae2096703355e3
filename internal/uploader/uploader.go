package uploader

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/vuqn/pagepost/internal/model"
	"github.com/vuqn/pagepost/internal/storage"
)

// ErrBusy means another upload batch is already in flight.
var ErrBusy = errors.New("upload already in progress")

// Uploader transfers validated media to the blob store one file at a
// time. A batch is all-or-nothing: any failure discards blobs already
// stored for the batch and the caller gets no assets back.
type Uploader struct {
	store storage.BlobStore
	log   zerolog.Logger
	busy  atomic.Bool
}

func New(store storage.BlobStore, log zerolog.Logger) *Uploader {
	return &Uploader{store: store, log: log}
}

// Upload stores files sequentially, preserving input order in the
// returned assets. Only one batch may be in flight at a time; the busy
// latch is released on every exit path.
func (u *Uploader) Upload(ctx context.Context, files []model.Media) ([]model.UploadedAsset, error) {
	if len(files) == 0 {
		return nil, nil
	}
	if !u.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer u.busy.Store(false)

	assets := make([]model.UploadedAsset, 0, len(files))
	for _, m := range files {
		path, err := u.saveOne(ctx, m)
		if err != nil {
			u.rollback(ctx, assets)
			return nil, fmt.Errorf("upload %s: %w", m.Name, err)
		}
		assets = append(assets, model.UploadedAsset{StoragePath: path})
	}
	u.log.Info().Int("count", len(assets)).Msg("upload batch complete")
	return assets, nil
}

func (u *Uploader) saveOne(ctx context.Context, m model.Media) (string, error) {
	rc, err := m.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()
	return u.store.Save(ctx, m.Name, rc)
}

// rollback discards partial successes so a failed batch leaves nothing
// behind. Removal failures are logged, not surfaced: the batch error is
// the one the caller needs.
func (u *Uploader) rollback(ctx context.Context, assets []model.UploadedAsset) {
	for _, a := range assets {
		if err := u.store.Remove(ctx, a.StoragePath); err != nil {
			u.log.Warn().Err(err).Str("path", a.StoragePath).Msg("rollback remove failed")
		}
	}
}
