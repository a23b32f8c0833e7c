// Package service holds the business logic that spans more than one store
// or collaborator: the session lifecycle and video publishing.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/iliyamo/vidtube/internal/apierror"
	"github.com/iliyamo/vidtube/internal/media"
	"github.com/iliyamo/vidtube/internal/repository"
)

// storeErr classifies a repository failure.  Missing rows become NotFound
// naming resource; anything else is an upstream failure.
func storeErr(err error, resource string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return apierror.NotFound(resource)
	case errors.Is(err, repository.ErrForbidden):
		return apierror.ErrForbidden
	case errors.Is(err, repository.ErrConflict):
		return apierror.Wrap(apierror.KindConflict, resource+" already exists", err)
	default:
		return apierror.Wrap(apierror.KindUpstream, "store failure", err)
	}
}

// uploadErr keeps classified media errors (an unreadable image is a
// validation failure) and reports everything else as an upstream failure.
func uploadErr(err error, what string) error {
	var ae *apierror.Error
	if errors.As(err, &ae) {
		return ae
	}
	return apierror.Wrap(apierror.KindUpstream, "failed to upload "+what, err)
}

// discardUploads deletes objects stored for a request that failed later on.
// It runs even when ctx is already cancelled; failures are only logged.
func discardUploads(ctx context.Context, up media.Uploader, logger *slog.Logger, urls ...string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	for _, url := range urls {
		if url == "" {
			continue
		}
		if err := up.Delete(ctx, url); err != nil {
			logger.Warn("orphaned media object", "url", url, "err", err)
		}
	}
}
