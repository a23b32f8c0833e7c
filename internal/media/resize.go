package media

import (
	"context"
	"os"

	"github.com/disintegration/imaging"

	"github.com/iliyamo/vidtube/internal/apierror"
)

// ResizingUploader downsizes images wider than MaxWidth before handing them
// to Next.  Non-image files pass through untouched.
type ResizingUploader struct {
	Next     Uploader
	MaxWidth int
}

func (r *ResizingUploader) Upload(ctx context.Context, localPath string) (string, error) {
	if r.MaxWidth > 0 && IsImage(localPath) {
		if err := r.shrink(localPath); err != nil {
			os.Remove(localPath)
			return "", err
		}
	}
	return r.Next.Upload(ctx, localPath)
}

func (r *ResizingUploader) Delete(ctx context.Context, url string) error {
	return r.Next.Delete(ctx, url)
}

// shrink rewrites path in place, keeping the aspect ratio.
func (r *ResizingUploader) shrink(path string) error {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return apierror.Wrap(apierror.KindValidation, "uploaded file is not a readable image", err)
	}
	if img.Bounds().Dx() <= r.MaxWidth {
		return nil
	}
	img = imaging.Resize(img, r.MaxWidth, 0, imaging.Lanczos)
	if err := imaging.Save(img, path); err != nil {
		return apierror.Wrap(apierror.KindUpstream, "failed to process image", err)
	}
	return nil
}
