package handler

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/vidtube/internal/apierror"
	"github.com/iliyamo/vidtube/internal/media"
	"github.com/iliyamo/vidtube/internal/model"
)

const (
	// requestTimeout bounds the store calls of one request.
	requestTimeout = 5 * time.Second
	// uploadTimeout bounds requests that push files to the media host.
	uploadTimeout = 5 * time.Minute
)

func requestContext(c echo.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), d)
}

// bindValid binds the request into dst and runs the echo validator on it.
func bindValid(c echo.Context, dst interface{}) error {
	if err := c.Bind(dst); err != nil {
		return apierror.Validation("invalid request body")
	}
	return c.Validate(dst)
}

// paramID parses a positive integer path parameter.
func paramID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apierror.Validation("invalid " + name)
	}
	return id, nil
}

// queryInt reads an optional positive integer query parameter.
func queryInt(c echo.Context, name string, def int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, apierror.Validation(name + " must be a positive integer")
	}
	return n, nil
}

// pageParams reads page and limit.  limit is capped at maxPageSize; a page
// whose row offset would not fit in an int is rejected.
func pageParams(c echo.Context) (page, limit int, err error) {
	if page, err = queryInt(c, "page", 1); err != nil {
		return 0, 0, err
	}
	if limit, err = queryInt(c, "limit", defaultPageSize); err != nil {
		return 0, 0, err
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if !model.PageInRange(page, limit) {
		return 0, 0, apierror.Validation("page is out of range")
	}
	return page, limit, nil
}

// saveUpload stores the multipart file named field in dir.  A missing file,
// or a request that is not multipart at all, yields an empty path and no
// error; the caller decides whether the file was required.
func saveUpload(c echo.Context, field, dir string) (string, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return "", nil
		}
		return "", apierror.Validation("invalid " + field + " upload")
	}
	p, err := media.SaveMultipart(fh, dir)
	if err != nil {
		return "", apierror.Wrap(apierror.KindInternal, "failed to store upload", err)
	}
	return p, nil
}

// saveUploads stores several multipart files.  On failure the files saved
// so far are removed.
func saveUploads(c echo.Context, dir string, fields ...string) ([]string, error) {
	paths := make([]string, 0, len(fields))
	for _, f := range fields {
		p, err := saveUpload(c, f, dir)
		if err != nil {
			discard(paths...)
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

func discard(paths ...string) {
	for _, p := range paths {
		if p != "" {
			_ = os.Remove(p)
		}
	}
}
