package goimagesitemap

import (
	"fmt"
)

// ErrNilSource indicates a nil PageSource was provided.
type ErrNilSource struct{}

func (e *ErrNilSource) Error() string {
	return "page source is nil"
}

// ErrInvalidURL indicates the site URL or a page location is not a usable
// absolute URL.
type ErrInvalidURL struct {
	URL string
	Err error
}

func (e *ErrInvalidURL) Error() string {
	if e.URL == "" {
		return fmt.Sprintf("invalid URL: %v", e.Err)
	}
	return fmt.Sprintf("invalid URL %q: %v", e.URL, e.Err)
}

func (e *ErrInvalidURL) Unwrap() error {
	return e.Err
}

// ErrPageSource indicates the page source failed to list a page group.
type ErrPageSource struct {
	Group string
	Err   error
}

func (e *ErrPageSource) Error() string {
	return fmt.Sprintf("list %s: %v", e.Group, e.Err)
}

func (e *ErrPageSource) Unwrap() error {
	return e.Err
}

// ErrWriteOutput indicates the generated sitemap could not be written.
type ErrWriteOutput struct {
	Path string
	Err  error
}

func (e *ErrWriteOutput) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Err)
}

func (e *ErrWriteOutput) Unwrap() error {
	return e.Err
}
