// Package storage holds attachment payloads. Rows in the documents table
// only record the ref returned by Store.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/yukikurage/issue-tracker-api/internal/utils"
)

// ErrBlobNotFound is returned by Open and Delete for an unknown ref.
var ErrBlobNotFound = errors.New("blob not found")

// BlobStore accepts and serves attachment files.
type BlobStore interface {
	// Store writes r under a name derived from declaredName and returns
	// the ref to record.
	Store(ctx context.Context, r io.Reader, declaredName, contentType string) (string, error)

	// Open returns the content of ref. The caller closes it.
	Open(ctx context.Context, ref string) (io.ReadCloser, error)

	// Delete removes ref, failing with ErrBlobNotFound if it is absent.
	Delete(ctx context.Context, ref string) error
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

// StoredName sanitises a declared file name and appends a unique suffix
// before the extension: "my photo.png" becomes "myphoto-<ms>-<rand>.png".
func StoredName(declaredName string, now time.Time) (string, error) {
	clean := unsafeChars.ReplaceAllString(filepath.Base(declaredName), "")
	ext := filepath.Ext(clean)
	base := strings.TrimSuffix(clean, ext)
	if base == "" || strings.Trim(base, ".") == "" {
		base = "file"
	}

	suffix, err := utils.RandomHex(4)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%d-%s%s", base, now.UnixMilli(), suffix, strings.ToLower(ext)), nil
}

// validRef rejects refs that could escape the store's namespace.
func validRef(ref string) bool {
	return ref != "" && ref == filepath.Base(ref) && !unsafeChars.MatchString(ref) && strings.Trim(ref, ".") != ""
}
