// Package assets stages illustrations found in the archive onto disk.
package assets

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/daezeri/ffgimport/pkg/constants"
	"github.com/daezeri/ffgimport/pkg/content"
	"github.com/daezeri/ffgimport/pkg/errors"
	"github.com/daezeri/ffgimport/pkg/logging"
)

// Archive is the read access the resolver needs.
type Archive interface {
	Find(match func(name string) bool) (string, bool)
	ReadBytes(name string) ([]byte, error)
}

// Extensions are the image types looked for, in preference order.
var Extensions = []string{".png", ".jpg", ".jpeg", ".gif", ".webp", ".bmp"}

// Resolver finds images by naming convention: an entry under
// .../{category}/{subcategory}/{key}.{ext}.
type Resolver struct {
	archive Archive
	dir     string
}

// New returns a resolver staging into dir. With an empty dir images are
// located but not copied, which is what dry runs use.
func New(archive Archive, dir string) *Resolver {
	return &Resolver{archive: archive, dir: dir}
}

// Lookup returns the archive entry holding the image, if any.
func (r *Resolver) Lookup(category, subcategory, key string) (string, bool) {
	if key == "" {
		return "", false
	}
	for _, ext := range Extensions {
		want := "/" + category + "/" + subcategory + "/" + key + ext
		if name, ok := r.archive.Find(func(name string) bool {
			return strings.HasSuffix(strings.ToLower("/"+name), strings.ToLower(want))
		}); ok {
			return name, true
		}
	}
	return "", false
}

// Resolve stages the image for key and returns its reference. A missing
// image gives nil with no error.
func (r *Resolver) Resolve(ctx context.Context, category, subcategory, key string) (*content.StagedAssetRef, error) {
	entry, ok := r.Lookup(category, subcategory, key)
	if !ok {
		return nil, nil
	}

	rel := path.Join(category, subcategory, path.Base(entry))
	ref := &content.StagedAssetRef{Path: rel, Source: entry}
	if r.dir == "" {
		return ref, nil
	}

	data, err := r.archive.ReadBytes(entry)
	if err != nil {
		return nil, err
	}
	dst := filepath.Join(r.dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(dst), constants.DirPermissions); err != nil {
		return nil, errors.WrapIO("create", filepath.Dir(dst), err)
	}
	if err := os.WriteFile(dst, data, constants.FilePermissions); err != nil {
		return nil, errors.WrapIO("write", dst, err)
	}

	logging.FromContext(ctx).Debug().
		Str("source", entry).
		Str("path", dst).
		Msg("Staged image")
	return ref, nil
}
