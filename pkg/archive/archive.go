// Package archive reads the exported content ZIP.
//
// Entry names are the slash separated paths stored in the ZIP. Directories
// are not required to have their own entries: a name is a directory when it
// ends in "/" or prefixes another entry.
package archive

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/daezeri/ffgimport/pkg/errors"
)

// Archive is a read-only view over a decoded ZIP. It is safe for concurrent
// reads.
type Archive struct {
	name    string
	reader  *zip.Reader
	closer  io.Closer
	files   map[string]*zip.File
	entries []string

	dirsOnce sync.Once
	dirs     map[string]bool
}

// Open opens a ZIP archive on disk. Callers must Close it.
func Open(filename string) (*Archive, error) {
	rc, err := zip.OpenReader(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapIO("open", filename, err)
		}
		return nil, errors.WrapParse("zip", filename, err)
	}
	a := newArchive(filename, &rc.Reader)
	a.closer = rc
	return a, nil
}

// FromBytes decodes an in-memory ZIP blob.
func FromBytes(name string, data []byte) (*Archive, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, errors.WrapParse("zip", name, err)
	}
	return newArchive(name, r), nil
}

func newArchive(name string, r *zip.Reader) *Archive {
	a := &Archive{
		name:    name,
		reader:  r,
		files:   make(map[string]*zip.File, len(r.File)),
		entries: make([]string, 0, len(r.File)),
	}
	for _, f := range r.File {
		if _, dup := a.files[f.Name]; dup {
			continue
		}
		a.files[f.Name] = f
		a.entries = append(a.entries, f.Name)
	}
	return a
}

// Name returns the file name or label the archive was opened with.
func (a *Archive) Name() string {
	return a.name
}

// Close releases the underlying file, if any.
func (a *Archive) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

// List returns every entry name in archive order.
func (a *Archive) List() []string {
	out := make([]string, len(a.entries))
	copy(out, a.entries)
	return out
}

// IsDir reports whether name denotes a directory in the archive.
func (a *Archive) IsDir(name string) bool {
	if f, ok := a.files[name]; ok {
		return f.FileInfo().IsDir() || strings.HasSuffix(name, "/")
	}
	a.dirsOnce.Do(a.indexDirs)
	return a.dirs[strings.TrimSuffix(name, "/")]
}

func (a *Archive) indexDirs() {
	a.dirs = make(map[string]bool)
	for _, e := range a.entries {
		for dir := path.Dir(strings.TrimSuffix(e, "/")); dir != "." && dir != "/"; dir = path.Dir(dir) {
			if a.dirs[dir] {
				break
			}
			a.dirs[dir] = true
		}
		if strings.HasSuffix(e, "/") {
			a.dirs[strings.TrimSuffix(e, "/")] = true
		}
	}
}

// ReadBytes returns the decompressed content of an entry.
func (a *Archive) ReadBytes(name string) ([]byte, error) {
	f, ok := a.files[name]
	if !ok {
		return nil, errors.NewNotFoundError("archive entry", name)
	}
	if a.IsDir(name) {
		return nil, &errors.ValidationError{Field: "name", Value: name, Message: "entry is a directory"}
	}
	rc, err := f.Open()
	if err != nil {
		return nil, errors.WrapIO("read", name, err)
	}
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, errors.WrapIO("read", name, err)
	}
	return data, nil
}

// ReadText returns an entry decoded as text. A UTF-8 byte order mark is
// dropped.
func (a *Archive) ReadText(name string) (string, error) {
	data, err := a.ReadBytes(name)
	if err != nil {
		return "", err
	}
	return string(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))), nil
}

// Find returns the first file entry whose name satisfies match.
func (a *Archive) Find(match func(name string) bool) (string, bool) {
	for _, e := range a.entries {
		if a.IsDir(e) {
			continue
		}
		if match(e) {
			return e, true
		}
	}
	return "", false
}

// FindFile returns the first file entry named base, at any depth.
func (a *Archive) FindFile(base string) (string, bool) {
	return a.Find(func(name string) bool {
		return name == base || strings.HasSuffix(name, "/"+base)
	})
}

// XMLFilesIn returns, in archive order, every .xml file that sits somewhere
// below a directory called dir.
func (a *Archive) XMLFilesIn(dir string) []string {
	var out []string
	segment := "/" + strings.Trim(dir, "/") + "/"
	for _, e := range a.entries {
		if a.IsDir(e) || !strings.EqualFold(path.Ext(e), ".xml") {
			continue
		}
		if strings.Contains("/"+e, segment) {
			out = append(out, e)
		}
	}
	return out
}
