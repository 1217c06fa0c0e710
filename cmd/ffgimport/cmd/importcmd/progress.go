package importcmd

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"

	"github.com/daezeri/ffgimport/pkg/content"
	"github.com/daezeri/ffgimport/pkg/importer"
)

// newProgress reports progress on w. On a terminal each type's counter is
// redrawn in place; elsewhere only completed types are printed.
func newProgress(w io.Writer) importer.Progress {
	interactive := false
	if f, ok := w.(*os.File); ok {
		interactive = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}

	var mu sync.Mutex
	return func(t content.Type, current, total int) {
		mu.Lock()
		defer mu.Unlock()
		switch {
		case interactive && current < total:
			fmt.Fprintf(w, "\r%-16s %d/%d", t.Label(), current, total)
		case interactive:
			fmt.Fprintf(w, "\r%-16s %d/%d\n", t.Label(), current, total)
		case current == total:
			fmt.Fprintf(w, "%s: %d/%d\n", t.Label(), current, total)
		}
	}
}
