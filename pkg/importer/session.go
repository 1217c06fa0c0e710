package importer

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/daezeri/ffgimport/pkg/errors"
	"github.com/daezeri/ffgimport/pkg/mapper"
	"github.com/daezeri/ffgimport/pkg/sourcexml"
)

// Session holds the state shared by the tasks of one run: the import log
// and the skill table.
type Session struct {
	now     func() time.Time
	logging bool

	mu    sync.Mutex
	lines []string

	skillsMu    sync.Mutex
	skillsBuilt bool
	skills      map[string]string
	skillsErr   error
	skillBuilds int

	archive   Archive
	canonical []string
}

func newSession(archive Archive, canonical []string, logging bool, now func() time.Time) *Session {
	return &Session{
		now:       now,
		logging:   logging,
		archive:   archive,
		canonical: canonical,
	}
}

// Logf appends a "[unix-millis] message" line when logging is enabled.
func (s *Session) Logf(format string, args ...any) {
	if !s.logging {
		return
	}
	line := fmt.Sprintf("[%d] %s", s.now().UnixMilli(), fmt.Sprintf(format, args...))
	s.mu.Lock()
	s.lines = append(s.lines, line)
	s.mu.Unlock()
}

// Lines returns a copy of the collected log.
func (s *Session) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.lines...)
}

// WriteTo writes the log, one line per entry.
func (s *Session) WriteTo(w io.Writer) (int64, error) {
	lines := s.Lines()
	if len(lines) == 0 {
		return 0, nil
	}
	n, err := io.WriteString(w, strings.Join(lines, "\n")+"\n")
	return int64(n), err
}

// SkillMap returns the skill key to canonical name table. It is built from
// Skills.xml on first use; later callers get the same map, or the same
// error.
func (s *Session) SkillMap(ctx context.Context) (map[string]string, error) {
	s.skillsMu.Lock()
	defer s.skillsMu.Unlock()

	if s.skillsBuilt {
		return s.skills, s.skillsErr
	}
	s.skills, s.skillsErr = s.buildSkills(ctx)
	s.skillsBuilt = true
	s.skillBuilds++
	return s.skills, s.skillsErr
}

func (s *Session) buildSkills(ctx context.Context) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.archive == nil {
		return nil, errors.NewNotFoundError("file", mapper.SkillsFile)
	}
	name, ok := s.archive.FindFile(mapper.SkillsFile)
	if !ok {
		return nil, errors.NewNotFoundError("file", mapper.SkillsFile)
	}
	text, err := s.archive.ReadText(name)
	if err != nil {
		return nil, err
	}
	catalog, err := sourcexml.ParseSkills(name, strings.NewReader(text))
	if err != nil {
		return nil, err
	}
	s.Logf("Built skill table from %s with %d skills", name, len(catalog))
	return mapper.SkillTable(catalog, s.canonical), nil
}
