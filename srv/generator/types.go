package generator

import (
	"errors"
	"fmt"
	"time"

	"github.com/opd-ai/bookwriter/bookcompiler"
	bookwriter "github.com/opd-ai/bookwriter/src"
)

// Stage is a step of the book workflow.
type Stage string

const (
	StageConfiguring       Stage = "configuring"
	StageOutlineProposed   Stage = "outline_proposed"
	StageOutlineConfirmed  Stage = "outline_confirmed"
	StageChaptersGenerated Stage = "chapters_generated"
	StageCompiled          Stage = "compiled"
)

var stageOrder = map[Stage]int{
	StageConfiguring:       0,
	StageOutlineProposed:   1,
	StageOutlineConfirmed:  2,
	StageChaptersGenerated: 3,
	StageCompiled:          4,
}

// AtLeast reports whether s is the same as or later than other.
func (s Stage) AtLeast(other Stage) bool {
	return stageOrder[s] >= stageOrder[other]
}

var (
	// ErrWrongStage is returned when an operation is not valid in the
	// session's current stage. The session is left untouched.
	ErrWrongStage = errors.New("operation not allowed in current stage")
	// ErrInvalidInput is returned for a page count outside 1..MaxPages.
	ErrInvalidInput = errors.New("invalid input")
	// ErrChapterIndex is returned when an edit names a chapter that does not exist.
	ErrChapterIndex = errors.New("chapter index out of range")
)

// StageError reports a failed stage transition. Chapter is the 1-based
// chapter being generated when the failure happened, or 0.
//
// It only carries the failure location: Err is the service or compiler
// error exactly as returned, and Unwrap hands it back unmodified, so
// errors.Is and errors.As see the original error.
type StageError struct {
	Stage   Stage
	Chapter int
	Err     error
}

func (e *StageError) Error() string {
	if e.Chapter > 0 {
		return fmt.Sprintf("stage %s failed at chapter %d: %v", e.Stage, e.Chapter, e.Err)
	}
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Session holds everything the workflow carries between stages for one user.
// A Session is not safe for concurrent use.
type Session struct {
	ID         string                     `json:"id"`
	Stage      Stage                      `json:"stage"`
	Request    bookwriter.BookRequest     `json:"request"`
	Plan       bookwriter.ChapterPlan     `json:"plan"`
	RawOutline string                     `json:"raw_outline"`
	Outline    string                     `json:"outline"`
	Headings   []string                   `json:"headings"`
	Chapters   []bookwriter.ChapterRecord `json:"chapters"`
	Summary    string                     `json:"summary"`
	Document   []byte                     `json:"document,omitempty"`
	PageCount  int                        `json:"page_count"`
	UpdatedAt  time.Time                  `json:"updated_at"`
}

// NewSession starts a session in the configuring stage.
func NewSession(id string) *Session {
	return &Session{
		ID:        id,
		Stage:     StageConfiguring,
		UpdatedAt: time.Now(),
	}
}

// reset discards everything derived from a previous configuration.
func (s *Session) reset() {
	*s = Session{ID: s.ID, Stage: StageConfiguring, UpdatedAt: time.Now()}
}

func (s *Session) compilerChapters() []bookcompiler.Chapter {
	out := make([]bookcompiler.Chapter, len(s.Chapters))
	for i, ch := range s.Chapters {
		out[i] = bookcompiler.Chapter{Title: ch.Title, Text: ch.Text}
	}
	return out
}
