package generator

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/opd-ai/bookwriter/bookcompiler"
	bookwriter "github.com/opd-ai/bookwriter/src"
)

// MaxPages is the largest page count a book may be configured with.
const MaxPages = 999

// Controller drives a Session through the workflow stages. It holds no
// per-session state, so one Controller serves every session.
type Controller struct {
	client   bookwriter.Client
	compiler *bookcompiler.BookCompiler
	metrics  *Metrics
	logger   *log.Logger
}

func NewController(client bookwriter.Client, compiler *bookcompiler.BookCompiler, metrics *Metrics, logger *log.Logger) *Controller {
	if compiler == nil {
		compiler = bookcompiler.NewBookCompiler()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Controller{
		client:   client,
		compiler: compiler,
		metrics:  metrics,
		logger:   logger,
	}
}

func (c *Controller) transition(s *Session, to Stage) {
	c.logger.Info("stage transition", "session", s.ID, "from", s.Stage, "to", to)
	c.metrics.StageTransitions.WithLabelValues(string(to)).Inc()
	s.Stage = to
	s.UpdatedAt = time.Now()
}

func wrongStage(op string, s *Session) error {
	return fmt.Errorf("%w: cannot %s while %s", ErrWrongStage, op, s.Stage)
}

// Configure plans the book and requests an outline. It may be called in any
// stage; on success everything derived from an earlier configuration is
// discarded. On failure the session is unchanged. The premise is passed to
// the service exactly as given, blank or not.
func (c *Controller) Configure(ctx context.Context, s *Session, req bookwriter.BookRequest) error {
	if req.DesiredPages < 1 || req.DesiredPages > MaxPages {
		return fmt.Errorf("%w: page count must be between 1 and %d", ErrInvalidInput, MaxPages)
	}

	plan := bookwriter.Plan(req.DesiredPages)
	client := observedClient{Client: c.client, kind: "outline", metrics: c.metrics}
	outline, err := bookwriter.GenerateOutline(ctx, client, req.Premise, req.DesiredPages, plan.ChapterCount)
	if err != nil {
		return &StageError{Stage: s.Stage, Err: err}
	}

	s.reset()
	s.Request = req
	s.Plan = plan
	s.RawOutline = outline
	s.Outline = outline
	c.transition(s, StageOutlineProposed)
	return nil
}

// EditOutline replaces the editable outline text. Headings, chapters and the
// compiled document depend on the outline, so they are dropped and the
// session returns to the proposed-outline stage.
func (c *Controller) EditOutline(s *Session, text string) error {
	if !s.Stage.AtLeast(StageOutlineProposed) {
		return wrongStage("edit the outline", s)
	}
	if text == s.Outline {
		return nil
	}
	s.Outline = text
	s.Headings = nil
	s.Chapters = nil
	s.Summary = ""
	s.Document = nil
	s.PageCount = 0
	if s.Stage != StageOutlineProposed {
		c.transition(s, StageOutlineProposed)
	}
	s.UpdatedAt = time.Now()
	return nil
}

// ConfirmOutline turns the current outline text into exactly
// Plan.ChapterCount headings. Once chapters exist the headings already match
// the outline, since any outline edit returns to OutlineProposed, so
// confirming again keeps the chapters and changes nothing.
func (c *Controller) ConfirmOutline(s *Session) error {
	if !s.Stage.AtLeast(StageOutlineProposed) {
		return wrongStage("confirm the outline", s)
	}
	if s.Stage.AtLeast(StageChaptersGenerated) {
		return nil
	}
	s.Headings = bookwriter.NormalizeOutline(s.Outline, s.Plan.ChapterCount)
	c.transition(s, StageOutlineConfirmed)
	return nil
}

// GenerateAll writes every chapter in heading order, one request at a time.
// The new chapters replace the old ones only when the whole batch succeeds;
// a failure leaves the session exactly as it was and no later chapter is
// requested.
func (c *Controller) GenerateAll(ctx context.Context, s *Session, p bookwriter.Progressor) error {
	if !s.Stage.AtLeast(StageOutlineConfirmed) {
		return wrongStage("generate chapters", s)
	}

	client := observedClient{Client: c.client, kind: "chapter", metrics: c.metrics}
	records, summary, err := bookwriter.GenerateChapters(ctx, client, s.Request.Premise, s.Headings, s.Plan.WordsPerChapter, p)
	if err != nil {
		c.logger.Error("chapter generation failed", "session", s.ID, "chapter", len(records)+1, "err", err)
		return &StageError{Stage: s.Stage, Chapter: len(records) + 1, Err: err}
	}

	s.Chapters = records
	s.Summary = summary
	s.Document = nil
	s.PageCount = 0
	c.transition(s, StageChaptersGenerated)
	return nil
}

// EditChapter replaces the text of the chapter at index (0-based). Other
// chapters are not touched. A previously compiled document stays available
// until the next compile.
func (c *Controller) EditChapter(s *Session, index int, text string) error {
	if !s.Stage.AtLeast(StageChaptersGenerated) {
		return wrongStage("edit a chapter", s)
	}
	if index < 0 || index >= len(s.Chapters) {
		return fmt.Errorf("%w: %d of %d", ErrChapterIndex, index, len(s.Chapters))
	}
	s.Chapters[index].Text = text
	if s.Stage != StageChaptersGenerated {
		c.transition(s, StageChaptersGenerated)
	}
	s.UpdatedAt = time.Now()
	return nil
}

// Compile renders the current chapters, replacing any earlier document.
func (c *Controller) Compile(s *Session) error {
	if !s.Stage.AtLeast(StageChaptersGenerated) {
		return wrongStage("compile", s)
	}
	doc, err := c.compiler.Compile(s.compilerChapters())
	if err != nil {
		return &StageError{Stage: s.Stage, Err: err}
	}
	pages, err := bookcompiler.PageCount(doc)
	if err != nil {
		return &StageError{Stage: s.Stage, Err: err}
	}

	s.Document = doc
	s.PageCount = pages
	c.metrics.CompiledPages.Observe(float64(pages))
	c.transition(s, StageCompiled)
	return nil
}
