package generator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/ledongthuc/pdf"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/opd-ai/bookwriter/bookcompiler"
	bookwriter "github.com/opd-ai/bookwriter/src"
)

const premise = "A detective solves a locked-room mystery"

// fakeService answers outline requests with a fixed outline and chapter
// requests with a deterministic body built from the requested title.
type fakeService struct {
	outline     string
	failChapter int // 1-based chapter request that fails, 0 for never
	err         error
	outlines    int
	lastOutline string
	chapters    []string
}

func (f *fakeService) SendMessage(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if strings.Contains(systemPrompt, "outlines") {
		f.outlines++
		f.lastOutline = userPrompt
		if f.failChapter < 0 {
			return "", f.err
		}
		return f.outline, nil
	}
	title := between(userPrompt, "Next chapter title: '", "'.")
	f.chapters = append(f.chapters, title)
	if len(f.chapters) == f.failChapter {
		return "", f.err
	}
	return title + "\n" + strings.Repeat("The detective examined the room once more. ", 40) +
		"\nA second paragraph for " + title + ".", nil
}

func between(s, start, end string) string {
	i := strings.Index(s, start)
	if i < 0 {
		return ""
	}
	s = s[i+len(start):]
	if j := strings.Index(s, end); j >= 0 {
		return s[:j]
	}
	return s
}

const threeHeadings = `Here is your outline.

Chapter 1: The Body in the Study
The victim is found behind a bolted door.
Chapter 2: Suspects
Chapter 3: The Hidden Latch`

func newTestController(svc bookwriter.Client) (*Controller, *Metrics) {
	m := NewMetrics(prometheus.NewRegistry())
	return NewController(svc, bookcompiler.NewBookCompiler(), m, log.New(io.Discard)), m
}

func configured(t *testing.T, c *Controller) *Session {
	t.Helper()
	s := NewSession("test")
	if err := c.Configure(context.Background(), s, bookwriter.BookRequest{Premise: premise, DesiredPages: 25}); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}
	return s
}

func TestEndToEnd(t *testing.T) {
	svc := &fakeService{outline: threeHeadings}
	c, m := newTestController(svc)
	ctx := context.Background()

	s := configured(t, c)
	if s.Stage != StageOutlineProposed {
		t.Fatalf("stage = %s", s.Stage)
	}
	if s.Plan.ChapterCount != 5 || s.Plan.WordsPerChapter != 1500 {
		t.Errorf("plan = %+v, want 5 chapters of 1500 words", s.Plan)
	}
	if s.RawOutline != threeHeadings || s.Outline != threeHeadings {
		t.Errorf("outline not stored")
	}

	if err := c.ConfirmOutline(s); err != nil {
		t.Fatalf("ConfirmOutline() error = %v", err)
	}
	want := []string{
		"Chapter 1: The Body in the Study",
		"Chapter 2: Suspects",
		"Chapter 3: The Hidden Latch",
		"Chapter 4: Untitled",
		"Chapter 5: Untitled",
	}
	if strings.Join(s.Headings, "|") != strings.Join(want, "|") {
		t.Fatalf("headings = %q", s.Headings)
	}

	if err := c.GenerateAll(ctx, s, nil); err != nil {
		t.Fatalf("GenerateAll() error = %v", err)
	}
	if strings.Join(svc.chapters, "|") != strings.Join(want, "|") {
		t.Errorf("chapters requested in order %q", svc.chapters)
	}
	if len(s.Chapters) != 5 || s.Stage != StageChaptersGenerated {
		t.Fatalf("got %d chapters in stage %s", len(s.Chapters), s.Stage)
	}
	for i, ch := range s.Chapters {
		if strings.HasPrefix(ch.Text, ch.Title) {
			t.Errorf("chapter %d still starts with its heading", i+1)
		}
	}

	if err := c.Compile(s); err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if s.Stage != StageCompiled || len(s.Document) == 0 {
		t.Fatalf("stage = %s, document = %d bytes", s.Stage, len(s.Document))
	}

	r, err := pdf.NewReader(bytes.NewReader(s.Document), int64(len(s.Document)))
	if err != nil {
		t.Fatalf("reading document: %v", err)
	}
	if r.NumPage() != s.PageCount {
		t.Errorf("PageCount = %d, document has %d pages", s.PageCount, r.NumPage())
	}
	starts := 0
	for i := 1; i <= r.NumPage(); i++ {
		text, err := r.Page(i).GetPlainText(nil)
		if err != nil {
			t.Fatalf("page %d: %v", i, err)
		}
		text = strings.Join(strings.Fields(text), "")
		for _, h := range want {
			if strings.HasPrefix(text, strings.Join(strings.Fields(h), "")) {
				starts++
			}
		}
	}
	if starts != 5 {
		t.Errorf("found %d chapter-start pages, want 5", starts)
	}
	for _, page := range c.compiler.Layout(s.compilerChapters()) {
		for j, line := range page.Lines {
			if line.Heading && (j != 0 || line.Y != 72) {
				t.Errorf("heading %q not at the top margin", line.Text)
			}
		}
	}

	if got := testutil.ToFloat64(m.CompletionRequests.WithLabelValues("chapter", "ok")); got != 5 {
		t.Errorf("chapter requests metric = %v, want 5", got)
	}
	if got := testutil.ToFloat64(m.StageTransitions.WithLabelValues(string(StageCompiled))); got != 1 {
		t.Errorf("compiled transitions metric = %v, want 1", got)
	}
}

func TestWrongStage(t *testing.T) {
	c, _ := newTestController(&fakeService{outline: threeHeadings})
	ctx := context.Background()
	s := NewSession("s")

	checks := map[string]error{
		"edit outline": c.EditOutline(s, "x"),
		"confirm":      c.ConfirmOutline(s),
		"generate":     c.GenerateAll(ctx, s, nil),
		"edit chapter": c.EditChapter(s, 0, "x"),
		"compile":      c.Compile(s),
	}
	for name, err := range checks {
		if !errors.Is(err, ErrWrongStage) {
			t.Errorf("%s: error = %v, want ErrWrongStage", name, err)
		}
	}
	if s.Stage != StageConfiguring || s.Outline != "" {
		t.Errorf("session changed: %+v", s)
	}
}

func TestConfigureValidation(t *testing.T) {
	svc := &fakeService{outline: threeHeadings}
	c, _ := newTestController(svc)
	for _, req := range []bookwriter.BookRequest{
		{Premise: premise, DesiredPages: 0},
		{Premise: premise, DesiredPages: 1000},
	} {
		if err := c.Configure(context.Background(), NewSession("s"), req); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("Configure(%+v) error = %v, want ErrInvalidInput", req, err)
		}
	}
	if svc.outlines != 0 {
		t.Errorf("invalid input reached the service %d times", svc.outlines)
	}
}

func TestConfigureKeepsPremiseAsGiven(t *testing.T) {
	for _, given := range []string{"", "   ", "  A padded premise\n"} {
		svc := &fakeService{outline: threeHeadings}
		c, _ := newTestController(svc)
		s := NewSession("s")
		if err := c.Configure(context.Background(), s, bookwriter.BookRequest{Premise: given, DesiredPages: 25}); err != nil {
			t.Fatalf("Configure(%q) error = %v", given, err)
		}
		if s.Stage != StageOutlineProposed || s.Request.Premise != given {
			t.Errorf("Configure(%q): stage %s, premise %q", given, s.Stage, s.Request.Premise)
		}
		if !strings.Contains(svc.lastOutline, "User premise:\n"+given+"\n") {
			t.Errorf("outline prompt does not carry %q verbatim:\n%s", given, svc.lastOutline)
		}
	}
}

func TestConfigureFailureKeepsState(t *testing.T) {
	boom := errors.New("network down")
	svc := &fakeService{outline: threeHeadings}
	c, _ := newTestController(svc)
	s := configured(t, c)

	svc.failChapter, svc.err = -1, boom
	err := c.Configure(context.Background(), s, bookwriter.BookRequest{Premise: "Another book", DesiredPages: 100})
	var stageErr *StageError
	if !errors.As(err, &stageErr) || stageErr.Err != boom || stageErr.Unwrap() != boom {
		t.Fatalf("Configure() error = %v", err)
	}
	if s.Stage != StageOutlineProposed || s.Request.Premise != premise || s.Plan.ChapterCount != 5 {
		t.Errorf("failed configure changed the session: %+v", s)
	}
}

func TestGenerateAllFailureKeepsPreviousChapters(t *testing.T) {
	boom := errors.New("rate limited")
	svc := &fakeService{outline: threeHeadings}
	c, _ := newTestController(svc)
	ctx := context.Background()
	s := configured(t, c)
	if err := c.ConfirmOutline(s); err != nil {
		t.Fatal(err)
	}
	if err := c.GenerateAll(ctx, s, nil); err != nil {
		t.Fatal(err)
	}
	if err := c.EditChapter(s, 1, "edited"); err != nil {
		t.Fatal(err)
	}
	before := fmt.Sprint(s.Chapters, s.Summary)

	svc.chapters = nil
	svc.failChapter, svc.err = 3, boom
	err := c.GenerateAll(ctx, s, nil)

	var stageErr *StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("GenerateAll() error = %v, want *StageError", err)
	}
	if stageErr.Chapter != 3 || !errors.Is(err, boom) {
		t.Errorf("StageError = %+v", stageErr)
	}
	if len(svc.chapters) != 3 {
		t.Errorf("service saw %d chapter requests, want 3", len(svc.chapters))
	}
	if after := fmt.Sprint(s.Chapters, s.Summary); after != before {
		t.Error("failed batch changed the committed chapters")
	}
	if s.Stage != StageChaptersGenerated {
		t.Errorf("stage = %s", s.Stage)
	}
}

func TestEditAndRecompile(t *testing.T) {
	svc := &fakeService{outline: threeHeadings}
	c, _ := newTestController(svc)
	ctx := context.Background()
	s := configured(t, c)
	_ = c.ConfirmOutline(s)
	if err := c.GenerateAll(ctx, s, nil); err != nil {
		t.Fatal(err)
	}
	if err := c.Compile(s); err != nil {
		t.Fatal(err)
	}
	first := s.Document

	if err := c.Compile(s); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first, s.Document) {
		t.Error("recompiling unchanged chapters produced different bytes")
	}

	untouched := s.Chapters[0].Text
	if err := c.EditChapter(s, 4, "A short ending."); err != nil {
		t.Fatalf("EditChapter() error = %v", err)
	}
	if s.Stage != StageChaptersGenerated {
		t.Errorf("stage after edit = %s", s.Stage)
	}
	if s.Chapters[0].Text != untouched || s.Chapters[4].Text != "A short ending." {
		t.Error("edit touched the wrong chapter")
	}
	if err := c.EditChapter(s, 5, "x"); !errors.Is(err, ErrChapterIndex) {
		t.Errorf("EditChapter(5) error = %v", err)
	}
	if err := c.Compile(s); err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(first, s.Document) {
		t.Error("compile did not pick up the edit")
	}
}

func TestEditOutlineDropsDerivedState(t *testing.T) {
	c, _ := newTestController(&fakeService{outline: threeHeadings})
	s := configured(t, c)
	_ = c.ConfirmOutline(s)
	if err := c.GenerateAll(context.Background(), s, nil); err != nil {
		t.Fatal(err)
	}

	if err := c.EditOutline(s, "Chapter 1: New start"); err != nil {
		t.Fatalf("EditOutline() error = %v", err)
	}
	if s.Stage != StageOutlineProposed || s.Chapters != nil || s.Headings != nil {
		t.Errorf("session after outline edit: stage %s, %d chapters", s.Stage, len(s.Chapters))
	}
	if s.RawOutline != threeHeadings {
		t.Error("raw outline should be kept")
	}
	if err := c.ConfirmOutline(s); err != nil {
		t.Fatal(err)
	}
	if s.Headings[0] != "Chapter 1: New start" || s.Headings[1] != "Chapter 2: Untitled" {
		t.Errorf("headings = %q", s.Headings)
	}
}

func TestReconfigureResets(t *testing.T) {
	c, _ := newTestController(&fakeService{outline: threeHeadings})
	ctx := context.Background()
	s := configured(t, c)
	_ = c.ConfirmOutline(s)
	_ = c.GenerateAll(ctx, s, nil)
	if err := c.Compile(s); err != nil {
		t.Fatal(err)
	}

	if err := c.Configure(ctx, s, bookwriter.BookRequest{Premise: "A second book", DesiredPages: 200}); err != nil {
		t.Fatal(err)
	}
	if s.Stage != StageOutlineProposed || s.Headings != nil || s.Chapters != nil ||
		s.Summary != "" || s.Document != nil || s.PageCount != 0 {
		t.Errorf("reconfigure kept downstream state: %+v", s)
	}
	if s.ID != "test" || s.Plan.ChapterCount != 20 {
		t.Errorf("session = %+v", s)
	}
}

type messages []string

func (m *messages) UpdateOutput(msg string) { *m = append(*m, msg) }

func TestRun(t *testing.T) {
	svc := &fakeService{outline: threeHeadings}
	c, _ := newTestController(svc)
	var progress messages
	s := NewSession("cli")

	override := "Chapter 1: Alpha\nChapter 2: Beta\nChapter 3: Gamma\nChapter 4: Delta\nChapter 5: Epsilon\nChapter 6: Extra"
	err := c.Run(context.Background(), s, bookwriter.BookRequest{Premise: premise, DesiredPages: 25}, override, &progress)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if s.Stage != StageCompiled || s.PageCount < 5 {
		t.Errorf("stage %s with %d pages", s.Stage, s.PageCount)
	}
	if len(s.Headings) != 5 || s.Headings[4] != "Chapter 5: Epsilon" {
		t.Errorf("headings = %q", s.Headings)
	}
	if !strings.Contains(strings.Join(progress, "\n"), "Generating Chapter 3: Chapter 3: Gamma") {
		t.Errorf("progress = %q", progress)
	}
}

func TestReconfirmKeepsChapters(t *testing.T) {
	c, _ := newTestController(&fakeService{outline: threeHeadings})
	ctx := context.Background()
	s := configured(t, c)
	if err := c.ConfirmOutline(s); err != nil {
		t.Fatal(err)
	}
	if err := c.GenerateAll(ctx, s, nil); err != nil {
		t.Fatal(err)
	}
	if err := c.Compile(s); err != nil {
		t.Fatal(err)
	}
	chapters, doc := len(s.Chapters), len(s.Document)

	if err := c.EditOutline(s, s.Outline); err != nil {
		t.Fatalf("EditOutline(unchanged) error = %v", err)
	}
	if err := c.ConfirmOutline(s); err != nil {
		t.Fatalf("ConfirmOutline() after compile error = %v", err)
	}
	if s.Stage != StageCompiled || len(s.Chapters) != chapters || len(s.Document) != doc {
		t.Errorf("re-confirm changed the session: stage %s, %d chapters, %d bytes", s.Stage, len(s.Chapters), len(s.Document))
	}
}
