package bookwriter

import (
	"context"
	"fmt"
	"strings"
)

// SummaryExcerptLength is how many characters of each chapter are carried
// forward in the running summary.
const SummaryExcerptLength = 500

// Progressor receives human-readable progress messages while chapters are
// being generated.
type Progressor interface {
	UpdateOutput(message string)
}

type nullProgressor struct{}

func (n nullProgressor) UpdateOutput(message string) {}

// GenerateOutline asks the service for an outline with exactly chapterCount
// numbered chapters. Service errors are returned as-is.
func GenerateOutline(ctx context.Context, client Client, premise string, desiredPages, chapterCount int) (string, error) {
	response, err := client.SendMessage(ctx, getOutlineSystemPrompt(), getOutlinePrompt(premise, desiredPages, chapterCount))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(response), nil
}

// GenerateChapter writes the body of one chapter. A heading the model repeats
// at the start of its answer is removed.
func GenerateChapter(ctx context.Context, client Client, title, summary, premise string, words int) (string, error) {
	response, err := client.SendMessage(ctx, getChapterSystemPrompt(), getChapterPrompt(title, summary, premise, words))
	if err != nil {
		return "", err
	}
	return StripHeading(strings.TrimSpace(response), title), nil
}

// StripHeading drops a case-insensitive title prefix from text together with
// any colons, periods, commas, spaces and newlines that follow it.
func StripHeading(text, title string) string {
	runes, heading := []rune(text), []rune(title)
	if len(heading) > 0 && len(runes) >= len(heading) && strings.EqualFold(string(runes[:len(heading)]), title) {
		text = strings.TrimLeft(string(runes[len(heading):]), ":., \n")
	}
	return strings.TrimSpace(text)
}

// AppendSummary adds one chapter's recap to the running summary.
func AppendSummary(summary, title, text string) string {
	excerpt := []rune(text)
	if len(excerpt) > SummaryExcerptLength {
		excerpt = excerpt[:SummaryExcerptLength]
	}
	return summary + "[" + title + "] " + string(excerpt) + "...\n"
}

// GenerateChapters writes every chapter in order. Each request carries the
// summary of all chapters before it, so the calls cannot overlap. On failure
// the chapters finished so far are returned along with the error.
func GenerateChapters(ctx context.Context, client Client, premise string, headings []string, words int, p Progressor) ([]ChapterRecord, string, error) {
	var pr Progressor
	if p != nil {
		pr = p
	} else {
		pr = nullProgressor{}
	}

	records := make([]ChapterRecord, 0, len(headings))
	summary := ""
	for i, title := range headings {
		pr.UpdateOutput(fmt.Sprintf("Generating Chapter %d: %s", i+1, title))
		text, err := GenerateChapter(ctx, client, title, summary, premise, words)
		if err != nil {
			return records, summary, fmt.Errorf("generating chapter %d: %w", i+1, err)
		}
		records = append(records, ChapterRecord{Title: title, Text: text})
		summary = AppendSummary(summary, title, text)
	}
	return records, summary, nil
}
