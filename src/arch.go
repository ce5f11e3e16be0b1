package bookwriter

import "errors"

// ErrEmptyResponse is returned when the completion service answers without any text.
var ErrEmptyResponse = errors.New("empty response from completion service")

// BookRequest is the user's input to the workflow.
type BookRequest struct {
	Premise      string `json:"premise"`
	DesiredPages int    `json:"desired_pages"`
}

// ChapterPlan is derived from a page count by Plan.
type ChapterPlan struct {
	ChapterCount    int `json:"chapter_count"`
	WordsPerChapter int `json:"words_per_chapter"`
}

// ChapterRecord holds one generated chapter. Text is replaced by user edits.
type ChapterRecord struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

// Markdown renders the chapter the way it is exported to disk.
func (c *ChapterRecord) Markdown() string {
	return "# " + c.Title + "\n\n" + c.Text + "\n"
}
