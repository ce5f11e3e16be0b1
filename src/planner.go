package bookwriter

const (
	// WordsPerPage is the page-to-word conversion used for chapter budgets.
	WordsPerPage = 300

	// PagesPerChapter is the number of pages one chapter is expected to fill.
	PagesPerChapter = 5

	MinChapters     = 5
	MaxChapters     = 20
	MinChapterWords = 200
)

// Plan computes the chapter count and per-chapter word budget for a page count.
// desiredPages must be positive; the UI and CLI enforce that.
func Plan(desiredPages int) ChapterPlan {
	count := desiredPages / PagesPerChapter
	if count < MinChapters {
		count = MinChapters
	} else if count > MaxChapters {
		count = MaxChapters
	}
	return ChapterPlan{
		ChapterCount:    count,
		WordsPerChapter: max(MinChapterWords, desiredPages*WordsPerPage/count),
	}
}
