package bookwriter

import "fmt"

func getOutlineSystemPrompt() string {
	return `You are an experienced author who creates professional, refined book outlines. ` +
		`Do not use special symbols (*, #, etc.) or bullet points. Write with a natural tone, ` +
		`like a real book. Number each chapter in a simple, clear manner.`
}

func getOutlinePrompt(premise string, desiredPages, chapterCount int) string {
	return fmt.Sprintf(`User premise:
%s

Please write a concise outline for a book with exactly %d chapters, aiming for ~%d pages total. `+
		`Number each chapter plainly (e.g., 'Chapter 1: Title'). `+
		`Avoid repeating headings or using special characters. Keep it short and professional.`,
		premise, chapterCount, desiredPages)
}

func getChapterSystemPrompt() string {
	return `You are an experienced author writing one chapter at a time. ` +
		`Write in a professional, cohesive style with multiple paragraphs, ` +
		`and avoid special symbols like *, #, or bullet points. ` +
		`Do not restate the chapter heading. Keep paragraphs substantial.`
}

func getChapterPrompt(title, summary, premise string, words int) string {
	return fmt.Sprintf(`Book premise:
%s

Summary of previous chapters:
%s

Next chapter title: '%s'. Please write around %d words. `+
		`Write multiple paragraphs of continuous prose, refined and engaging. `+
		`Do not repeat the chapter heading.`,
		premise, summary, title, words)
}
