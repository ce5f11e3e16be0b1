package bookwriter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// SaveToFiles writes the outline and each chapter as markdown under outputDir.
func SaveToFiles(outline string, chapters []ChapterRecord, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	outlinePath := filepath.Join(outputDir, "00_Outline.md")
	if err := os.WriteFile(outlinePath, []byte(outline+"\n"), 0o644); err != nil {
		return fmt.Errorf("saving outline: %w", err)
	}
	for i := range chapters {
		name := fmt.Sprintf("%02d_%s.md", i+1, slug(chapters[i].Title))
		if err := os.WriteFile(filepath.Join(outputDir, name), []byte(chapters[i].Markdown()), 0o644); err != nil {
			return fmt.Errorf("saving chapter %d: %w", i+1, err)
		}
	}
	return nil
}

// slug keeps letters and digits and joins the words with underscores.
func slug(title string) string {
	words := strings.FieldsFunc(title, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(words) == 0 {
		return "Chapter"
	}
	return strings.Join(words, "_")
}
