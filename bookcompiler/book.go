package bookcompiler

import (
	"strings"
	"time"
)

const (
	letterWidth  = 612 // 8.5in
	letterHeight = 792 // 11in
	inch         = 72
)

// NewBookCompiler creates a compiler for US letter pages with one-inch margins.
func NewBookCompiler() *BookCompiler {
	return &BookCompiler{
		chapterFont:  TextStyle{FontFamily: "Times", Size: 18},
		textFont:     TextStyle{FontFamily: "Times", Size: 12},
		pageWidth:    letterWidth,
		pageHeight:   letterHeight,
		margin:       inch,
		headingGap:   inch / 2,
		lineHeight:   14,
		paragraphGap: 10,
		maxLineChars: 90,
		// A fixed date keeps repeated compiles byte-identical.
		creationDate: time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
}

// SetCreationDate sets the date stamped into the document metadata.
func (bc *BookCompiler) SetCreationDate(t time.Time) {
	bc.creationDate = t
}

// bottom is the lowest baseline allowed before the bottom margin.
func (bc *BookCompiler) bottom() float64 {
	return bc.pageHeight - bc.margin
}

var textReplacer = strings.NewReplacer(
	"\u201c", `"`, // smart quotes
	"\u201d", `"`,
	"\u2018", "'",
	"\u2019", "'",
	"\u2026", "...",
	"\u00a0", " ",
	"\ufeff", "",
	"\t", " ",
)

func (bc *BookCompiler) cleanText(text string) string {
	return textReplacer.Replace(text)
}
