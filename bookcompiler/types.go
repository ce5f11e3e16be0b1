package bookcompiler

import "time"

// BookCompiler lays chapters out on fixed-size pages and draws them as a PDF.
// Coordinates are in points, measured from the top-left corner of the page.
type BookCompiler struct {
	chapterFont  TextStyle
	textFont     TextStyle
	pageWidth    float64
	pageHeight   float64
	margin       float64
	headingGap   float64
	lineHeight   float64
	paragraphGap float64
	maxLineChars int
	creationDate time.Time
}

// Chapter is one (heading, body) pair to be laid out.
type Chapter struct {
	Title string
	Text  string
}

// Page holds the lines placed on one page, top to bottom.
type Page struct {
	Lines []Line
}

// Line is a single run of text at a fixed baseline position.
type Line struct {
	Text    string
	X       float64
	Y       float64
	Style   TextStyle
	Heading bool
}

// TextStyle holds current text formatting state
type TextStyle struct {
	FontFamily string
	Style      string
	Size       float64
}
