package bookcompiler

import "strings"

// Layout places every chapter on pages without drawing anything. Each chapter
// starts on a new page with its heading on the top margin; body lines follow
// the heading and wrap onto further pages before reaching the bottom margin.
func (bc *BookCompiler) Layout(chapters []Chapter) []Page {
	c := &cursor{bc: bc}
	for _, ch := range chapters {
		c.newPage()
		c.place(bc.cleanText(strings.TrimSpace(ch.Title)), bc.chapterFont, true)
		c.y += bc.headingGap

		for _, paragraph := range strings.Split(bc.cleanText(ch.Text), "\n") {
			for _, line := range wrapParagraph(paragraph, bc.maxLineChars) {
				c.place(line, bc.textFont, false)
				c.advance(bc.lineHeight)
			}
			c.advance(bc.paragraphGap)
		}
	}
	return c.pages
}

// cursor tracks the current page and baseline. A page break is only taken
// when another line needs room, so a chapter that ends exactly at the bottom
// margin does not leave an empty page behind.
type cursor struct {
	bc      *BookCompiler
	pages   []Page
	y       float64
	pending bool
}

func (c *cursor) newPage() {
	c.pages = append(c.pages, Page{})
	c.y = c.bc.margin
	c.pending = false
}

func (c *cursor) place(text string, style TextStyle, heading bool) {
	if c.pending {
		c.newPage()
	}
	page := &c.pages[len(c.pages)-1]
	page.Lines = append(page.Lines, Line{
		Text:    text,
		X:       c.bc.margin,
		Y:       c.y,
		Style:   style,
		Heading: heading,
	})
}

func (c *cursor) advance(dy float64) {
	c.y += dy
	if c.y > c.bc.bottom() {
		c.pending = true
	}
}

// wrapParagraph splits a paragraph into lines of at most width characters,
// breaking at the last space inside the limit or cutting hard when a run has
// no space. Lines are trimmed; a blank paragraph yields no lines.
func wrapParagraph(paragraph string, width int) []string {
	var lines []string
	rest := []rune(strings.TrimSpace(paragraph))
	for len(rest) > width {
		cut := lastSpace(rest[:width])
		if cut < 0 {
			cut = width
		}
		lines = append(lines, strings.TrimSpace(string(rest[:cut])))
		rest = []rune(strings.TrimSpace(string(rest[cut:])))
	}
	if len(rest) > 0 {
		lines = append(lines, string(rest))
	}
	return lines
}

func lastSpace(r []rune) int {
	for i := len(r) - 1; i >= 0; i-- {
		if r[i] == ' ' {
			return i
		}
	}
	return -1
}
