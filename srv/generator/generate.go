package generator

import (
	"context"
	"fmt"

	bookwriter "github.com/opd-ai/bookwriter/src"
)

// Run takes a fresh session through every stage without user interaction.
// When outline is non-empty it replaces the proposed outline before
// confirmation.
func (c *Controller) Run(ctx context.Context, s *Session, req bookwriter.BookRequest, outline string, p bookwriter.Progressor) error {
	if p == nil {
		p = logProgressor{c}
	}

	steps := []struct {
		name     string
		function func() error
	}{
		{
			name: "generating outline",
			function: func() error {
				return c.Configure(ctx, s, req)
			},
		},
		{
			name: "confirming outline",
			function: func() error {
				if outline != "" {
					if err := c.EditOutline(s, outline); err != nil {
						return err
					}
				}
				return c.ConfirmOutline(s)
			},
		},
		{
			name: "generating chapters",
			function: func() error {
				return c.GenerateAll(ctx, s, p)
			},
		},
		{
			name: "compiling book",
			function: func() error {
				return c.Compile(s)
			},
		},
	}

	for _, step := range steps {
		p.UpdateOutput(step.name)
		if err := step.function(); err != nil {
			return fmt.Errorf("failed during %s: %w", step.name, err)
		}
	}
	p.UpdateOutput(fmt.Sprintf("compiled %d chapters into %d pages", len(s.Chapters), s.PageCount))
	return nil
}

type logProgressor struct {
	c *Controller
}

func (l logProgressor) UpdateOutput(message string) {
	l.c.logger.Info(message)
}
