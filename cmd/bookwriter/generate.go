package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/opd-ai/bookwriter/bookcompiler"
	"github.com/opd-ai/bookwriter/srv/generator"
	bookwriter "github.com/opd-ai/bookwriter/src"
)

// defaultPromptFile is read when neither --premise nor --premise-file is set.
const defaultPromptFile = "PROMPT.md"

var (
	genPremise     string
	genPremiseFile string
	genPages       int
	genOut         string
	genOutlineFile string
	genDirname     string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a whole book without interaction",
	Long: `Run every workflow stage in one go: plan, outline, confirm, write all
chapters and compile the PDF.

The proposed outline is used as is unless --outline-file supplies a
replacement. With --dirname the outline and chapters are also written
as Markdown files.

Examples:
  bookwriter generate -p "A lighthouse keeper finds a message in a bottle" --pages 60
  bookwriter generate --premise-file premise.txt --out novel.pdf --dirname manuscript`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		premise, err := readPremise()
		if err != nil {
			return err
		}
		var outline string
		if genOutlineFile != "" {
			data, err := os.ReadFile(genOutlineFile)
			if err != nil {
				return fmt.Errorf("reading outline: %w", err)
			}
			outline = string(data)
		}

		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		client, err := bookwriter.NewClient(cfg.ClientConfig(), logger)
		if err != nil {
			return err
		}

		controller := generator.NewController(client, bookcompiler.NewBookCompiler(), nil, logger)
		session := generator.NewSession(uuid.New().String())
		req := bookwriter.BookRequest{Premise: premise, DesiredPages: genPages}
		progress := printProgressor{w: cmd.ErrOrStderr()}
		if err := controller.Run(cmd.Context(), session, req, outline, progress); err != nil {
			return err
		}

		if err := os.WriteFile(genOut, session.Document, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", genOut, err)
		}
		if genDirname != "" {
			if err := bookwriter.SaveToFiles(session.Outline, session.Chapters, genDirname); err != nil {
				return err
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Book generation complete! %d pages written to %s\n", session.PageCount, genOut)
		return nil
	},
}

func readPremise() (string, error) {
	if genPremise != "" && genPremiseFile != "" {
		return "", errors.New("use either --premise or --premise-file")
	}
	if genPremise != "" {
		return genPremise, nil
	}
	path := genPremiseFile
	if path == "" {
		path = defaultPromptFile
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("please provide a premise with --premise or %s: %w", path, err)
	}
	return strings.TrimSpace(string(data)), nil
}

type printProgressor struct {
	w io.Writer
}

func (p printProgressor) UpdateOutput(message string) {
	fmt.Fprintln(p.w, message)
}

func init() {
	generateCmd.Flags().StringVarP(&genPremise, "premise", "p", "", "book premise")
	generateCmd.Flags().StringVar(&genPremiseFile, "premise-file", "", "file containing the premise (default "+defaultPromptFile+")")
	generateCmd.Flags().IntVar(&genPages, "pages", 100, "desired page count")
	generateCmd.Flags().StringVar(&genOut, "out", "GeneratedBook.pdf", "output PDF path")
	generateCmd.Flags().StringVar(&genOutlineFile, "outline-file", "", "outline to use instead of the proposed one")
	generateCmd.Flags().StringVar(&genDirname, "dirname", "", "also write the outline and chapters as Markdown to this directory")

	rootCmd.AddCommand(generateCmd)
}
