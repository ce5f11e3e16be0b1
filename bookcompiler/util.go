package bookcompiler

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

var disableConfigDir sync.Once

// PageCount reads a compiled document back and returns its number of pages.
func PageCount(doc []byte) (int, error) {
	// pdfcpu would otherwise create a config directory under the user's home.
	disableConfigDir.Do(api.DisableConfigDir)

	n, err := api.PageCount(bytes.NewReader(doc), nil)
	if err != nil {
		return 0, fmt.Errorf("counting pages: %w", err)
	}
	return n, nil
}
