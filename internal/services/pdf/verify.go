package pdf

import (
	"fmt"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// Verify checks that content parses as a well-formed PDF with at least one
// page. Corrupt output is caught here rather than after upload.
func Verify(content []byte) error {
	if len(content) == 0 {
		return fmt.Errorf("empty PDF content")
	}

	// pdfcpu works on files, so round-trip through a temp file. Each call
	// gets its own file so concurrent verifications stay independent.
	tempFile, err := os.CreateTemp("", "verify_*.pdf")
	if err != nil {
		return fmt.Errorf("failed to create temp PDF file: %w", err)
	}
	defer os.Remove(tempFile.Name())

	if _, err := tempFile.Write(content); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to write temp PDF file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to write temp PDF file: %w", err)
	}

	pdfCtx, err := api.ReadContextFile(tempFile.Name())
	if err != nil {
		return fmt.Errorf("failed to read PDF context: %w", err)
	}

	if pdfCtx.PageCount < 1 {
		return fmt.Errorf("PDF has no pages")
	}

	return nil
}
