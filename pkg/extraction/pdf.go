// Package extraction pulls the verification inputs out of a proof PDF: the
// raw document text, and from it the serialized proof tree, the timestamped
// document hash and the anchoring transaction id.
package extraction

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
	"github.com/pkg/errors"
)

// SourceUnreadableError indicates the input file is missing or unreadable.
// This is the one error class the CLI treats as unhandled (non-zero exit).
type SourceUnreadableError struct {
	Path string
	Err  error
}

func (e *SourceUnreadableError) Error() string {
	return fmt.Sprintf("cannot read %s: %v", e.Path, e.Err)
}

func (e *SourceUnreadableError) Unwrap() error {
	return e.Err
}

// ExtractText extracts the plain text content of a PDF file.
func ExtractText(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", &SourceUnreadableError{Path: path, Err: err}
	}
	defer func() { _ = f.Close() }()

	plainText, err := reader.GetPlainText()
	if err != nil {
		return "", errors.Wrapf(err, "extracting text from %s", path)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plainText); err != nil {
		return "", errors.Wrapf(err, "reading text from %s", path)
	}

	return buf.String(), nil
}
