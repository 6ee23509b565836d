package services

import (
	"fmt"

	"alfredoptarigan/assignment-grader/internal/models"
)

type TextExtractor interface {
	Extract(doc models.RawSubmission) (string, error)
}

type textExtractor struct {
	pdfParser  PDFParserService
	docxParser DocxParserService
}

func NewTextExtractor(pdfParser PDFParserService, docxParser DocxParserService) TextExtractor {
	return &textExtractor{
		pdfParser:  pdfParser,
		docxParser: docxParser,
	}
}

// Extract dispatches on the document format. Any failure comes back as an
// *ExtractionError with an empty string.
func (e *textExtractor) Extract(doc models.RawSubmission) (string, error) {
	var (
		text string
		err  error
	)

	switch doc.Format() {
	case models.FormatPDF:
		text, err = e.pdfParser.ExtractText(doc.Data)
	case models.FormatWordProcessing:
		text, err = e.docxParser.ExtractText(doc.Data)
	default:
		err = fmt.Errorf("unsupported document format %q", doc.Format())
	}

	if err != nil {
		return "", &ExtractionError{File: doc.Name, Err: err}
	}
	return text, nil
}
