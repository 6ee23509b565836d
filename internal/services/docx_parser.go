package services

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const docxBodyPart = "word/document.xml"

type DocxParserService interface {
	ExtractText(data []byte) (string, error)
}

type docxParserService struct{}

func NewDocxParserService() DocxParserService {
	return &docxParserService{}
}

// ExtractText returns the visible text of the main document part with one line
// per paragraph.
func (d *docxParserService) ExtractText(data []byte) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open Word document: %w", err)
	}

	var body *zip.File
	for _, f := range reader.File {
		if f.Name == docxBodyPart {
			body = f
			break
		}
	}
	if body == nil {
		return "", fmt.Errorf("missing %s", docxBodyPart)
	}

	rc, err := body.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", docxBodyPart, err)
	}
	defer rc.Close()

	paragraphs, err := readParagraphs(rc)
	if err != nil {
		return "", err
	}

	text := strings.Join(paragraphs, "\n")
	if strings.TrimSpace(text) == "" {
		return "", errNoText
	}
	return text, nil
}

// readParagraphs walks WordprocessingML and collects w:t runs per w:p.
// Paragraphs nested in text boxes get their own line after the paragraph that
// anchors them. Alternate content is read from mc:Choice only, and property
// blocks are skipped so tab stop definitions do not become text.
func readParagraphs(r io.Reader) ([]string, error) {
	decoder := xml.NewDecoder(r)

	var (
		paragraphs []string
		open       []*paragraphBuilder
		inText     bool
	)

	top := func() *paragraphBuilder {
		if len(open) == 0 {
			return nil
		}
		return open[len(open)-1]
	}

	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", docxBodyPart, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "Fallback", "pPr", "rPr":
				if err := decoder.Skip(); err != nil {
					return nil, fmt.Errorf("failed to parse %s: %w", docxBodyPart, err)
				}
			case "p":
				open = append(open, &paragraphBuilder{slot: len(paragraphs)})
				paragraphs = append(paragraphs, "")
			case "t":
				inText = true
			case "tab":
				if p := top(); p != nil {
					p.text.WriteString("\t")
				}
			case "br", "cr":
				if p := top(); p != nil {
					p.text.WriteString("\n")
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "p":
				if p := top(); p != nil {
					paragraphs[p.slot] = p.text.String()
					open = open[:len(open)-1]
				}
			case "t":
				inText = false
			}
		case xml.CharData:
			if p := top(); inText && p != nil {
				p.text.Write(t)
			}
		}
	}

	return paragraphs, nil
}

type paragraphBuilder struct {
	slot int
	text strings.Builder
}
