package loader

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

// ErrUnsupportedFormat is returned for any file type other than pdf or docx.
var ErrUnsupportedFormat = errors.New("unsupported file type")

// FileLoader adapts Load to the pipeline's loader port.
type FileLoader struct{}

func (FileLoader) Load(filePath, fileType string) ([]string, error) {
	return Load(filePath, fileType)
}

const (
	DefaultChunkSize    = 1024 // characters
	DefaultChunkOverlap = 100  // characters
)

// Load reads a document into an ordered sequence of plain-text segments:
// one per page for PDF, one per paragraph for DOCX.
func Load(filePath, fileType string) ([]string, error) {
	switch strings.ToLower(fileType) {
	case "pdf":
		return loadPDF(filePath)
	case "docx":
		return loadDOCX(filePath)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, fileType)
	}
}

func loadPDF(filePath string) ([]string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}

	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return nil, err
	}

	var segments []string
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(pageText) == "" {
			continue
		}
		segments = append(segments, pageText)
	}
	return segments, nil
}

func loadDOCX(filePath string) ([]string, error) {
	r, err := docx.ReadDocxFile(filePath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	doc := r.Editable()
	content := doc.GetContent()
	paragraphs := strings.Split(content, "\n")
	var segments []string
	for _, p := range paragraphs {
		if strings.TrimSpace(p) == "" {
			continue
		}
		segments = append(segments, p)
	}
	return segments, nil
}

// SplitText splits content into chunks of at most maxChars characters where
// each chunk after the first repeats exactly overlapChars trailing characters
// of its predecessor. The final chunk may be shorter.
func SplitText(content string, maxChars, overlapChars int) []string {
	if maxChars <= 0 || len(content) == 0 {
		return nil
	}
	if overlapChars < 0 {
		overlapChars = 0
	}
	if overlapChars >= maxChars {
		overlapChars = maxChars / 2
	}

	if len(content) <= maxChars {
		return []string{content}
	}

	step := maxChars - overlapChars
	var chunks []string
	for start := 0; start < len(content); start += step {
		end := min(start+maxChars, len(content))
		chunks = append(chunks, content[start:end])
		if end == len(content) {
			break
		}
	}
	return chunks
}
