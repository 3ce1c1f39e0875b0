// -----------------------------------------------------------------------
// Document Extractor Service - Extract text content from source documents
// Uses pdfcpu for Go-native PDF processing
// -----------------------------------------------------------------------

package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/ternarybob/arbor"

	"github.com/meridianvc/signalsweep/internal/interfaces"
)

// pdfMagic is the header every PDF starts with
var pdfMagic = []byte("%PDF-")

// fetchTimeout bounds remote document downloads
const fetchTimeout = 30 * time.Second

// maxDocumentSize caps downloaded documents at 50 MB
const maxDocumentSize = 50 << 20

// Extractor implements the DocumentExtractor interface using pdfcpu.
// PDF pages that cannot be parsed are skipped rather than failing the
// whole document; a document with no readable content yields "".
type Extractor struct {
	httpClient *http.Client
	logger     arbor.ILogger
	tempDir    string
}

// Compile-time interface assertion
var _ interfaces.DocumentExtractor = (*Extractor)(nil)

// NewExtractor creates a new document extractor service
func NewExtractor(logger arbor.ILogger) *Extractor {
	// Create a temp directory for PDF processing
	tempDir := filepath.Join(os.TempDir(), "signalsweep-extract")
	os.MkdirAll(tempDir, 0755)

	return &Extractor{
		httpClient: &http.Client{Timeout: fetchTimeout},
		logger:     logger,
		tempDir:    tempDir,
	}
}

// ExtractBytes extracts text from in-memory document content. Detection
// prefers the content itself over the filename: anything starting with
// the PDF magic header is treated as a PDF regardless of extension.
func (e *Extractor) ExtractBytes(ctx context.Context, content []byte, filename string) (string, error) {
	if len(content) == 0 {
		return "", nil
	}

	if isPDF(content, filename) {
		return e.extractPDFText(content)
	}

	// Plain text: reject content that is not valid UTF-8 rather than
	// feeding binary noise into the research context
	if !utf8.Valid(content) {
		e.logger.Warn().
			Str("filename", filename).
			Int("size", len(content)).
			Msg("Document is neither PDF nor valid UTF-8 text, skipping")
		return "", nil
	}

	return strings.TrimSpace(string(content)), nil
}

// ExtractFile extracts text from a local file path.
func (e *Extractor) ExtractFile(ctx context.Context, path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read document file: %w", err)
	}
	return e.ExtractBytes(ctx, content, filepath.Base(path))
}

// ExtractRef resolves a document reference (URL or local path) and
// extracts its text. Every failure degrades to empty text with a
// diagnostic log; the research pipeline proceeds without the document.
func (e *Extractor) ExtractRef(ctx context.Context, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}

	var text string
	var err error

	if isRemoteRef(ref) {
		text, err = e.extractRemote(ctx, ref)
	} else {
		text, err = e.ExtractFile(ctx, ref)
	}

	if err != nil {
		e.logger.Warn().
			Str("ref", ref).
			Err(err).
			Msg("Document extraction failed, continuing without document text")
		return ""
	}

	return text
}

// extractRemote downloads a document over HTTP and extracts its text
func (e *Extractor) extractRemote(ctx context.Context, ref string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return "", fmt.Errorf("invalid document URL: %w", err)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("document fetch returned status %d", resp.StatusCode)
	}

	content, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return "", fmt.Errorf("failed to read document body: %w", err)
	}

	// Use the URL path's base name as the filename hint
	filename := ""
	if u, err := url.Parse(ref); err == nil {
		filename = filepath.Base(u.Path)
	}

	return e.ExtractBytes(ctx, content, filename)
}

// extractPDFText extracts text from PDF bytes page by page. pdfcpu works
// on files, so the content goes through a temp file. Pages that fail to
// extract contribute nothing; remaining pages still flow through with
// page markers preserved.
func (e *Extractor) extractPDFText(content []byte) (string, error) {
	tempFile := filepath.Join(e.tempDir, fmt.Sprintf("extract_%d_%d.pdf", os.Getpid(), time.Now().UnixNano()))
	if err := os.WriteFile(tempFile, content, 0644); err != nil {
		return "", fmt.Errorf("failed to write temp PDF file: %w", err)
	}
	defer os.Remove(tempFile)

	conf := model.NewDefaultConfiguration()
	pdfCtx, err := api.ReadContextFile(tempFile)
	if err != nil {
		return "", fmt.Errorf("failed to read PDF: %w", err)
	}
	pageCount := pdfCtx.PageCount

	outDir := tempFile + "_pages"
	os.MkdirAll(outDir, 0755)
	defer os.RemoveAll(outDir)

	// A single corrupt page fails the whole-document extraction, so fall
	// back to extracting page by page and keep whatever parses. Pages
	// already written to outDir before the failure are picked up by the
	// scan below either way.
	if err := api.ExtractContentFile(tempFile, outDir, nil, conf); err != nil {
		e.logger.Warn().
			Err(err).
			Int("page_count", pageCount).
			Msg("Whole-document content extraction failed, retrying page by page")
		for pageNum := 1; pageNum <= pageCount; pageNum++ {
			if pageErr := api.ExtractContentFile(tempFile, outDir, []string{strconv.Itoa(pageNum)}, conf); pageErr != nil {
				e.logger.Warn().
					Int("page", pageNum).
					Err(pageErr).
					Msg("Page content extraction failed, skipping page")
			}
		}
	}

	// pdfcpu writes one content file per page
	pageTexts := make(map[int]string)
	files, _ := os.ReadDir(outDir)
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(outDir, file.Name()))
		if err != nil {
			continue
		}
		// pdfcpu prefixes content files with the source file's stem,
		// e.g. "<stem>_Content_page_1.txt"
		name := file.Name()
		if idx := strings.Index(name, "Content_page_"); idx > 0 {
			name = name[idx:]
		}
		var pageNum int
		if _, err := fmt.Sscanf(name, "Content_page_%d", &pageNum); err == nil {
			pageTexts[pageNum] = string(data)
		} else if _, err := fmt.Sscanf(name, "page_%d", &pageNum); err == nil {
			pageTexts[pageNum] = string(data)
		}
	}

	var builder strings.Builder
	extracted := 0
	for pageNum := 1; pageNum <= pageCount; pageNum++ {
		text := strings.TrimSpace(pageTexts[pageNum])
		if text == "" {
			continue
		}
		if builder.Len() > 0 {
			builder.WriteString("\n\n")
		}
		builder.WriteString(fmt.Sprintf("--- Page %d ---\n\n", pageNum))
		builder.WriteString(text)
		extracted++
	}

	if extracted < pageCount {
		e.logger.Debug().
			Int("pages_extracted", extracted).
			Int("page_count", pageCount).
			Msg("Some PDF pages yielded no text")
	}

	return builder.String(), nil
}

// isPDF reports whether the content should be treated as a PDF
func isPDF(content []byte, filename string) bool {
	if bytes.HasPrefix(content, pdfMagic) {
		return true
	}
	return strings.EqualFold(filepath.Ext(filename), ".pdf")
}

// isRemoteRef reports whether the reference is an HTTP(S) URL
func isRemoteRef(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}
