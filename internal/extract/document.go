// internal/extract/document.go
package extract

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/valpere/tatooine/pkg/types"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// ParseDocument builds a goquery document from fetched markup. The body is
// decoded to UTF-8 using opts.Charset when set, otherwise the charset named
// in contentType.
func ParseDocument(body []byte, contentType string, opts types.DOMOptions) (*goquery.Document, error) {
	reader, err := decodeReader(body, contentType, opts.Charset)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

// ParseHTML builds a document from already decoded HTML text
func ParseHTML(html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

func decodeReader(body []byte, contentType, override string) (io.Reader, error) {
	label := strings.TrimSpace(override)
	if label == "" {
		label = charsetFromContentType(contentType)
		if label == "" {
			return bytes.NewReader(body), nil
		}
	}

	enc, err := htmlindex.Get(label)
	if err != nil {
		if override != "" {
			return nil, fmt.Errorf("unsupported charset %q: %w", label, err)
		}
		// servers announce all sorts of labels; fall back to the raw bytes
		return bytes.NewReader(body), nil
	}
	if name, _ := htmlindex.Name(enc); name == "utf-8" {
		return bytes.NewReader(body), nil
	}
	return transform.NewReader(bytes.NewReader(body), enc.NewDecoder()), nil
}

func charsetFromContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return params["charset"]
}
