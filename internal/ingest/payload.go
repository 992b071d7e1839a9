// Package ingest builds and validates document payloads before they enter
// the extraction pipeline. Payloads live in memory only and are never
// persisted to disk.
package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"

	"cheques-backend/internal/shared/util"
)

// Payload is one immutable inbound document.
type Payload struct {
	Data     []byte
	MimeType string
	Filename string
}

// Limits bound what a payload may contain.
type Limits struct {
	MaxBytes    int64
	MaxPDFPages int
}

// Validation failure modes, rejected before any external call is made.
var (
	ErrEmptyPayload         = errors.New("empty payload")
	ErrPayloadTooLarge      = errors.New("payload too large")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrUnreadablePDF        = errors.New("unreadable pdf")
)

var allowedMimeTypes = map[string]struct{}{
	"image/jpeg":      {},
	"image/png":       {},
	"image/webp":      {},
	"application/pdf": {},
}

var extensionMimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".pdf":  "application/pdf",
}

// NewPayload validates raw upload bytes against the media-type allow-list and
// size ceiling and returns the payload the extraction client will consume.
func NewPayload(data []byte, filename, declaredType string, limits Limits) (Payload, error) {
	if len(data) == 0 {
		return Payload{}, ErrEmptyPayload
	}
	if limits.MaxBytes > 0 && int64(len(data)) > limits.MaxBytes {
		return Payload{}, fmt.Errorf("%w: %d bytes exceeds ceiling of %d", ErrPayloadTooLarge, len(data), limits.MaxBytes)
	}

	mimeType := resolveMimeType(data, filename, declaredType)
	if _, ok := allowedMimeTypes[mimeType]; !ok {
		return Payload{}, fmt.Errorf("%w: %s", ErrUnsupportedMediaType, mimeType)
	}

	if mimeType == "application/pdf" {
		if err := checkPDF(data, limits.MaxPDFPages); err != nil {
			return Payload{}, err
		}
	}

	cleanName, err := util.SanitizeFileName(filename)
	if err != nil {
		cleanName = ""
	}

	return Payload{
		Data:     data,
		MimeType: mimeType,
		Filename: cleanName,
	}, nil
}

// resolveMimeType prefers what the bytes actually are over what the client
// declared. Extension mapping is the fallback when sniffing is inconclusive.
func resolveMimeType(data []byte, filename, declaredType string) string {
	sniffed := mimetype.Detect(data)
	base := strings.ToLower(strings.TrimSpace(sniffed.String()))
	if idx := strings.Index(base, ";"); idx >= 0 {
		base = strings.TrimSpace(base[:idx])
	}
	if _, ok := allowedMimeTypes[base]; ok {
		return base
	}

	declared := strings.ToLower(strings.TrimSpace(declaredType))
	if idx := strings.Index(declared, ";"); idx >= 0 {
		declared = strings.TrimSpace(declared[:idx])
	}
	if _, ok := allowedMimeTypes[declared]; ok {
		return declared
	}

	if byExt, ok := extensionMimeTypes[strings.ToLower(filepath.Ext(filename))]; ok {
		return byExt
	}
	if base != "" {
		return base
	}
	return "application/octet-stream"
}

// checkPDF verifies the document parses as a PDF and stays under the page cap.
// The parser panics on some malformed inputs, so those are recovered into
// ErrUnreadablePDF.
func checkPDF(data []byte, maxPages int) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", ErrUnreadablePDF, rec)
		}
	}()
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreadablePDF, err)
	}
	if maxPages > 0 && reader.NumPage() > maxPages {
		return fmt.Errorf("%w: %d pages exceeds cap of %d", ErrPayloadTooLarge, reader.NumPage(), maxPages)
	}
	return nil
}
