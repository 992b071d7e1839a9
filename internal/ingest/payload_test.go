package ingest

import (
	"bytes"
	"errors"
	"testing"
)

var (
	jpegBytes = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}
	pngBytes  = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D, 'I', 'H', 'D', 'R'}
)

func TestNewPayloadAcceptsSniffedImage(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		want string
	}{
		{name: "jpeg", data: jpegBytes, want: "image/jpeg"},
		{name: "png", data: pngBytes, want: "image/png"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := NewPayload(tc.data, "archivo.bin", "", Limits{MaxBytes: 1 << 20})
			if err != nil {
				t.Fatalf("NewPayload: %v", err)
			}
			if p.MimeType != tc.want {
				t.Fatalf("mime = %q, want %q", p.MimeType, tc.want)
			}
			if !bytes.Equal(p.Data, tc.data) {
				t.Fatalf("payload bytes mutated")
			}
		})
	}
}

func TestNewPayloadEmpty(t *testing.T) {
	if _, err := NewPayload(nil, "a.jpg", "image/jpeg", Limits{}); !errors.Is(err, ErrEmptyPayload) {
		t.Fatalf("expected ErrEmptyPayload, got %v", err)
	}
}

func TestNewPayloadTooLarge(t *testing.T) {
	data := append(append([]byte{}, jpegBytes...), make([]byte, 100)...)
	if _, err := NewPayload(data, "a.jpg", "image/jpeg", Limits{MaxBytes: 10}); !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge, got %v", err)
	}
}

func TestNewPayloadRejectsUnsupportedType(t *testing.T) {
	if _, err := NewPayload([]byte("plain text content"), "notas.txt", "text/plain", Limits{}); !errors.Is(err, ErrUnsupportedMediaType) {
		t.Fatalf("expected ErrUnsupportedMediaType, got %v", err)
	}
}

func TestNewPayloadSniffOverridesDeclaredType(t *testing.T) {
	// Declared text/plain but the bytes are a JPEG.
	p, err := NewPayload(jpegBytes, "foto", "text/plain", Limits{})
	if err != nil {
		t.Fatalf("NewPayload: %v", err)
	}
	if p.MimeType != "image/jpeg" {
		t.Fatalf("mime = %q, want image/jpeg", p.MimeType)
	}
}

func TestNewPayloadExtensionFallback(t *testing.T) {
	// Bytes and declared type are inconclusive; the extension decides.
	data := []byte{0x00, 0x01, 0x02, 0x03, 0x04}
	p, err := NewPayload(data, "escaneo.webp", "", Limits{})
	if err != nil {
		t.Fatalf("NewPayload: %v", err)
	}
	if p.MimeType != "image/webp" {
		t.Fatalf("mime = %q, want image/webp", p.MimeType)
	}
}

func TestNewPayloadCorruptPDF(t *testing.T) {
	data := []byte("%PDF-1.4 pero truncado")
	if _, err := NewPayload(data, "doc.pdf", "application/pdf", Limits{}); !errors.Is(err, ErrUnreadablePDF) {
		t.Fatalf("expected ErrUnreadablePDF, got %v", err)
	}
}

func TestNewPayloadSanitizesFilename(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "  cheque.jpg  ", want: "cheque.jpg"},
		{in: "scans/cheque.jpg", want: "scans_cheque.jpg"},
		{in: "../../etc/passwd.jpg", want: ""},
	}

	for _, tc := range cases {
		p, err := NewPayload(jpegBytes, tc.in, "", Limits{})
		if err != nil {
			t.Fatalf("NewPayload(%q): %v", tc.in, err)
		}
		if p.Filename != tc.want {
			t.Fatalf("filename for %q = %q, want %q", tc.in, p.Filename, tc.want)
		}
	}
}
