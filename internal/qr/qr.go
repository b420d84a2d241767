// Package qr encodes verification URLs as QR code images for embedding in
// rendered certificates.
package qr

import (
	"encoding/base64"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// DefaultSize is the pixel edge length used for embedded QR images.
const DefaultSize = 256

// Encoder produces PNG QR codes.
type Encoder struct{}

// NewEncoder returns a QR encoder.
func NewEncoder() *Encoder { return &Encoder{} }

// Encode returns a PNG image of size x size pixels encoding content.
func (e *Encoder) Encode(content string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultSize
	}
	png, err := qrcode.Encode(content, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}

// DataURI wraps a PNG payload as a data: URI suitable for an <img> src.
func DataURI(png []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
}
