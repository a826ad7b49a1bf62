// Package screenshot normalizes captured screen bitmaps to base64-encoded PNG.
package screenshot

import (
	"bytes"
	"encoding/base64"
	"fmt"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"

	// Register additional capture formats
	_ "golang.org/x/image/webp"
)

// MIMEPNG is the only format handed to clients.
const MIMEPNG = "image/png"

// DetectMIME returns the MIME type of captured bytes.
func DetectMIME(data []byte) string {
	return mimetype.Detect(data).String()
}

// ToPNG returns data as PNG bytes, re-encoding when the capture is another format.
func ToPNG(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty capture")
	}

	mime := mimetype.Detect(data)
	if mime.Is(MIMEPNG) {
		return data, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s capture: %w", mime.String(), err)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeBase64PNG converts a capture into the base64 PNG payload returned by both protocols.
func EncodeBase64PNG(data []byte) (string, error) {
	png, err := ToPNG(data)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(png), nil
}
