package media

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// sniffBytes matches the read limit mimetype uses for detection.
const sniffBytes = 3072

var imageMimeTypes = []string{"image/jpeg", "image/png", "image/webp", "image/gif", "image/avif"}

// sniffImage detects the content type from the head of body. The returned
// reader replays the consumed bytes before the rest of body.
func sniffImage(body io.Reader) (*mimetype.MIME, io.Reader, error) {
	head := make([]byte, sniffBytes)
	n, err := io.ReadFull(body, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, nil, err
	}
	head = head[:n]
	return mimetype.Detect(head), io.MultiReader(bytes.NewReader(head), body), nil
}

func isAllowedImage(m *mimetype.MIME) bool {
	if m == nil {
		return false
	}
	for _, allowed := range imageMimeTypes {
		if m.Is(allowed) {
			return true
		}
	}
	return false
}

func allowedImageDescription() string {
	names := make([]string, len(imageMimeTypes))
	for i, value := range imageMimeTypes {
		names[i] = strings.ToUpper(strings.TrimPrefix(value, "image/"))
	}
	return strings.Join(names[:len(names)-1], ", ") + " or " + names[len(names)-1]
}
