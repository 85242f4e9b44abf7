package classifier

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	sniffLen        = 512
	octetStreamType = "application/octet-stream"
)

var errNotRegular = errors.New("not a regular file")

// MIMEResolver maps a path to a MIME type. It never fails; unknown content
// resolves to application/octet-stream.
type MIMEResolver interface {
	DetectMIME(path string) string
}

// SniffResolver tries the registered extension type, then content
// signatures, then image header decoding.
type SniffResolver struct{}

func (SniffResolver) DetectMIME(path string) string {
	if ext := strings.ToLower(filepath.Ext(path)); ext != "" {
		if byExt := mime.TypeByExtension(ext); byExt != "" {
			return baseMediaType(byExt)
		}
	}

	file, err := openRegular(path)
	if err != nil {
		return octetStreamType
	}
	defer file.Close()

	detected, err := detectMIMEFromFile(file)
	if err != nil {
		return octetStreamType
	}
	if detected != octetStreamType {
		return detected
	}

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return octetStreamType
	}
	if _, format, err := image.DecodeConfig(file); err == nil {
		return "image/" + format
	}

	return octetStreamType
}

// openRegular refuses pipes, sockets and devices, whose open or read can
// block indefinitely.
func openRegular(path string) (*os.File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%s: %w", path, errNotRegular)
	}
	return os.Open(path)
}

func detectMIMEFromFile(file *os.File) (string, error) {
	buffer := make([]byte, sniffLen)
	n, err := io.ReadFull(file, buffer)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", err
	}
	if n == 0 {
		return octetStreamType, nil
	}

	return baseMediaType(http.DetectContentType(buffer[:n])), nil
}

func baseMediaType(value string) string {
	mediaType, _, err := mime.ParseMediaType(value)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(value))
	}
	return mediaType
}

func matchMIME(rules []MIMERule, mimeType string) (Category, bool) {
	lowered := strings.ToLower(mimeType)
	for _, rule := range rules {
		for _, prefix := range rule.Prefixes {
			if prefix != "" && strings.HasPrefix(lowered, strings.ToLower(prefix)) {
				return rule.Category, true
			}
		}
	}
	return "", false
}
