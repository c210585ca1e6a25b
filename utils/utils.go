package utils

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

func GenerateSlug(name string) string {
	// Normalize accents
	t := norm.NFD.String(name)
	var b strings.Builder
	for _, r := range t {
		if unicode.Is(unicode.Mn, r) {
			continue // remove accent marks
		}
		b.WriteRune(r)
	}

	s := strings.ToLower(b.String())

	// Replace non-alphanumeric with hyphen
	reg := regexp.MustCompile(`[^a-z0-9]+`)
	s = reg.ReplaceAllString(s, "-")

	// Trim hyphens
	s = strings.Trim(s, "-")

	return s
}

// EnvInt reads an integer from the environment, falling back to def when the
// variable is unset, empty or not a positive number.
func EnvInt(name string, def int) int {
	if v := os.Getenv(name); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			return parsed
		}
	}
	return def
}

// ImageFilter screens uploaded files before they reach the write path.
// Acceptance is based on the sniffed content, not the client-declared
// extension or header.
type ImageFilter struct {
	maxSize int64
}

func NewImageFilter() *ImageFilter {
	sizeMB := EnvInt("MAX_UPLOAD_SIZE_MB", 10)
	return &ImageFilter{maxSize: int64(sizeMB) << 20}
}

// Accept returns the sniffed content type, or an error describing why the
// file is not an acceptable image.
func (f *ImageFilter) Accept(fileHeader *multipart.FileHeader) (string, error) {
	if fileHeader.Size > f.maxSize {
		return "", fmt.Errorf("file too large (max %d MB)", f.maxSize>>20)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return "", err
	}
	defer file.Close()

	buffer := make([]byte, 512)
	n, err := file.Read(buffer)
	if err != nil && n == 0 {
		return "", fmt.Errorf("failed to read file header")
	}

	detectedMime := strings.ToLower(http.DetectContentType(buffer[:n]))
	if !strings.HasPrefix(detectedMime, "image/") {
		return "", fmt.Errorf("not an image (detected %s)", detectedMime)
	}

	return detectedMime, nil
}
