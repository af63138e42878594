package media

import (
	"fmt"
	"net/http"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"mediahub/internal/imagegen"
)

const fallbackExtension = "bin"

func normalizeTag(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("tag is required")
	}
	for _, r := range value {
		if r > unicode.MaxASCII || unicode.IsSpace(r) {
			return "", fmt.Errorf("tag must be ascii and non-space")
		}
	}
	return strings.ToLower(value), nil
}

func normalizeTags(values []string) ([]string, error) {
	tags := make([]string, 0, len(values))
	seen := map[string]struct{}{}
	for _, value := range values {
		tag, err := normalizeTag(value)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags, nil
}

// resolveMimeType prefers the declared type and sniffs the content
// otherwise.
func resolveMimeType(declared string, data []byte) string {
	if mimeType := imagegen.NormalizeMimeType(declared); mimeType != "" {
		return mimeType
	}
	return imagegen.NormalizeMimeType(http.DetectContentType(data))
}

// resolveExtension takes the extension of the original file name, falling
// back to the canonical extension of mimeType.
func resolveExtension(originalFileName, mimeType string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(originalFileName), "."))
	if ext != "" && isAlnum(ext) {
		return ext
	}
	if ext, ok := imagegen.Extension(mimeType); ok {
		return ext
	}
	return fallbackExtension
}

func isAlnum(value string) bool {
	for _, r := range value {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

func normalizeHash(value string) (string, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return "", nil
	}
	for _, r := range value {
		if (r < 'a' || r > 'f') && (r < '0' || r > '9') {
			return "", fmt.Errorf("hash must be hexadecimal")
		}
	}
	return value, nil
}
