// Package extract turns uploaded statement files into raw text for the
// parser agent. Supported formats: pdf, csv, xlsx, xls, txt. Files over the
// size limit or with other extensions are rejected here, before any model
// call happens.
package extract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tejuiceB/finSight/internal/domain"
)

// MaxFileSize caps uploads at 10 MB.
const MaxFileSize = 10 << 20

// maxTextChars bounds extracted text so a single statement cannot blow the
// model context (prompt templates truncate further).
const maxTextChars = 50000

// ErrUnsupportedType marks an extension outside the allowlist.
var ErrUnsupportedType = errors.New("extract: unsupported file type")

// ErrFileTooLarge marks a file over MaxFileSize.
var ErrFileTooLarge = errors.New("extract: file exceeds 10 MB limit")

// supportedTypes is the upload extension allowlist.
var supportedTypes = map[string]bool{
	"pdf":  true,
	"csv":  true,
	"xlsx": true,
	"xls":  true,
	"txt":  true,
}

// FileType returns the normalized extension, or ErrUnsupportedType.
func FileType(filename string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if !supportedTypes[ext] {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
	}
	return ext, nil
}

// FromBytes extracts text from an in-memory file body.
func FromBytes(filename string, data []byte) (domain.ParsedFile, error) {
	var pf domain.ParsedFile

	fileType, err := FileType(filename)
	if err != nil {
		return pf, err
	}
	if len(data) > MaxFileSize {
		return pf, fmt.Errorf("%w: %s (%d bytes)", ErrFileTooLarge, filename, len(data))
	}

	var text string
	switch fileType {
	case "pdf":
		text, err = pdfText(data)
	case "xlsx", "xls":
		text, err = excelText(data)
	default: // csv, txt: already plain text
		text = string(data)
	}
	if err != nil {
		return pf, fmt.Errorf("extract: %s: %w", filename, err)
	}

	if len(text) > maxTextChars {
		cut := maxTextChars
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}

	return domain.ParsedFile{
		Filename:   filepath.Base(filename),
		Text:       text,
		FileType:   fileType,
		UploadedAt: time.Now(),
	}, nil
}

// FromPath extracts text from a file on disk.
func FromPath(path string) (domain.ParsedFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return domain.ParsedFile{}, fmt.Errorf("extract: stat %s: %w", path, err)
	}
	if info.Size() > MaxFileSize {
		return domain.ParsedFile{}, fmt.Errorf("%w: %s (%d bytes)", ErrFileTooLarge, path, info.Size())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return domain.ParsedFile{}, fmt.Errorf("extract: read %s: %w", path, err)
	}
	return FromBytes(path, data)
}
