package extract

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestFileType(t *testing.T) {
	tests := []struct {
		filename string
		want     string
		wantErr  bool
	}{
		{"statement.pdf", "pdf", false},
		{"Statement.PDF", "pdf", false},
		{"data.csv", "csv", false},
		{"sheet.xlsx", "xlsx", false},
		{"old.xls", "xls", false},
		{"notes.txt", "txt", false},
		{"archive.zip", "", true},
		{"image.png", "", true},
		{"noextension", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			got, err := FileType(tt.filename)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedType) {
					t.Errorf("expected ErrUnsupportedType, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("FileType(%q) = %q, want %q", tt.filename, got, tt.want)
			}
		})
	}
}

func TestFromBytesPlainText(t *testing.T) {
	content := "01/01/2025 COFFEE SHOP 250.00\n02/01/2025 SALARY 50000.00\n"

	pf, err := FromBytes("/tmp/uploads/statement.txt", []byte(content))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pf.Text != content {
		t.Errorf("text = %q, want %q", pf.Text, content)
	}
	if pf.FileType != "txt" {
		t.Errorf("fileType = %q, want txt", pf.FileType)
	}
	if pf.Filename != "statement.txt" {
		t.Errorf("filename = %q, want base name only", pf.Filename)
	}
	if pf.UploadedAt.IsZero() {
		t.Error("uploadedAt not stamped")
	}
}

func TestFromBytesCSV(t *testing.T) {
	pf, err := FromBytes("export.csv", []byte("date,amount\n2025-01-01,100\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(pf.Text, "2025-01-01,100") {
		t.Errorf("csv content lost: %q", pf.Text)
	}
}

func TestFromBytesRejectsUnsupported(t *testing.T) {
	_, err := FromBytes("statement.docx", []byte("hi"))
	if !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("expected ErrUnsupportedType, got %v", err)
	}
}

func TestFromBytesRejectsOversized(t *testing.T) {
	big := make([]byte, MaxFileSize+1)
	_, err := FromBytes("big.txt", big)
	if !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("expected ErrFileTooLarge, got %v", err)
	}
}

func TestFromBytesTruncatesLongText(t *testing.T) {
	long := strings.Repeat("a", maxTextChars+500)
	pf, err := FromBytes("long.txt", []byte(long))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pf.Text) != maxTextChars {
		t.Errorf("text length = %d, want %d", len(pf.Text), maxTextChars)
	}
}

func TestFromBytesTruncatesOnRuneBoundary(t *testing.T) {
	// A three-byte rune straddles the byte cap; the cut backs up instead of
	// keeping a partial encoding.
	long := strings.Repeat("a", maxTextChars-1) + strings.Repeat("₹", 200)
	pf, err := FromBytes("long.txt", []byte(long))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !utf8.ValidString(pf.Text) {
		t.Error("truncated text contains invalid UTF-8")
	}
	if len(pf.Text) != maxTextChars-1 {
		t.Errorf("text length = %d, want %d", len(pf.Text), maxTextChars-1)
	}
}

func TestFromPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "statement.txt")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	pf, err := FromPath(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pf.Text != "hello" {
		t.Errorf("text = %q", pf.Text)
	}

	if _, err := FromPath(filepath.Join(dir, "missing.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestPDFTextRejectsGarbage(t *testing.T) {
	// Not a PDF; the reader must fail cleanly rather than panic.
	_, err := FromBytes("fake.pdf", []byte("this is not a pdf"))
	if err == nil {
		t.Error("expected error for invalid pdf bytes")
	}
}
