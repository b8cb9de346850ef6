package util

import (
	"strings"
	"testing"
)

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "Backend Engineer_Acme_Resume.docx", want: "Backend Engineer_Acme_Resume.docx"},
		{in: "CI/CD Lead_Acme\\EU_Resume.docx", want: "CI_CD Lead_Acme_EU_Resume.docx"},
		{in: "quote\"d\n.docx", want: "quoted.docx"},
		{in: "Staff  Engineer\t_Acme: R&D_Resume.docx", want: "Staff Engineer_Acme_ R&D_Resume.docx"},
		{in: "Ingénieur_Société Générale_Resume.docx", want: "Ingénieur_Société Générale_Resume.docx"},
		{in: "../etc/passwd", wantErr: true},
		{in: "   ", wantErr: true},
		{in: "///", wantErr: true},
	}
	for _, tt := range tests {
		got, err := SanitizeFileName(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("SanitizeFileName(%q) expected error, got %q", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Fatalf("SanitizeFileName(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("SanitizeFileName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeFileNameTruncatesKeepingExtension(t *testing.T) {
	in := strings.Repeat("é", 100) + "_Resume.docx"
	got, err := SanitizeFileName(in)
	if err != nil {
		t.Fatalf("SanitizeFileName: %v", err)
	}
	if len(got) > maxFileNameBytes {
		t.Fatalf("expected at most %d bytes, got %d", maxFileNameBytes, len(got))
	}
	if !strings.HasSuffix(got, ".docx") || !strings.HasPrefix(got, "éé") {
		t.Fatalf("unexpected truncation %q", got)
	}
}
