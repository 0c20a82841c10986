package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateUploadName(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		wantErr bool
	}{
		{"plain txt", "call1.txt", false},
		{"pdf", "visit-2024.pdf", false},
		{"docx", "Consult Notes.docx", false},
		{"uppercase extension", "CALL.TXT", false},
		{"empty", "", true},
		{"whitespace only", "   ", true},
		{"no extension", "transcript", true},
		{"executable", "run.exe", true},
		{"doc not allowed", "old.doc", true},
		{"traversal", "../etc/passwd.txt", true},
		{"windows traversal", "..\\boot.txt", true},
		{"shell substitution", "a$(rm).txt", true},
		{"backtick", "a`id`.txt", true},
		{"pipe", "a|b.txt", true},
		{"null byte", "a\x00b.txt", true},
		{"path separator", "dir/call.txt", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUploadName(tt.file)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateSessionID(t *testing.T) {
	assert.NoError(t, ValidateSessionID("6f1e9b34-0c1d-4d9a-9c61-0a3d6e2f1b07"))
	assert.NoError(t, ValidateSessionID("6F1E9B34-0C1D-4D9A-9C61-0A3D6E2F1B07"))

	for _, id := range []string{
		"",
		"not-a-uuid",
		"6f1e9b34-0c1d-4d9a-9c61",
		"6f1e9b34-0c1d-4d9a-9c61-0a3d6e2f1b07x",
		"6f1e9b340c1d4d9a9c610a3d6e2f1b07",
	} {
		assert.Error(t, ValidateSessionID(id), id)
	}
}
