package middleware

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// Input validation for uploaded transcripts and identifiers

var allowedExtensions = map[string]bool{
	".pdf":  true,
	".docx": true,
	".txt":  true,
}

// ValidateUploadName checks an uploaded transcript's file name: supported
// extension, no traversal, no shell metacharacters.
func ValidateUploadName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("file name cannot be empty")
	}

	ext := strings.ToLower(filepath.Ext(name))
	if !allowedExtensions[ext] {
		return fmt.Errorf("unsupported file type: %s (allowed: pdf, docx, txt)", name)
	}

	dangerous := []string{"../", "..\\", "$(", "`", "&", "|", ";", "\n", "\r", "\x00"}
	for _, d := range dangerous {
		if strings.Contains(name, d) {
			return fmt.Errorf("invalid characters in file name")
		}
	}
	if filepath.Base(name) != name {
		return fmt.Errorf("file name must not contain path separators")
	}

	return nil
}

var sessionIDPattern = regexp.MustCompile(`^[a-f0-9]{8}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{12}$`)

// ValidateSessionID checks the session id is a well-formed UUID
func ValidateSessionID(id string) error {
	if !sessionIDPattern.MatchString(strings.ToLower(id)) {
		return fmt.Errorf("invalid session id format")
	}
	return nil
}
