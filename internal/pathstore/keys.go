package pathstore

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	nonSlugRe  = regexp.MustCompile(`[^a-z0-9-]`)
	dashRunRe  = regexp.MustCompile(`-+`)
	maxSlugLen = 50
)

// Slugify converts a string to a path-safe key segment.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = nonSlugRe.ReplaceAllString(s, "-")
	s = dashRunRe.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > maxSlugLen {
		s = strings.TrimRight(s[:maxSlugLen], "-")
	}
	return s
}

// DocumentsKey is the prefix under which a user's documents live.
func DocumentsKey(userID string) string {
	return fmt.Sprintf("memory/users/%s/documents", userID)
}

// DocumentKey is the prefix of a single document.
func DocumentKey(userID, docID string) string {
	return DocumentsKey(userID) + "/" + docID
}

// ChunkKey addresses the chunk at position index of a document.
func ChunkKey(userID, docID string, index int) string {
	return fmt.Sprintf("%s/chunks/%d", DocumentKey(userID, docID), index)
}

// MetaKey holds the document's summary record.
func MetaKey(userID, docID string) string {
	return DocumentKey(userID, docID) + "/meta"
}

// HashKey indexes a document by content hash for dedup.
func HashKey(userID, hash string) string {
	return fmt.Sprintf("memory/users/%s/document_hashes/%s", userID, hash)
}
