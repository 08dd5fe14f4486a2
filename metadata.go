// SPDX-License-Identifier: MIT

package wikipath

import (
	"fmt"
	"regexp"
)

// PageId identifies an article within one language/date corpus. Dense but
// not gap-free.
type PageId = uint32

// LinkTargetId is a handle from the `linktarget` dump table; it exists only
// during a build and never appears in a persisted artifact.
type LinkTargetId = uint64

// Metadata names one (language, dump date) corpus. Two Metadata values
// compare by language first (equality), then by date (lexicographic, which
// for YYYYMMDD strings is also chronological).
type Metadata struct {
	LanguageCode string // alphabetic ISO code, e.g. "en"
	DateCode     string // 8-digit YYYYMMDD
}

var artifactNameRE = regexp.MustCompile(`^wp-([a-zA-Z]+)-([0-9]+)$`)

// ParseArtifactName extracts the Metadata encoded in an artifact's base
// name, such as "wp-en-20240201". It returns ErrInvalidArtifactPath if the
// name does not match the canonical pattern.
func ParseArtifactName(name string) (Metadata, error) {
	m := artifactNameRE.FindStringSubmatch(name)
	if m == nil {
		return Metadata{}, fmt.Errorf("%q: %w", name, ErrInvalidArtifactPath)
	}
	return Metadata{LanguageCode: m[1], DateCode: m[2]}, nil
}

// String renders the canonical artifact base name "wp-{language}-{date}".
func (m Metadata) String() string {
	return fmt.Sprintf("wp-%s-%s", m.LanguageCode, m.DateCode)
}

// Less orders by language code, then chronologically by date within the
// same language. It is undefined (but total) across different languages;
// callers that need cross-language ordering should compare LanguageCode
// themselves first.
func (m Metadata) Less(other Metadata) bool {
	if m.LanguageCode != other.LanguageCode {
		return m.LanguageCode < other.LanguageCode
	}
	return m.DateCode < other.DateCode
}

// SameLanguage reports whether two metadatas name the same language,
// irrespective of date.
func (m Metadata) SameLanguage(other Metadata) bool {
	return m.LanguageCode == other.LanguageCode
}
