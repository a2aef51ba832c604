// Package query normalizes the document list parameters: category, free text, type facet and sort key.
package query

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"docarchive/internal/model"
)

// Sort is a supported list ordering.
type Sort string

const (
	SortTitleAsc     Sort = "title"
	SortTitleDesc    Sort = "-title"
	SortUploadedAsc  Sort = "uploaded_at"
	SortUploadedDesc Sort = "-uploaded_at"

	DefaultSort = SortUploadedDesc
)

// ParseSort maps a raw sort value to a supported key; anything unknown yields DefaultSort.
func ParseSort(s string) Sort {
	switch v := Sort(strings.TrimSpace(s)); v {
	case SortTitleAsc, SortTitleDesc, SortUploadedAsc, SortUploadedDesc:
		return v
	}
	return DefaultSort
}

// Facet is a coarse file type derived from the file name extension.
type Facet string

const (
	FacetPDF     Facet = "pdf"
	FacetWord    Facet = "word"
	FacetExcel   Facet = "excel"
	FacetImage   Facet = "image"
	FacetArchive Facet = "archive"
)

var facetExtensions = map[Facet][]string{
	FacetPDF:     {".pdf"},
	FacetWord:    {".doc", ".docx", ".odt", ".rtf"},
	FacetExcel:   {".xls", ".xlsx", ".ods", ".csv"},
	FacetImage:   {".jpg", ".jpeg", ".png", ".gif", ".bmp", ".webp", ".tif", ".tiff", ".svg"},
	FacetArchive: {".zip", ".rar", ".7z", ".tar", ".gz", ".tgz", ".bz2"},
}

// ParseFacet returns the facet for s (case-insensitive) and whether it is recognized.
func ParseFacet(s string) (Facet, bool) {
	f := Facet(strings.ToLower(strings.TrimSpace(s)))
	_, ok := facetExtensions[f]
	if !ok {
		return "", false
	}
	return f, true
}

// Extensions lists the lower-case extensions (with leading dot) belonging to the facet.
func (f Facet) Extensions() []string {
	exts := facetExtensions[f]
	out := make([]string, len(exts))
	copy(out, exts)
	return out
}

// Matches reports whether the file name's extension belongs to the facet, ignoring case.
func (f Facet) Matches(fileName string) bool {
	ext := strings.ToLower(filepath.Ext(fileName))
	if ext == "" {
		return false
	}
	for _, e := range facetExtensions[f] {
		if e == ext {
			return true
		}
	}
	return false
}

// FacetOf returns the facet the file name belongs to, or "" when none does.
func FacetOf(fileName string) Facet {
	for _, f := range []Facet{FacetPDF, FacetWord, FacetExcel, FacetImage, FacetArchive} {
		if f.Matches(fileName) {
			return f
		}
	}
	return ""
}

// Params are the user-selected list filters. Empty fields do not filter.
type Params struct {
	CategoryID string `json:"category"`
	Text       string `json:"q"`
	Type       Facet  `json:"type"`
	Sort       Sort   `json:"sort"`
}

// Parse builds Params from raw request values. Unknown facets are dropped and unknown sort keys
// fall back to the default; a category that is not a UUID is a validation error.
func Parse(category, text, typ, sort string) (Params, error) {
	p := Params{
		CategoryID: strings.TrimSpace(category),
		Text:       strings.TrimSpace(text),
		Sort:       ParseSort(sort),
	}
	if f, ok := ParseFacet(typ); ok {
		p.Type = f
	}
	if p.CategoryID != "" {
		if _, err := uuid.Parse(p.CategoryID); err != nil {
			return Params{}, ErrInvalidCategory
		}
	}
	return p, nil
}

// Filter is a visibility-scoped list request: Levels come from the access filter and are always applied.
type Filter struct {
	Levels []model.SecurityLevel
	Params
}
