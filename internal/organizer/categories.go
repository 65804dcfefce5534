// Package organizer sorts the files of a directory into category folders
// chosen by file extension.
package organizer

import "strings"

const (
	CategoryDocuments  = "DOCUMENTS"
	CategoryImages     = "IMAGES"
	CategoryVideos     = "VIDEOS"
	CategoryMusic      = "MUSIC"
	CategoryArchives   = "ARCHIVES"
	CategoryInstallers = "INSTALLERS"
	CategoryCode       = "CODE"

	// CategoryOthers receives every extension without a rule.
	CategoryOthers = "OTHERS"
)

// Rule maps a set of extensions to a folder name.
type Rule struct {
	Name       string
	Extensions []string
}

// DefaultCategories is scanned in order; the first matching rule wins.
var DefaultCategories = []Rule{
	{CategoryDocuments, []string{".pdf", ".doc", ".docx", ".txt", ".ppt", ".pptx", ".xls", ".xlsx", ".csv"}},
	{CategoryImages, []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tiff", ".svg", ".webp"}},
	{CategoryVideos, []string{".mp4", ".mkv", ".avi", ".mov", ".flv", ".wmv"}},
	{CategoryMusic, []string{".mp3", ".wav", ".flac", ".aac", ".ogg", ".m4a"}},
	{CategoryArchives, []string{".zip", ".rar", ".7z", ".tar", ".gz"}},
	{CategoryInstallers, []string{".exe", ".msi", ".apk", ".dmg"}},
	{CategoryCode, []string{".py", ".js", ".html", ".css", ".java", ".c", ".cpp", ".sql", ".json", ".xml"}},
}

// DefaultSubcategories nest documents one level deeper.
var DefaultSubcategories = []Rule{
	{"WORD", []string{".doc", ".docx"}},
	{"EXCEL", []string{".xls", ".xlsx", ".csv"}},
	{"POWERPOINT", []string{".ppt", ".pptx"}},
	{"PDF", []string{".pdf"}},
	{"NOTES", []string{".txt"}},
}

// Table is an immutable, ordered extension lookup.
type Table struct {
	categories    []Rule
	subcategories []Rule
}

// Classification is the target of a file. An empty Subcategory means the
// file goes directly into the category folder.
type Classification struct {
	Category    string `json:"category"`
	Subcategory string `json:"subcategory,omitempty"`
}

func NewTable(categories, subcategories []Rule) *Table {
	return &Table{
		categories:    normalize(categories),
		subcategories: normalize(subcategories),
	}
}

func DefaultTable() *Table {
	return NewTable(DefaultCategories, DefaultSubcategories)
}

func normalize(rules []Rule) []Rule {
	out := make([]Rule, len(rules))
	for i, r := range rules {
		exts := make([]string, len(r.Extensions))
		for j, ext := range r.Extensions {
			exts[j] = strings.ToLower(ext)
		}
		out[i] = Rule{Name: r.Name, Extensions: exts}
	}
	return out
}

// Classify maps an extension (with its leading dot) to a category and, for
// documents, an optional subcategory. Matching is case-insensitive.
func (t *Table) Classify(ext string) Classification {
	ext = strings.ToLower(ext)

	category, ok := match(t.categories, ext)
	if !ok {
		return Classification{Category: CategoryOthers}
	}

	c := Classification{Category: category}
	if category == CategoryDocuments {
		c.Subcategory, _ = match(t.subcategories, ext)
	}
	return c
}

// Categories returns the category names in table order with OTHERS last.
func (t *Table) Categories() []string {
	names := make([]string, 0, len(t.categories)+1)
	for _, r := range t.categories {
		names = append(names, r.Name)
	}
	return append(names, CategoryOthers)
}

func match(rules []Rule, ext string) (string, bool) {
	if ext == "" {
		return "", false
	}
	for _, r := range rules {
		for _, candidate := range r.Extensions {
			if candidate == ext {
				return r.Name, true
			}
		}
	}
	return "", false
}
