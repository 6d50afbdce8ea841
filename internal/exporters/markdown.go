package exporters

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mrlokans/bookshelf/internal/catalogue"
	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/utils"
)

const unsortedGenre = "Unsorted"

// MarkdownExporter writes one note per book, grouped into genre folders,
// plus an index listing the whole catalogue.
type MarkdownExporter struct {
	ExportDir     string
	IndexFileName string
}

var _ BookExporter = (*MarkdownExporter)(nil)

func NewMarkdownExporter(exportDir string) *MarkdownExporter {
	return &MarkdownExporter{
		ExportDir:     exportDir,
		IndexFileName: "index.md",
	}
}

func (exporter *MarkdownExporter) ensureDir() error {
	if exporter.ExportDir == "" {
		return fmt.Errorf("export directory is not configured")
	}
	if err := os.MkdirAll(exporter.ExportDir, 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	return nil
}

// BookPath returns the note path of a book relative to the export directory.
func BookPath(book entities.Book) string {
	genre := unsortedGenre
	if strings.TrimSpace(book.Genre) != "" {
		genre = utils.SanitizeFilename(book.Genre)
	}
	name := fmt.Sprintf("%s (%d).md", utils.SanitizeFilename(book.Title), book.ID)
	return filepath.Join(genre, name)
}

func (exporter *MarkdownExporter) exportBook(book entities.Book) (string, error) {
	relPath := BookPath(book)
	outputPath := filepath.Join(exporter.ExportDir, relPath)

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create genre directory: %w", err)
	}
	markdown, err := GenerateMarkdown(book)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(outputPath, []byte(markdown), 0644); err != nil {
		return "", err
	}
	return relPath, nil
}

func GenerateMarkdown(book entities.Book) (string, error) {
	frontMatter, err := yaml.Marshal(frontMatterNode(book))
	if err != nil {
		return "", fmt.Errorf("failed to encode front matter: %w", err)
	}

	var builder strings.Builder

	fmt.Fprintf(&builder, "---\n")
	builder.Write(frontMatter)
	fmt.Fprintf(&builder, "---\n\n")
	fmt.Fprintf(&builder, "# %s\n\n", book.Title)
	fmt.Fprintf(&builder, "**Author:** %s\n", book.Author)

	return builder.String(), nil
}

// frontMatterNode keeps key order stable and forces text fields into
// double-quoted scalars so titles like "1984" or "null" stay strings.
func frontMatterNode(book entities.Book) *yaml.Node {
	node := &yaml.Node{Kind: yaml.MappingNode}
	add := func(key string, value *yaml.Node) {
		node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: key}, value)
	}

	add("id", plainScalar(strconv.FormatUint(uint64(book.ID), 10)))
	add("title", quotedScalar(book.Title))
	add("author", quotedScalar(book.Author))
	if book.Genre != "" {
		add("genre", quotedScalar(book.Genre))
	}
	if book.Rating != nil {
		add("rating", plainScalar(catalogue.FormatRating(*book.Rating)))
	}
	if book.HasPopularity() {
		add("popularity", plainScalar(strconv.FormatInt(*book.Popularity, 10)))
	}
	if !book.CreatedAt.IsZero() {
		add("created_at", plainScalar(book.CreatedAt.Format("2006-01-02")))
	}
	add("tags", &yaml.Node{
		Kind:    yaml.SequenceNode,
		Style:   yaml.FlowStyle,
		Content: []*yaml.Node{plainScalar("books")},
	})
	return node
}

func plainScalar(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: value}
}

func quotedScalar(value string) *yaml.Node {
	return &yaml.Node{
		Kind:  yaml.ScalarNode,
		Tag:   "!!str",
		Style: yaml.DoubleQuotedStyle,
		Value: strings.ToValidUTF8(value, "\uFFFD"),
	}
}

func GenerateIndex(books []entities.Book) string {
	var builder strings.Builder

	fmt.Fprintf(&builder, "# Catalogue\n\n")
	if len(books) == 0 {
		fmt.Fprintf(&builder, "_The catalogue is empty._\n")
		return builder.String()
	}
	for _, book := range books {
		link := filepath.ToSlash(strings.TrimSuffix(BookPath(book), ".md"))
		fmt.Fprintf(&builder, "- [[%s|%s]] by %s\n", link, book.Title, book.Author)
	}
	return builder.String()
}

// Export writes every book and the index. A book that cannot be written is
// counted as failed and the export continues with the next one.
func (exporter *MarkdownExporter) Export(books []entities.Book) (ExportResult, error) {
	result := ExportResult{}

	if err := exporter.ensureDir(); err != nil {
		return result, err
	}

	for _, book := range books {
		path, err := exporter.exportBook(book)
		if err != nil {
			log.Printf("Failed to export book '%s' (#%d): %v", book.Title, book.ID, err)
			result.BooksFailed++
			continue
		}
		result.BooksProcessed++
		result.Files = append(result.Files, path)
	}

	indexPath := filepath.Join(exporter.ExportDir, exporter.IndexFileName)
	if err := os.WriteFile(indexPath, []byte(GenerateIndex(books)), 0644); err != nil {
		return result, fmt.Errorf("failed to write index: %w", err)
	}

	return result, nil
}
