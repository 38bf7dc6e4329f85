// Package output assembles and parses the flat text document produced from a repository.
package output

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/temirov/repo2txt/internal/types"
)

const (
	linesHeaderPrefix      = "Lines: "
	charactersHeaderPrefix = "Characters: "
	treeSectionHeader      = "Directory Structure:"
	contentsHeaderPrefix   = "Contents of "
	contentsHeaderSuffix   = ":"
	fenceLine              = "```"
	newline                = "\n"

	sectionOpeningFormat = newline + contentsHeaderPrefix + "%s" + contentsHeaderSuffix + newline + fenceLine + newline
	closingFence         = newline + fenceLine + newline

	errorWriteDocumentFileFormat = "writing document %s: %w"
	errorHeaderFormat            = "%w: header %q"
	errorExpectedFormat          = "%w: expected %q at offset %d"
	errorUnterminatedFormat      = "%w: unterminated section starting at offset %d"
)

// ErrMalformedDocument is returned by ParseDocument for text that does not follow the document layout.
var ErrMalformedDocument = errors.New("malformed document")

// Document is a fully materialized output document.
type Document struct {
	Tree    string
	Entries []types.FileEntry
	// Lines is the number of newline characters in the tree and in every entry text.
	Lines int
	// Characters is the number of Unicode code points in the tree and in every entry text.
	Characters int
}

// Section is one parsed "Contents of" block.
type Section struct {
	Path string
	Text string
}

// ParsedDocument is the structure recovered by ParseDocument.
type ParsedDocument struct {
	Lines      int
	Characters int
	Tree       string
	Sections   []Section
}

// BuildDocument computes header counts and captures the entries in record order.
func BuildDocument(tree string, record types.FileRecord) Document {
	document := Document{
		Tree:       tree,
		Entries:    record.Entries(),
		Lines:      strings.Count(tree, newline),
		Characters: utf8.RuneCountInString(tree),
	}
	for _, entry := range document.Entries {
		text := entry.Result.Text()
		document.Lines += strings.Count(text, newline)
		document.Characters += utf8.RuneCountInString(text)
	}
	return document
}

// String renders the document.
func (document Document) String() string {
	var builder strings.Builder
	_, _ = document.WriteTo(&builder)
	return builder.String()
}

// WriteTo writes the rendered document to writer.
func (document Document) WriteTo(writer io.Writer) (int64, error) {
	counter := &countingWriter{writer: writer}
	fmt.Fprintf(counter, "%s%d\n%s%d\n\n", linesHeaderPrefix, document.Lines, charactersHeaderPrefix, document.Characters)
	fmt.Fprintf(counter, "%s\n%s\n%s%s", treeSectionHeader, fenceLine, document.Tree, closingFence)
	for _, entry := range document.Entries {
		fmt.Fprintf(counter, sectionOpeningFormat, entry.Path)
		io.WriteString(counter, entry.Result.Text())
		io.WriteString(counter, closingFence)
	}
	return counter.written, counter.err
}

// WriteDocumentFile writes the rendered document to path, replacing any existing
// file, and returns the number of bytes written.
func WriteDocumentFile(path string, document Document) (int64, error) {
	fileHandle, createError := os.Create(path)
	if createError != nil {
		return 0, fmt.Errorf(errorWriteDocumentFileFormat, path, createError)
	}
	written, writeError := document.WriteTo(fileHandle)
	if writeError != nil {
		fileHandle.Close()
		return written, fmt.Errorf(errorWriteDocumentFileFormat, path, writeError)
	}
	if closeError := fileHandle.Close(); closeError != nil {
		return written, fmt.Errorf(errorWriteDocumentFileFormat, path, closeError)
	}
	return written, nil
}

// ParseDocument reads a rendered document back into its header counts, tree
// and ordered sections. A section body ends at the first closing fence that is
// followed by the end of the text or by another "Contents of" header, so a
// body that itself contains that exact sequence cannot be recovered.
func ParseDocument(text string) (ParsedDocument, error) {
	var parsed ParsedDocument
	parser := documentParser{text: text}

	lines, linesError := parser.headerValue(linesHeaderPrefix)
	if linesError != nil {
		return ParsedDocument{}, linesError
	}
	characters, charactersError := parser.headerValue(charactersHeaderPrefix)
	if charactersError != nil {
		return ParsedDocument{}, charactersError
	}
	parsed.Lines = lines
	parsed.Characters = characters

	if err := parser.expect(newline + treeSectionHeader + newline + fenceLine + newline); err != nil {
		return ParsedDocument{}, err
	}
	treeEnd := strings.Index(parser.text[parser.offset:], closingFence)
	if treeEnd < 0 {
		return ParsedDocument{}, fmt.Errorf(errorUnterminatedFormat, ErrMalformedDocument, parser.offset)
	}
	parsed.Tree = parser.text[parser.offset : parser.offset+treeEnd]
	parser.offset += treeEnd + len(closingFence)

	for parser.offset < len(parser.text) {
		section, sectionError := parser.section()
		if sectionError != nil {
			return ParsedDocument{}, sectionError
		}
		parsed.Sections = append(parsed.Sections, section)
	}
	return parsed, nil
}

type documentParser struct {
	text   string
	offset int
}

func (parser *documentParser) headerValue(prefix string) (int, error) {
	if err := parser.expect(prefix); err != nil {
		return 0, err
	}
	lineEnd := strings.Index(parser.text[parser.offset:], newline)
	if lineEnd < 0 {
		return 0, fmt.Errorf(errorHeaderFormat, ErrMalformedDocument, parser.text[parser.offset:])
	}
	rawValue := parser.text[parser.offset : parser.offset+lineEnd]
	value, parseError := strconv.Atoi(rawValue)
	if parseError != nil || value < 0 {
		return 0, fmt.Errorf(errorHeaderFormat, ErrMalformedDocument, prefix+rawValue)
	}
	parser.offset += lineEnd + len(newline)
	return value, nil
}

func (parser *documentParser) expect(literal string) error {
	if !strings.HasPrefix(parser.text[parser.offset:], literal) {
		return fmt.Errorf(errorExpectedFormat, ErrMalformedDocument, literal, parser.offset)
	}
	parser.offset += len(literal)
	return nil
}

func (parser *documentParser) section() (Section, error) {
	sectionStart := parser.offset
	if err := parser.expect(newline + contentsHeaderPrefix); err != nil {
		return Section{}, err
	}
	headerEnd := strings.Index(parser.text[parser.offset:], contentsHeaderSuffix+newline+fenceLine+newline)
	if headerEnd < 0 {
		return Section{}, fmt.Errorf(errorUnterminatedFormat, ErrMalformedDocument, sectionStart)
	}
	path := parser.text[parser.offset : parser.offset+headerEnd]
	parser.offset += headerEnd + len(contentsHeaderSuffix+newline+fenceLine+newline)

	bodyStart := parser.offset
	searchFrom := bodyStart
	for {
		closeIndex := strings.Index(parser.text[searchFrom:], closingFence)
		if closeIndex < 0 {
			return Section{}, fmt.Errorf(errorUnterminatedFormat, ErrMalformedDocument, sectionStart)
		}
		bodyEnd := searchFrom + closeIndex
		following := parser.text[bodyEnd+len(closingFence):]
		if following == "" || strings.HasPrefix(following, newline+contentsHeaderPrefix) {
			parser.offset = bodyEnd + len(closingFence)
			return Section{Path: path, Text: parser.text[bodyStart:bodyEnd]}, nil
		}
		searchFrom = bodyEnd + 1
	}
}

type countingWriter struct {
	writer  io.Writer
	written int64
	err     error
}

func (counter *countingWriter) Write(data []byte) (int, error) {
	if counter.err != nil {
		return 0, counter.err
	}
	written, writeError := counter.writer.Write(data)
	counter.written += int64(written)
	counter.err = writeError
	return written, writeError
}
