// Package iniconf parses and serializes the conaninfo.txt format: a
// document of "[section]" headers followed by indented "key=value"
// lines, where keys may repeat within a section.
package iniconf

import (
	"bufio"
	"bytes"
	"strconv"
	"strings"

	"github.com/cs3conan/conan-server/pkg/errtypes"
)

// entry is one occurrence of a key within a section, preserving order.
type entry struct {
	key   string
	value string
}

// Section holds the ordered, possibly-repeated key/value occurrences of
// one "[section]" block.
type Section struct {
	name    string
	entries []entry
}

// Name returns the section's header name.
func (s *Section) Name() string { return s.name }

// Keys returns the distinct keys in this section in first-occurrence order.
func (s *Section) Keys() []string {
	seen := map[string]bool{}
	var keys []string
	for _, e := range s.entries {
		if !seen[e.key] {
			seen[e.key] = true
			keys = append(keys, e.key)
		}
	}
	return keys
}

// Values returns every occurrence of key within the section, in order.
func (s *Section) Values(key string) []string {
	var vs []string
	for _, e := range s.entries {
		if e.key == key {
			vs = append(vs, e.value)
		}
	}
	return vs
}

// Get returns the first occurrence of key, or "" if absent.
func (s *Section) Get(key string) string {
	for _, e := range s.entries {
		if e.key == key {
			return e.value
		}
	}
	return ""
}

// Document is a parsed conaninfo.txt-style document.
type Document struct {
	sections []*Section
	byName   map[string]*Section
}

// Sections returns every section in file order.
func (d *Document) Sections() []*Section { return d.sections }

// Section returns the named section, or nil if absent.
func (d *Document) Section(name string) *Section { return d.byName[name] }

// Get returns the first value of key in section, or "" if either is absent.
func (d *Document) Get(section, key string) string {
	sec := d.byName[section]
	if sec == nil {
		return ""
	}
	return sec.Get(key)
}

// AsInt reads section/key as an integer, returning def if absent or unparseable.
func (d *Document) AsInt(section, key string, def int) int {
	v := d.Get(section, key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// AsString reads section/key as a string, returning def if absent.
func (d *Document) AsString(section, key string, def string) string {
	sec := d.byName[section]
	if sec == nil {
		return def
	}
	for _, e := range sec.entries {
		if e.key == key {
			return e.value
		}
	}
	return def
}

// AsBool reads section/key as a boolean ("True"/"False", case-insensitive),
// returning def if absent or unrecognized.
func (d *Document) AsBool(section, key string, def bool) bool {
	v := d.Get(section, key)
	switch strings.ToLower(v) {
	case "true":
		return true
	case "false":
		return false
	default:
		return def
	}
}

// AsStringSlice returns every occurrence of key within section, in order;
// nil if the section or key is absent. Covers multi-valued settings such
// as conaninfo.txt's repeated option lines.
func (d *Document) AsStringSlice(section, key string) []string {
	sec := d.byName[section]
	if sec == nil {
		return nil
	}
	return sec.Values(key)
}

// Parse reads a conaninfo.txt-style document. A non-blank, non-comment
// line appearing before any "[section]" header is an InvalidIni error.
func Parse(data []byte) (*Document, error) {
	doc := &Document{byName: map[string]*Section{}}
	var current *Section

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := strings.TrimRight(scanner.Text(), "\r\n")
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == "" || strings.HasPrefix(trimmed, "#"):
			continue
		case strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]"):
			name := strings.TrimSpace(trimmed[1 : len(trimmed)-1])
			current = &Section{name: name}
			doc.sections = append(doc.sections, current)
			doc.byName[name] = current
		default:
			if current == nil {
				return nil, errtypes.StoreFault("invalid ini", errInvalidIni(lineNo, line))
			}
			key, value := splitKV(trimmed)
			current.entries = append(current.entries, entry{key: key, value: value})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errtypes.StoreFault("scanning ini", err)
	}
	return doc, nil
}

func splitKV(line string) (string, string) {
	idx := strings.IndexByte(line, '=')
	if idx < 0 {
		return line, ""
	}
	return line[:idx], line[idx+1:]
}

type invalidIniErr struct {
	line int
	text string
}

func (e *invalidIniErr) Error() string {
	return "invalid ini line " + strconv.Itoa(e.line) + ": " + e.text
}

func errInvalidIni(line int, text string) error {
	return &invalidIniErr{line: line, text: text}
}

// Serialize renders the document back to conaninfo.txt form. Round-trip
// property: Parse(Serialize(Parse(x))) == Parse(x).
func Serialize(doc *Document) []byte {
	var buf bytes.Buffer
	for _, sec := range doc.sections {
		buf.WriteByte('[')
		buf.WriteString(sec.name)
		buf.WriteString("]\n")
		for _, e := range sec.entries {
			buf.WriteString(e.key)
			if e.value != "" {
				buf.WriteByte('=')
				buf.WriteString(e.value)
			} else {
				buf.WriteByte('=')
			}
			buf.WriteByte('\n')
		}
	}
	return buf.Bytes()
}

// NewDocument builds an empty document, for callers constructing one
// programmatically before Serialize.
func NewDocument() *Document {
	return &Document{byName: map[string]*Section{}}
}

// AddSection appends a new, empty section and returns it. If name already
// exists, the existing section is returned instead (keys accumulate).
func (d *Document) AddSection(name string) *Section {
	if sec, ok := d.byName[name]; ok {
		return sec
	}
	sec := &Section{name: name}
	d.sections = append(d.sections, sec)
	d.byName[name] = sec
	return sec
}

// Add appends a key=value occurrence to the section.
func (s *Section) Add(key, value string) {
	s.entries = append(s.entries, entry{key: key, value: value})
}
