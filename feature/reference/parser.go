package reference

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// KindParseError is the stable kind of ParseError.
const KindParseError = "ReferenceParseError"

// ParseError reports an unreadable reference file or a malformed row. Row is the
// 1-based line number in the file, or 0 when the file itself is at fault.
type ParseError struct {
	Path   string
	Row    int
	Reason string
}

func (e *ParseError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("reference %s row %d: %s", e.Path, e.Row, e.Reason)
	}
	return fmt.Sprintf("reference %s: %s", e.Path, e.Reason)
}

// Kind returns the stable error kind.
func (e *ParseError) Kind() string { return KindParseError }

// Format describes the layout of a reference file.
type Format struct {
	// Columns gives one letter per field: n label, x/y/z coordinates. Other letters
	// are accepted and ignored.
	Columns string `json:"columns" yaml:"columns"`
	// Delimiter separates fields. Whitespace delimiters match any run of whitespace.
	Delimiter string `json:"delimiter" yaml:"delimiter"`
	// SkipRows is the number of leading lines to ignore.
	SkipRows int `json:"skip_rows" yaml:"skip_rows"`
}

// DefaultFormat is the DISC3D CamPos layout: space separated label and XYZ after a
// one line header.
var DefaultFormat = Format{Columns: "nxyz", Delimiter: " ", SkipRows: 1}

// Row is one camera position.
type Row struct {
	Line  int     `json:"line" yaml:"line"`
	Label string  `json:"label" yaml:"label"`
	X     float64 `json:"x" yaml:"x"`
	Y     float64 `json:"y" yaml:"y"`
	Z     float64 `json:"z" yaml:"z"`
}

// Validate checks the column string names a label and all three coordinates once.
func (f Format) Validate() error {
	for _, c := range "nxyz" {
		switch strings.Count(f.Columns, string(c)) {
		case 0:
			return fmt.Errorf("reference columns %q lack %q", f.Columns, c)
		case 1:
		default:
			return fmt.Errorf("reference columns %q repeat %q", f.Columns, c)
		}
	}
	if f.SkipRows < 0 {
		return fmt.Errorf("reference skip rows must not be negative, got %d", f.SkipRows)
	}
	return nil
}

func (f Format) split(line string) []string {
	if strings.TrimSpace(f.Delimiter) == "" {
		return strings.Fields(line)
	}
	fields := strings.Split(line, f.Delimiter)
	for len(fields) > 0 && strings.TrimSpace(fields[len(fields)-1]) == "" {
		fields = fields[:len(fields)-1]
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	return fields
}

// Parse reads every camera row of a reference file. Blank lines and '#' comment
// lines after the skipped header are ignored.
func Parse(path string, f Format) ([]Row, error) {
	if err := f.Validate(); err != nil {
		return nil, &ParseError{Path: path, Reason: err.Error()}
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, &ParseError{Path: path, Reason: err.Error()}
	}
	defer file.Close()

	idx := map[rune]int{}
	for i, c := range f.Columns {
		idx[c] = i
	}

	var rows []Row
	sc := bufio.NewScanner(file)
	line := 0
	for sc.Scan() {
		line++
		if line <= f.SkipRows {
			continue
		}
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		fields := f.split(text)
		if len(fields) != len(f.Columns) {
			return nil, &ParseError{Path: path, Row: line, Reason: fmt.Sprintf("expected %d fields (%s), found %d", len(f.Columns), f.Columns, len(fields))}
		}

		row := Row{Line: line, Label: fields[idx['n']]}
		for _, c := range []rune{'x', 'y', 'z'} {
			v, err := strconv.ParseFloat(fields[idx[c]], 64)
			if err != nil {
				return nil, &ParseError{Path: path, Row: line, Reason: fmt.Sprintf("column %c is not a number: %q", c, fields[idx[c]])}
			}
			switch c {
			case 'x':
				row.X = v
			case 'y':
				row.Y = v
			case 'z':
				row.Z = v
			}
		}
		rows = append(rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, &ParseError{Path: path, Row: line + 1, Reason: err.Error()}
	}
	return rows, nil
}

// LoadCRS reads a coordinate system definition (WKT) from path. An empty path means
// no coordinate system.
func LoadCRS(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read coordinate system %s: %w", path, err)
	}
	wkt := strings.TrimSpace(string(data))
	if wkt == "" {
		return "", fmt.Errorf("coordinate system file %s is empty", path)
	}
	return wkt, nil
}

func stem(label string) string {
	return strings.TrimSuffix(label, filepath.Ext(label))
}
