package ingest

import (
	"bufio"
	"encoding/csv"
	"io"
	"strings"

	"datalens/internal/errors"
)

// CSVSource streams rows from delimited text. The delimiter is sniffed
// from the header line (comma, semicolon or tab), so exported European
// spreadsheets work without configuration.
type CSVSource struct {
	reader *csv.Reader
	closer io.Closer
	header []string
}

// NewCSVSource wraps a byte stream as a row source. The first row is read
// eagerly as the header; a stream without one fails with PARSE_ERROR.
func NewCSVSource(r io.ReadCloser) (*CSVSource, error) {
	buffered := bufio.NewReader(r)

	delim, err := sniffDelimiter(buffered)
	if err != nil {
		r.Close()
		return nil, errors.ParseError("source is empty or unreadable")
	}

	cr := csv.NewReader(buffered)
	cr.Comma = delim
	cr.FieldsPerRecord = -1 // tolerate ragged rows; the pipeline pads
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		r.Close()
		return nil, errors.ParseError("missing header row")
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	return &CSVSource{reader: cr, closer: r, header: header}, nil
}

// sniffDelimiter peeks at the first line and picks the candidate delimiter
// appearing most often. Comma wins ties.
func sniffDelimiter(r *bufio.Reader) (rune, error) {
	peek, err := r.Peek(4096)
	if len(peek) == 0 {
		if err != nil && err != io.EOF {
			return 0, err
		}
		return 0, io.EOF
	}
	line := string(peek)
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = line[:idx]
	}

	best, bestCount := ',', strings.Count(line, ",")
	if c := strings.Count(line, ";"); c > bestCount {
		best, bestCount = ';', c
	}
	if c := strings.Count(line, "\t"); c > bestCount {
		best = '\t'
	}
	return best, nil
}

// Header returns the column names from the first row.
func (s *CSVSource) Header() ([]string, error) {
	return s.header, nil
}

// Next returns the next data row, or io.EOF at stream end. Malformed rows
// that the csv reader cannot decode fail the stream.
func (s *CSVSource) Next() ([]string, error) {
	row, err := s.reader.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, errors.WithCode(errors.CodeParseError, err)
	}
	return row, nil
}

// TotalRows is unknown for a streaming text source.
func (s *CSVSource) TotalRows() int { return -1 }

// Close releases the underlying stream.
func (s *CSVSource) Close() error { return s.closer.Close() }
