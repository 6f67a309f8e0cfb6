package dataset

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Column names shared with the rest of the pipeline.
const (
	ColumnID         = "id"
	ColumnAbstract   = "abstractText"
	ColumnLeadFunder = "leadFunder"
	ColumnTokens     = "processed_documents"
)

// ReadRecords reads at most nrows data rows (all rows when nrows <= 0) from
// a CSV with a header containing the id, abstractText and leadFunder
// columns. Other columns are ignored.
func ReadRecords(r io.Reader, nrows int) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading csv header: %w", err)
	}
	idx, err := columnIndex(header, ColumnID, ColumnAbstract, ColumnLeadFunder)
	if err != nil {
		return nil, err
	}
	var records []Record
	for nrows <= 0 || len(records) < nrows {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv row %d: %w", len(records)+1, err)
		}
		records = append(records, Record{
			ID:           field(row, idx[0]),
			AbstractText: field(row, idx[1]),
			LeadFunder:   field(row, idx[2]),
		})
	}
	return records, nil
}

// WriteTokenized writes records with their tokens encoded as a JSON list in
// the processed_documents column.
func WriteTokenized(w io.Writer, docs []Tokenized) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{ColumnID, ColumnAbstract, ColumnLeadFunder, ColumnTokens}); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, d := range docs {
		tokens := d.Tokens
		if tokens == nil {
			tokens = []string{}
		}
		encoded, err := json.Marshal(tokens)
		if err != nil {
			return fmt.Errorf("encoding tokens for %s: %w", d.ID, err)
		}
		if err := cw.Write([]string{d.ID, d.AbstractText, d.LeadFunder, string(encoded)}); err != nil {
			return fmt.Errorf("writing row %s: %w", d.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadTokenized reads the output of WriteTokenized.
func ReadTokenized(r io.Reader) ([]Tokenized, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading csv header: %w", err)
	}
	idx, err := columnIndex(header, ColumnID, ColumnTokens)
	if err != nil {
		return nil, err
	}
	abstractIdx, _ := columnIndex(header, ColumnAbstract)
	funderIdx, _ := columnIndex(header, ColumnLeadFunder)

	var docs []Tokenized
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv row %d: %w", len(docs)+1, err)
		}
		var tokens []string
		if err := json.Unmarshal([]byte(field(row, idx[1])), &tokens); err != nil {
			return nil, fmt.Errorf("decoding tokens for %s: %w", field(row, idx[0]), err)
		}
		d := Tokenized{Record: Record{ID: field(row, idx[0])}, Tokens: tokens}
		if abstractIdx != nil {
			d.AbstractText = field(row, abstractIdx[0])
		}
		if funderIdx != nil {
			d.LeadFunder = field(row, funderIdx[0])
		}
		docs = append(docs, d)
	}
	return docs, nil
}

// WriteVectors writes one row per document: the id followed by d columns
// named dim_0 .. dim_{d-1}.
func WriteVectors(w io.Writer, ids []string, vectors [][]float64, dim int) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("got %d ids for %d vectors", len(ids), len(vectors))
	}
	cw := csv.NewWriter(w)
	header := make([]string, 0, dim+1)
	header = append(header, ColumnID)
	for i := 0; i < dim; i++ {
		header = append(header, "dim_"+strconv.Itoa(i))
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	row := make([]string, dim+1)
	for i, vec := range vectors {
		if len(vec) != dim {
			return fmt.Errorf("vector for %s has %d dimensions, expected %d", ids[i], len(vec), dim)
		}
		row[0] = ids[i]
		for j, x := range vec {
			row[j+1] = strconv.FormatFloat(x, 'g', -1, 64)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing vector row %s: %w", ids[i], err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadDropList reads one abstract text per line. Blank lines are skipped.
func ReadDropList(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var out []string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading drop list: %w", err)
	}
	return out, nil
}

// LoadDropList reads the drop list at path. An empty path means no list.
func LoadDropList(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening drop list: %w", err)
	}
	defer f.Close()
	return ReadDropList(f)
}

func columnIndex(header []string, names ...string) ([]int, error) {
	positions := make(map[string]int, len(header))
	for i, h := range header {
		positions[strings.TrimSpace(h)] = i
	}
	idx := make([]int, len(names))
	for i, name := range names {
		p, ok := positions[name]
		if !ok {
			return nil, fmt.Errorf("csv is missing column %q", name)
		}
		idx[i] = p
	}
	return idx, nil
}

func field(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
