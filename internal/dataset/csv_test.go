package dataset

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rawCSV = `projectReference,id,leadFunder,abstractText
R1,id-1,EPSRC,"An abstract, with a comma"
R2,id-2,MRC,"Multi
line abstract"
R3,id-3,AHRC,Third
`

func TestReadRecords(t *testing.T) {
	records, err := ReadRecords(strings.NewReader(rawCSV), 0)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, Record{ID: "id-1", AbstractText: "An abstract, with a comma", LeadFunder: "EPSRC"}, records[0])
	assert.Equal(t, "Multi\nline abstract", records[1].AbstractText)

	limited, err := ReadRecords(strings.NewReader(rawCSV), 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestReadRecordsMissingColumn(t *testing.T) {
	_, err := ReadRecords(strings.NewReader("id,leadFunder\n1,F\n"), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ColumnAbstract)
}

func TestTokenizedRoundTrip(t *testing.T) {
	docs := []Tokenized{
		{Record: Record{ID: "a", AbstractText: "Text \"quoted\"", LeadFunder: "F"}, Tokens: []string{"text", "quoted"}},
		{Record: Record{ID: "b", AbstractText: "x", LeadFunder: "G"}, Tokens: nil},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteTokenized(&buf, docs))
	assert.True(t, strings.HasPrefix(buf.String(), "id,abstractText,leadFunder,processed_documents\n"))

	got, err := ReadTokenized(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, docs[0], got[0])
	assert.Equal(t, []string{}, got[1].Tokens)
}

func TestReadTokenizedBadJSON(t *testing.T) {
	_, err := ReadTokenized(strings.NewReader("id,processed_documents\nx,not-json\n"))
	require.Error(t, err)
}

func TestWriteVectors(t *testing.T) {
	var buf bytes.Buffer
	err := WriteVectors(&buf, []string{"a", "b"}, [][]float64{{1, 0.5}, {0, 0}}, 2)
	require.NoError(t, err)
	assert.Equal(t, "id,dim_0,dim_1\na,1,0.5\nb,0,0\n", buf.String())

	assert.Error(t, WriteVectors(&buf, []string{"a"}, [][]float64{{1}}, 2))
	assert.Error(t, WriteVectors(&buf, []string{"a", "b"}, [][]float64{{1, 2}}, 2))
}

func TestDropList(t *testing.T) {
	got, err := ReadDropList(strings.NewReader("first text\n\n  \nsecond text\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"first text", "second text"}, got)

	none, err := LoadDropList("")
	require.NoError(t, err)
	assert.Nil(t, none)

	path := filepath.Join(t.TempDir(), "drop.txt")
	require.NoError(t, os.WriteFile(path, []byte("only\n"), 0o644))
	got, err = LoadDropList(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"only"}, got)

	_, err = LoadDropList(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}
