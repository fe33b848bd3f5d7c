package storage

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// FileStore keeps each run in its own directory as metadata.json plus
// trajectory.csv.
type FileStore struct {
	baseDir string
}

func NewFileStore(baseDir string) *FileStore {
	return &FileStore{baseDir: baseDir}
}

func (s *FileStore) Init(_ context.Context) error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *FileStore) Save(_ context.Context, meta RunMetadata, samples []Sample) (string, error) {
	if meta.ID == "" {
		meta.ID = NewRunID(meta.Model)
	}
	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "trajectory.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := WriteCSV(csvFile, samples); err != nil {
		return "", fmt.Errorf("write trajectory %s: %w", meta.ID, err)
	}
	return meta.ID, nil
}

func (s *FileStore) List(_ context.Context) ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.readMeta(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	sortRuns(runs)
	return runs, nil
}

func (s *FileStore) Load(_ context.Context, id string) (*RunMetadata, error) {
	return s.readMeta(id)
}

func (s *FileStore) readMeta(id string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, id, "metadata.json"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("decode metadata %s: %w", id, err)
	}
	return &meta, nil
}

func (s *FileStore) LoadTrajectory(_ context.Context, id string) ([]Sample, error) {
	file, err := os.Open(filepath.Join(s.baseDir, id, "trajectory.csv"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, err
	}
	defer file.Close()
	return ReadCSV(file)
}

func (s *FileStore) Close() error { return nil }

// WriteCSV writes samples with the header t,j,x0..,y0..,jumped. The column
// counts come from the widest sample; missing outputs are left empty.
func WriteCSV(w io.Writer, samples []Sample) error {
	nx, ny := 0, 0
	for _, s := range samples {
		nx = max(nx, len(s.X))
		ny = max(ny, len(s.Y))
	}

	header := []string{"t", "j"}
	for i := 0; i < nx; i++ {
		header = append(header, fmt.Sprintf("x%d", i))
	}
	for i := 0; i < ny; i++ {
		header = append(header, fmt.Sprintf("y%d", i))
	}
	header = append(header, "jumped")

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, s := range samples {
		row := make([]string, 0, len(header))
		row = append(row, formatFloat(s.T), strconv.Itoa(s.J))
		row = appendPadded(row, s.X, nx)
		row = appendPadded(row, s.Y, ny)
		row = append(row, strconv.FormatBool(s.Jumped))
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func appendPadded(row []string, vals []float64, n int) []string {
	for i := 0; i < n; i++ {
		if i < len(vals) {
			row = append(row, formatFloat(vals[i]))
		} else {
			row = append(row, "")
		}
	}
	return row
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// ReadCSV is the inverse of WriteCSV. Empty cells are accepted only as the
// trailing padding WriteCSV emits for short samples.
func ReadCSV(r io.Reader) ([]Sample, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return []Sample{}, nil
	}

	var xCols, yCols []int
	jumpedCol := -1
	for i, name := range records[0] {
		switch {
		case name == "jumped":
			jumpedCol = i
		case strings.HasPrefix(name, "x"):
			xCols = append(xCols, i)
		case strings.HasPrefix(name, "y"):
			yCols = append(yCols, i)
		}
	}

	samples := make([]Sample, 0, len(records)-1)
	for n, record := range records[1:] {
		if len(record) < 2 {
			continue
		}
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: bad t: %w", n+1, err)
		}
		j, err := strconv.Atoi(record[1])
		if err != nil {
			return nil, fmt.Errorf("row %d: bad j: %w", n+1, err)
		}
		s := Sample{T: t, J: j}
		if s.X, err = parseColumns(records[0], record, xCols); err != nil {
			return nil, fmt.Errorf("row %d: %w", n+1, err)
		}
		if s.Y, err = parseColumns(records[0], record, yCols); err != nil {
			return nil, fmt.Errorf("row %d: %w", n+1, err)
		}
		if jumpedCol >= 0 && jumpedCol < len(record) {
			if s.Jumped, err = strconv.ParseBool(record[jumpedCol]); err != nil {
				return nil, fmt.Errorf("row %d: bad jumped: %w", n+1, err)
			}
		}
		samples = append(samples, s)
	}
	return samples, nil
}

func parseColumns(header, record []string, cols []int) ([]float64, error) {
	var out []float64
	padded := -1
	for _, c := range cols {
		if c >= len(record) || record[c] == "" {
			if padded < 0 {
				padded = c
			}
			continue
		}
		if padded >= 0 {
			return nil, fmt.Errorf("empty %s before %s", header[padded], header[c])
		}
		v, err := strconv.ParseFloat(record[c], 64)
		if err != nil {
			return nil, fmt.Errorf("bad %s: %w", header[c], err)
		}
		out = append(out, v)
	}
	return out, nil
}
