package storage

import (
	"encoding/json"
	"io"
	"os"
)

type ExportData struct {
	Run     RunMetadata `json:"run"`
	Samples []Sample    `json:"samples"`
}

// ExportJSON writes a run and its trajectory as one indented document.
func ExportJSON(w io.Writer, meta RunMetadata, samples []Sample) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(ExportData{Run: meta, Samples: samples})
}

func ExportJSONFile(path string, meta RunMetadata, samples []Sample) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return ExportJSON(file, meta, samples)
}
