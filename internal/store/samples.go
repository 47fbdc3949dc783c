package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/cwbudde/circleopt/internal/opt"
)

// sampleLine is the on-disk form of opt.SamplePoint. JSON has no NaN or
// infinities, so non-finite values are written as null and read back as NaN.
type sampleLine struct {
	T          float64  `json:"t"`
	Value      *float64 `json:"value"`
	Derivative *float64 `json:"derivative"`
	Estimate   *float64 `json:"estimate"`
}

func finite(x float64) *float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return nil
	}
	return &x
}

func orNaN(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}
	return *p
}

func samplesPath(baseDir, id string) string {
	return filepath.Join(resultDir(baseDir, id), "samples.jsonl")
}

// SaveSamples writes a function sampling next to the result with the given ID,
// one opt.SamplePoint per line. An existing sampling is replaced.
func SaveSamples(baseDir, id string, samples []opt.SamplePoint) error {
	if id == "" {
		return fmt.Errorf("id cannot be empty")
	}
	if err := os.MkdirAll(resultDir(baseDir, id), 0755); err != nil {
		return fmt.Errorf("failed to create result directory: %w", err)
	}

	path := samplesPath(baseDir, id)
	tempPath := path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create samples file: %w", err)
	}

	w := bufio.NewWriter(file)
	enc := json.NewEncoder(w)
	for _, s := range samples {
		line := sampleLine{T: s.T, Value: finite(s.Value), Derivative: finite(s.Derivative), Estimate: finite(s.Estimate)}
		if err := enc.Encode(line); err != nil {
			file.Close()
			os.Remove(tempPath)
			return fmt.Errorf("failed to encode sample at t=%g: %w", s.T, err)
		}
	}
	if err := w.Flush(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to flush samples: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close samples file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename samples file: %w", err)
	}
	return nil
}

// OpenSamples opens the raw JSONL sampling of a result.
func OpenSamples(baseDir, id string) (*os.File, error) {
	file, err := os.Open(samplesPath(baseDir, id))
	if os.IsNotExist(err) {
		return nil, &NotFoundError{ID: id}
	} else if err != nil {
		return nil, fmt.Errorf("failed to open samples file: %w", err)
	}
	return file, nil
}

// LoadSamples reads a sampling written by SaveSamples.
func LoadSamples(baseDir, id string) ([]opt.SamplePoint, error) {
	file, err := OpenSamples(baseDir, id)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var samples []opt.SamplePoint
	dec := json.NewDecoder(bufio.NewReader(file))
	for dec.More() {
		var line sampleLine
		if err := dec.Decode(&line); err != nil {
			return nil, fmt.Errorf("failed to decode sample %d: %w", len(samples), err)
		}
		samples = append(samples, opt.SamplePoint{
			T:          line.T,
			Value:      orNaN(line.Value),
			Derivative: orNaN(line.Derivative),
			Estimate:   orNaN(line.Estimate),
		})
	}
	return samples, nil
}
