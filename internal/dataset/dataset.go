package dataset

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"

	"github.com/abhisek/diacheck/internal/patient"
)

// Header is the expected CSV header, in column order.
var Header = []string{
	"Pregnancies", "Glucose", "BloodPressure", "SkinThickness",
	"Insulin", "BMI", "DiabetesPedigreeFunction", "Age", "Outcome",
}

// sampleCSV holds the first rows of the Pima Indians diabetes dataset.
//
//go:embed sample.csv
var sampleCSV []byte

// Record is one labelled historical patient.
type Record struct {
	Vector  patient.Vector
	Outcome int
}

// Dataset is an ordered collection of labelled records.
type Dataset struct {
	Source  string
	Records []Record
}

// Read parses a CSV with the Header columns (matched case-insensitively, in
// any order). Outcome must be 0 or 1.
func Read(r io.Reader, source string) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	head, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols, err := columnIndex(head)
	if err != nil {
		return nil, err
	}

	ds := &Dataset{Source: source}
	line := 1
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		values := make([]string, patient.NumFields)
		for i := range values {
			values[i] = row[cols[i]]
		}
		v, err := patient.Parse(values)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		outcome, err := strconv.Atoi(strings.TrimSpace(row[cols[patient.NumFields]]))
		if err != nil || (outcome != 0 && outcome != 1) {
			return nil, fmt.Errorf("line %d: outcome %q must be 0 or 1", line, row[cols[patient.NumFields]])
		}
		ds.Records = append(ds.Records, Record{Vector: v, Outcome: outcome})
	}

	if len(ds.Records) == 0 {
		return nil, fmt.Errorf("dataset %s has no rows", source)
	}
	return ds, nil
}

// columnIndex maps each Header column to its position in head.
func columnIndex(head []string) ([]int, error) {
	pos := make(map[string]int, len(head))
	for i, h := range head {
		pos[strings.ToLower(strings.TrimSpace(h))] = i
	}
	cols := make([]int, len(Header))
	for i, name := range Header {
		p, ok := pos[strings.ToLower(name)]
		if !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
		cols[i] = p
	}
	return cols, nil
}

// Open reads a CSV dataset from disk.
func Open(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return Read(f, path)
}

// Sample returns the embedded sample dataset.
func Sample() *Dataset {
	ds, err := Read(bytes.NewReader(sampleCSV), "embedded sample")
	if err != nil {
		panic(fmt.Sprintf("embedded sample dataset is invalid: %v", err))
	}
	return ds
}

// Matrix returns the feature matrix and label vector for training.
func (d *Dataset) Matrix() ([][]float64, []int) {
	X := make([][]float64, len(d.Records))
	y := make([]int, len(d.Records))
	for i, r := range d.Records {
		X[i] = r.Vector.Features()
		y[i] = r.Outcome
	}
	return X, y
}

// Head returns the first n records (all of them if n exceeds the size).
func (d *Dataset) Head(n int) []Record {
	if n < 0 || n > len(d.Records) {
		n = len(d.Records)
	}
	return d.Records[:n]
}

// Positives counts records with outcome 1.
func (d *Dataset) Positives() int {
	n := 0
	for _, r := range d.Records {
		n += r.Outcome
	}
	return n
}

// Split shuffles a copy of the records with the given seed and divides it
// into training and holdout sets. testFraction is clamped so that both
// sets keep at least one record when the dataset has two or more.
func (d *Dataset) Split(testFraction float64, seed uint64) (train, test *Dataset) {
	recs := make([]Record, len(d.Records))
	copy(recs, d.Records)
	rng := rand.New(rand.NewPCG(seed, seed))
	rng.Shuffle(len(recs), func(i, j int) { recs[i], recs[j] = recs[j], recs[i] })

	nTest := int(float64(len(recs)) * testFraction)
	if len(recs) >= 2 {
		nTest = max(1, min(nTest, len(recs)-1))
	} else {
		nTest = 0
	}
	return &Dataset{Source: d.Source, Records: recs[nTest:]},
		&Dataset{Source: d.Source, Records: recs[:nTest]}
}
