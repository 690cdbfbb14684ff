package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/diacheck/internal/patient"
)

func TestSample(t *testing.T) {
	ds := Sample()
	assert.Len(t, ds.Records, 30)
	assert.Equal(t, 18, ds.Positives())

	first := ds.Records[0]
	want, _ := patient.Example("high-risk")
	assert.Equal(t, want, first.Vector)
	assert.Equal(t, 1, first.Outcome)
}

func TestRead_ColumnOrderIndependent(t *testing.T) {
	csv := "Outcome,Age,DiabetesPedigreeFunction,BMI,Insulin,SkinThickness,BloodPressure,Glucose,Pregnancies\n" +
		"0,31,0.351,26.6,0,29,66,85,1\n"
	ds, err := Read(strings.NewReader(csv), "test")
	require.NoError(t, err)
	require.Len(t, ds.Records, 1)
	want, _ := patient.Example("low-risk")
	assert.Equal(t, want, ds.Records[0].Vector)
	assert.Equal(t, 0, ds.Records[0].Outcome)
}

func TestRead_Errors(t *testing.T) {
	header := strings.Join(Header, ",") + "\n"
	tests := []struct {
		name string
		body string
		want string
	}{
		{"empty", "", "read header"},
		{"missing column", "Glucose,Outcome\n1,0\n", "missing column"},
		{"no rows", header, "no rows"},
		{"bad number", header + "1,x,3,4,5,6,7,8,0\n", "line 2"},
		{"bad outcome", header + "1,2,3,4,5,6,7,8,2\n", "outcome"},
		{"short row", header + "1,2,3\n", "line 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.body), "test")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diabetes.csv")
	require.NoError(t, os.WriteFile(path, sampleCSV, 0o644))

	ds, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, path, ds.Source)
	assert.Len(t, ds.Records, 30)

	_, err = Open(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestMatrix(t *testing.T) {
	ds := Sample()
	X, y := ds.Matrix()
	require.Len(t, X, 30)
	require.Len(t, y, 30)
	assert.Equal(t, []float64{6, 148, 72, 35, 0, 33.6, 0.627, 50}, X[0])
	assert.Equal(t, 1, y[0])
}

func TestHead(t *testing.T) {
	ds := Sample()
	assert.Len(t, ds.Head(5), 5)
	assert.Len(t, ds.Head(100), 30)
	assert.Len(t, ds.Head(-1), 30)
}

func TestSplit(t *testing.T) {
	ds := Sample()
	train, test := ds.Split(0.2, 42)
	assert.Len(t, test.Records, 6)
	assert.Len(t, train.Records, 24)

	again, _ := ds.Split(0.2, 42)
	assert.Equal(t, train.Records, again.Records, "split is deterministic for a seed")

	// Both sides keep at least one record.
	tr, te := ds.Split(0, 1)
	assert.Len(t, te.Records, 1)
	assert.Len(t, tr.Records, 29)

	// Original order untouched.
	want, _ := patient.Example("high-risk")
	assert.Equal(t, want, ds.Records[0].Vector)
}
