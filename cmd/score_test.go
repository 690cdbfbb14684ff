package cmd

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/diacheck/internal/patient"
)

func vectorCmd(t *testing.T, flags map[string]string) *cobra.Command {
	t.Helper()
	c := &cobra.Command{}
	addVectorFlags(c.Flags())
	for k, v := range flags {
		require.NoError(t, c.Flags().Set(k, v))
	}
	return c
}

func TestVectorFromInput_ExampleWithOverride(t *testing.T) {
	v, err := vectorFromInput(vectorCmd(t, map[string]string{"example": "high-risk", "glucose": "160"}), nil)
	require.NoError(t, err)

	want, _ := patient.Example("high-risk")
	want.Glucose = 160
	assert.Equal(t, want, v)
}

func TestVectorFromInput_AllFlags(t *testing.T) {
	v, err := vectorFromInput(vectorCmd(t, map[string]string{
		"pregnancies": "1", "glucose": "85", "blood-pressure": "66", "skin-thickness": "29",
		"insulin": "0", "bmi": "26.6", "diabetes-pedigree": "0.351", "age": "31",
	}), nil)
	require.NoError(t, err)
	want, _ := patient.Example("low-risk")
	assert.Equal(t, want, v)
}

func TestVectorFromInput_MissingFlags(t *testing.T) {
	_, err := vectorFromInput(vectorCmd(t, map[string]string{"glucose": "85"}), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--pregnancies")
	assert.Contains(t, err.Error(), "--blood-pressure")
	assert.NotContains(t, err.Error(), "--glucose")
}

func TestVectorFromInput_Positional(t *testing.T) {
	v, err := vectorFromInput(vectorCmd(t, nil), []string{"6, 148, 72, 35, 0, 33.6, 0.627, 50"})
	require.NoError(t, err)
	want, _ := patient.Example("high-risk")
	assert.Equal(t, want, v)

	_, err = vectorFromInput(vectorCmd(t, nil), []string{"6,148,72"})
	assert.ErrorIs(t, err, patient.ErrInvalidVector)

	_, err = vectorFromInput(vectorCmd(t, map[string]string{"example": "standard"}), []string{"6,148,72,35,0,33.6,0.627,50"})
	assert.ErrorContains(t, err, "not both")
}

func TestVectorFromInput_PositionalWithFieldFlags(t *testing.T) {
	c := vectorCmd(t, map[string]string{"glucose": "160", "age": "40"})
	_, err := vectorFromInput(c, []string{"6,148,72,35,0,33.6,0.627,50"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "per-field flags")
	assert.Contains(t, err.Error(), "--glucose, --age")
}

func TestVectorFromInput_Errors(t *testing.T) {
	_, err := vectorFromInput(vectorCmd(t, map[string]string{"example": "nope"}), nil)
	assert.ErrorContains(t, err, `unknown example "nope"`)

	_, err = vectorFromInput(vectorCmd(t, map[string]string{"example": "standard", "glucose": "500"}), nil)
	assert.ErrorIs(t, err, patient.ErrOutOfBounds)
}
