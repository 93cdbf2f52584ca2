// Copyright 2025 The RouteCO2 Authors
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSV(t *testing.T) {
	in := "\xEF\xBB\xBF Start Address ,End Address,Notes\n" +
		"Raffles Place,Woodlands,\"first, trip\"\n" +
		"Orchard Road,Jurong\n"

	header, records, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)

	assert.Equal(t, []string{"Start Address", "End Address", "Notes"}, header)

	want := [][]string{
		{"Raffles Place", "Woodlands", "first, trip"},
		{"Orchard Road", "Jurong", ""},
	}
	if diff := cmp.Diff(want, records); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestReadCSV_HeaderOnly(t *testing.T) {
	header, records, err := ReadCSV(strings.NewReader("Start Address,End Address\n"))
	require.NoError(t, err)
	assert.Len(t, header, 2)
	assert.Empty(t, records)
}

func TestReadCSV_Errors(t *testing.T) {
	_, _, err := ReadCSV(strings.NewReader(""))
	require.ErrorIs(t, err, ErrEmptyCSV)

	_, _, err = ReadCSV(strings.NewReader("a,b\n1,2,3\n"))
	require.Error(t, err)
	require.ErrorIs(t, err, ErrRecordTooWide)
	assert.Contains(t, err.Error(), "line 2 has 3 fields")

	_, _, err = ReadCSV(strings.NewReader("a,b\n\"unterminated,2\n"))
	require.Error(t, err)
}

func TestWriteCSV_ReprocessOverwritesAnnotations(t *testing.T) {
	p := New(newStub(), DefaultConfig(), WithPacer(NoPacing))

	first, err := p.ProcessCSV(context.Background(), strings.NewReader(
		"Start Address,End Address\nRaffles Place,Woodlands\nAtlantis,Woodlands\n"))
	require.NoError(t, err)

	var annotated strings.Builder
	require.NoError(t, WriteCSV(&annotated, first))

	second, err := p.ProcessCSV(context.Background(), strings.NewReader(annotated.String()))
	require.NoError(t, err)

	var out strings.Builder
	require.NoError(t, WriteCSV(&out, second))

	assert.Equal(t, annotated.String(), out.String())
	assert.Equal(t, []string{
		"Start Address", "End Address", ColumnDistance, ColumnCO2, ColumnStatus,
	}, second.Header())
}

func TestWriteCSV_QuotesFields(t *testing.T) {
	p := New(newStub(), DefaultConfig(), WithPacer(NoPacing))

	res, err := p.Process(context.Background(), []string{"Start Address", "End Address", "Notes"},
		[][]string{{"Raffles Place", "", "said \"hi\", left"}})
	require.NoError(t, err)

	var out strings.Builder
	require.NoError(t, WriteCSV(&out, res))

	assert.Equal(t,
		"Start Address,End Address,Notes,Distance_KM,CO2_Emissions_KG,Calculation_Status\n"+
			"Raffles Place,,\"said \"\"hi\"\", left\",,,Unable to calculate - Missing address\n",
		out.String())
}
