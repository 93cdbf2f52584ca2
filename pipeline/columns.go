// Copyright 2025 The RouteCO2 Authors
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jcodagnone/routeco2/utils/textutils"
)

// Column resolution errors. Both are batch-fatal.
var (
	ErrColumnNotFound  = errors.New("CSV must contain 'Start Address' and 'End Address' columns")
	ErrAmbiguousColumn = errors.New("CSV must contain a single 'Start Address' and a single 'End Address' column")
)

// Columns locates the address columns of a batch.
type Columns struct {
	Start     int
	End       int
	StartName string
	EndName   string
}

// ResolveColumns finds the start and end address columns. A column is the
// start column when its folded name contains both "start" and "address", and
// otherwise the end column when it contains both "end" and "address".
func ResolveColumns(header []string) (Columns, error) {
	var starts, ends []int

	for i, name := range header {
		switch {
		case textutils.ContainsAll(name, "start", "address"):
			starts = append(starts, i)
		case textutils.ContainsAll(name, "end", "address"):
			ends = append(ends, i)
		}
	}

	if err := checkCandidates("start", starts, header); err != nil {
		return Columns{}, err
	}

	if err := checkCandidates("end", ends, header); err != nil {
		return Columns{}, err
	}

	return Columns{
		Start:     starts[0],
		End:       ends[0],
		StartName: header[starts[0]],
		EndName:   header[ends[0]],
	}, nil
}

func checkCandidates(role string, candidates []int, header []string) error {
	switch len(candidates) {
	case 1:
		return nil
	case 0:
		return fmt.Errorf("%w: no %s address column in [%s]", ErrColumnNotFound, role, strings.Join(header, ", "))
	default:
		names := make([]string, len(candidates))
		for i, c := range candidates {
			names[i] = fmt.Sprintf("%q", header[c])
		}

		return fmt.Errorf("%w: %s address matches %s", ErrAmbiguousColumn, role, strings.Join(names, ", "))
	}
}
