// Copyright 2025 The RouteCO2 Authors
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Input shape errors.
var (
	ErrEmptyCSV      = errors.New("CSV file is empty")
	ErrRecordTooWide = errors.New("record has more fields than the header")
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadCSV reads a header row followed by records. Header names are trimmed,
// a leading UTF-8 byte order mark is dropped and short records are padded to
// the header width. Records wider than the header are rejected.
func ReadCSV(r io.Reader) ([]string, [][]string, error) {
	br := bufio.NewReader(r)
	if prefix, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(prefix, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, ErrEmptyCSV
	}

	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	for i, name := range header {
		header[i] = strings.TrimSpace(name)
	}

	var records [][]string

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, nil, fmt.Errorf("failed to read CSV: %w", err)
		}

		if len(record) > len(header) {
			line, _ := reader.FieldPos(0)

			return nil, nil, fmt.Errorf("failed to read CSV: %w: line %d has %d fields, header has %d",
				ErrRecordTooWide, line, len(record), len(header))
		}

		for len(record) < len(header) {
			record = append(record, "")
		}

		records = append(records, record)
	}

	return header, records, nil
}

// WriteCSV writes the annotated header and one record per row.
func WriteCSV(w io.Writer, result *BatchResult) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(result.Header()); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}

	for i := range result.Rows {
		if err := writer.Write(result.Record(i)); err != nil {
			return fmt.Errorf("writing CSV record %d: %w", i+1, err)
		}
	}

	writer.Flush()

	if err := writer.Error(); err != nil {
		return fmt.Errorf("writing CSV: %w", err)
	}

	return nil
}
