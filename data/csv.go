package data

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/b0tShaman/idxreduce/idx"
)

// ReadCSV builds a container from a pixel CSV, one image per record with
// rows*cols gray levels in row-major order. When labelled is set the first
// field of every record is a class label and is dropped, matching the
// common mnist_train.csv layout. A header line is skipped if its first
// field is not a number.
func ReadCSV(r io.Reader, rows, cols int, labelled bool, magic int32) (*idx.Container, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("csv: invalid image shape %dx%d", rows, cols)
	}
	want := rows * cols
	if labelled {
		want++
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = want
	cr.ReuseRecord = true

	var images [][]uint8
	for line := 1; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: %w", err)
		}
		if line == 1 && !isNumber(record[0]) {
			continue
		}
		if labelled {
			record = record[1:]
		}

		img := make([]uint8, len(record))
		for i, field := range record {
			v, err := strconv.ParseUint(field, 10, 8)
			if err != nil {
				return nil, fmt.Errorf("csv: line %d field %d: %w", line, i, err)
			}
			img[i] = uint8(v)
		}
		images = append(images, img)
	}
	return idx.New(magic, uint32(rows), uint32(cols), images)
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}
