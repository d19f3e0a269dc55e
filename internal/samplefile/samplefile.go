// Package samplefile loads (x, y) samples for a sample.Store out of a
// column-major delimited text file, using phil-mansfield/table the same
// way render/halo/io.go loads Rockstar catalog columns.
package samplefile

import (
	"fmt"

	"github.com/phil-mansfield/table"

	"github.com/phil-mansfield/gosplinter/sample"
)

// Load reads the columns at xCols (in order, becoming x_0..x_{d-1}) and
// yCol from fname and inserts one sample per row into a new Store.
func Load(fname string, xCols []int, yCol int) (*sample.Store, error) {
	idxs := make([]int, len(xCols)+1)
	copy(idxs, xCols)
	idxs[len(xCols)] = yCol

	cols, err := table.ReadTable(fname, idxs, nil)
	if err != nil {
		return nil, fmt.Errorf("samplefile.Load: %w", err)
	}
	if len(cols) != len(idxs) {
		return nil, fmt.Errorf("samplefile.Load: table.ReadTable returned %d columns, want %d", len(cols), len(idxs))
	}

	yVals := cols[len(xCols)]
	store := sample.New()
	x := make([]float64, len(xCols))
	for row := range yVals {
		for a := range xCols {
			x[a] = cols[a][row]
		}
		if err := store.Add(x, yVals[row]); err != nil {
			return nil, fmt.Errorf("samplefile.Load: row %d: %w", row, err)
		}
	}
	return store, nil
}
