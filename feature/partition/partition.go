package partition

import "fmt"

// Partition splits names into workers contiguous slices that keep manifest order,
// share no name and differ in size by at most one. Earlier slices take the remainder,
// so 7 names over 2 workers give 4 and 3. Slices are empty when there are more
// workers than names.
func Partition(names []string, workers int) ([][]string, error) {
	if workers < 1 {
		return nil, fmt.Errorf("worker count must be at least 1, got %d", workers)
	}
	size, extra := len(names)/workers, len(names)%workers
	slices := make([][]string, workers)
	start := 0
	for i := range slices {
		n := size
		if i < extra {
			n++
		}
		slices[i] = names[start : start+n : start+n]
		start += n
	}
	return slices, nil
}
