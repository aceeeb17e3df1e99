package utils

import (
	"os"
)

// SaveContentTo saves the given content to the given file.
func SaveContentTo(fpath, content string) error {
	return os.WriteFile(fpath, []byte(content), 0644)
}

// FileExists tests whether this file exists and is or not a directory.
func FileExists(filename string) (exist, isDir bool) {
	info, err := os.Stat(filename)
	if os.IsNotExist(err) {
		return false, false
	}
	return true, info.IsDir()
}

func Min[T int | float64](xs ...T) T {
	res := xs[0]
	for _, x := range xs {
		if x < res {
			res = x
		}
	}
	return res
}

func Max[T int | float64](xs ...T) T {
	res := xs[0]
	for _, x := range xs {
		if x > res {
			res = x
		}
	}
	return res
}

// Combinations returns all k-item combinations of items, preserving the
// input order both across and within combinations.
// Combinations([a, b, c], 2) = [[a, b], [a, c], [b, c]]
func Combinations[T any](items []T, k int) [][]T {
	if k <= 0 || k > len(items) {
		return nil
	}
	var res [][]T
	curr := make([]T, 0, k)
	var iterate func(depth int)
	iterate = func(depth int) {
		if len(curr) == k {
			res = append(res, append([]T{}, curr...))
			return
		}
		if depth == len(items) || len(items)-depth < k-len(curr) {
			return
		}
		curr = append(curr, items[depth])
		iterate(depth + 1)
		curr = curr[:len(curr)-1]
		iterate(depth + 1)
	}
	iterate(0)
	return res
}
