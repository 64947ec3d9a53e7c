package domain

import (
	"cmp"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// ImageExtensions lists the frame file extensions that are enumerated
var ImageExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".tif", ".tiff"}

var digitRun = regexp.MustCompile(`[0-9]+`)

// IsImageFile reports whether the file name has a frame image extension
func IsImageFile(name string) bool {
	return slices.Contains(ImageExtensions, strings.ToLower(filepath.Ext(name)))
}

// FrameKey returns the numeric sort key of a frame file.
// A pure-digit stem yields its value, otherwise the last digit run in the stem, otherwise 0.
func FrameKey(name string) int {
	base := filepath.Base(name)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	runs := digitRun.FindAllString(stem, -1)
	if len(runs) == 0 {
		return 0
	}
	n, err := strconv.Atoi(runs[len(runs)-1])
	if err != nil {
		// digit run too large for int
		return 0
	}
	return n
}

// CompareFrames orders frame paths by numeric key, then file name, then full path
func CompareFrames(a, b string) int {
	if c := cmp.Compare(FrameKey(a), FrameKey(b)); c != 0 {
		return c
	}
	if c := cmp.Compare(filepath.Base(a), filepath.Base(b)); c != 0 {
		return c
	}
	return cmp.Compare(a, b)
}

// SortFrames sorts frame paths in place using CompareFrames
func SortFrames(paths []string) {
	slices.SortFunc(paths, CompareFrames)
}
