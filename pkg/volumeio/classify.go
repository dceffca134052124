package volumeio

import (
	"path/filepath"
	"strings"
)

// Classifier decides whether a decoded file is a segmentation mask. The
// decision belongs to the caller; the decoder only carries it on the Volume.
type Classifier func(path string, h Header) bool

// PatternClassifier marks a file as a mask when its lower-cased base name
// matches any of the glob patterns.
func PatternClassifier(patterns []string) Classifier {
	return func(path string, _ Header) bool {
		base := strings.ToLower(filepath.Base(path))
		for _, p := range patterns {
			if ok, _ := filepath.Match(strings.ToLower(p), base); ok {
				return true
			}
		}
		return false
	}
}

// DatatypeClassifier treats floating-point volumes as masks and integer
// volumes as intensity images.
func DatatypeClassifier() Classifier {
	return func(_ string, h Header) bool {
		return h.Datatype.IsFloat()
	}
}

// AnyClassifier reports a mask if any of cs does.
func AnyClassifier(cs ...Classifier) Classifier {
	return func(path string, h Header) bool {
		for _, c := range cs {
			if c != nil && c(path, h) {
				return true
			}
		}
		return false
	}
}

// PathClassifier marks exactly the given files as masks. Paths are compared
// after filepath.Clean.
func PathClassifier(paths ...string) Classifier {
	set := make(map[string]bool, len(paths))
	for _, p := range paths {
		if p != "" {
			set[filepath.Clean(p)] = true
		}
	}
	return func(path string, _ Header) bool {
		return set[filepath.Clean(path)]
	}
}
