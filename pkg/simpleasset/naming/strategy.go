// Package naming provides filename conflict-resolution strategies for the
// asset ingestion pipeline. A strategy generates candidate storage keys; the
// service loops over candidates until the blob store reports one as free.
package naming

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"
)

// Strategy defines how source and preview file names are generated. The
// conflict argument is the previously generated candidate that turned out to
// exist already, or "" on the first attempt.
//
// A strategy must eventually escape any fixed set of conflicting names, e.g.
// by appending a monotonically incrementing or random suffix. A strategy that
// can cycle through a finite candidate set makes the resolver loop unbounded.
type Strategy interface {
	// GenerateSourceFileName produces a candidate key for the original object
	GenerateSourceFileName(name, conflict string) string

	// GeneratePreviewFileName produces a candidate key for the derived preview
	GeneratePreviewFileName(name, conflict string) string
}

// counterSuffix matches the numbering a DefaultStrategy appends on conflict.
var counterSuffix = regexp.MustCompile(`__(\d+)$`)

// DefaultStrategy appends an incrementing two-digit counter before the
// extension on each conflict: "photo.jpg", "photo__01.jpg", "photo__02.jpg".
// It is deterministic given (name, conflict).
type DefaultStrategy struct{}

func NewDefaultStrategy() *DefaultStrategy {
	return &DefaultStrategy{}
}

func (s *DefaultStrategy) GenerateSourceFileName(name, conflict string) string {
	if conflict == "" {
		return name
	}
	return incrementCounter(conflict)
}

func (s *DefaultStrategy) GeneratePreviewFileName(name, conflict string) string {
	if conflict == "" {
		return addSuffix(name, "__preview")
	}
	return incrementCounter(conflict)
}

// HashedStrategy appends a short random hex suffix on conflict, escaping any
// conflict set in a single step at the cost of determinism.
type HashedStrategy struct {
	// SuffixLength is the number of random bytes encoded into the suffix
	SuffixLength int
}

func NewHashedStrategy() *HashedStrategy {
	return &HashedStrategy{SuffixLength: 4}
}

func (s *HashedStrategy) GenerateSourceFileName(name, conflict string) string {
	if conflict == "" {
		return name
	}
	return addSuffix(name, "__"+s.randomSuffix())
}

func (s *HashedStrategy) GeneratePreviewFileName(name, conflict string) string {
	if conflict == "" {
		return addSuffix(name, "__preview")
	}
	return addSuffix(name, "__preview__"+s.randomSuffix())
}

func (s *HashedStrategy) randomSuffix() string {
	n := s.SuffixLength
	if n <= 0 {
		n = 4
	}
	buf := make([]byte, n)
	rand.Read(buf)
	return hex.EncodeToString(buf)
}

// incrementCounter bumps the trailing counter of a conflicting candidate, or
// starts one at 01 if the candidate has none.
func incrementCounter(conflict string) string {
	ext := path.Ext(conflict)
	base := strings.TrimSuffix(conflict, ext)

	if m := counterSuffix.FindStringSubmatch(base); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil {
			stem := base[:len(base)-len(m[0])]
			return fmt.Sprintf("%s__%02d%s", stem, n+1, ext)
		}
	}
	return fmt.Sprintf("%s__%02d%s", base, 1, ext)
}

// addSuffix inserts a suffix between the base name and the extension.
func addSuffix(name, suffix string) string {
	ext := path.Ext(name)
	return strings.TrimSuffix(name, ext) + suffix + ext
}
