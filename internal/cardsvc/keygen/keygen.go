// Package keygen produces card key codes of the form XXXXX-XXXXX-XXXXX-XXXXX-XXXXX
// over the alphabet 0-9A-Z.
package keygen

import (
	"bufio"
	"crypto/rand"
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"
)

const (
	Alphabet   = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	Groups     = 5
	GroupSize  = 5
	Separator  = '-'
	CodeLength = Groups*GroupSize + Groups - 1

	// bytes >= maxByte are rejected so every symbol is equally likely
	maxByte = 256 - 256%len(Alphabet)
)

var codePattern = regexp.MustCompile(`^[0-9A-Z]{5}(-[0-9A-Z]{5}){4}$`)

// Source draws codes from a random byte stream. It is safe for concurrent use.
type Source struct {
	mu sync.Mutex
	r  *bufio.Reader
}

// NewSource wraps r; a nil r means crypto/rand.
func NewSource(r io.Reader) *Source {
	if r == nil {
		r = rand.Reader
	}
	return &Source{r: bufio.NewReaderSize(r, 4096)}
}

// Code returns one freshly drawn code.
func (s *Source) Code() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.code()
}

// Batch returns n codes, unique within the batch.
func (s *Source) Batch(n int) ([]string, error) {
	if n < 0 {
		return nil, fmt.Errorf("keygen: negative batch size %d", n)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{}, n)
	out := make([]string, 0, n)
	for len(out) < n {
		c, err := s.code()
		if err != nil {
			return out, err
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out, nil
}

func (s *Source) code() (string, error) {
	var b strings.Builder
	b.Grow(CodeLength)
	for g := 0; g < Groups; g++ {
		if g > 0 {
			b.WriteByte(Separator)
		}
		for i := 0; i < GroupSize; i++ {
			sym, err := s.symbol()
			if err != nil {
				return "", err
			}
			b.WriteByte(sym)
		}
	}
	return b.String(), nil
}

func (s *Source) symbol() (byte, error) {
	for {
		c, err := s.r.ReadByte()
		if err != nil {
			return 0, fmt.Errorf("keygen: read random source: %w", err)
		}
		if int(c) < maxByte {
			return Alphabet[int(c)%len(Alphabet)], nil
		}
	}
}

var defaultSource = NewSource(nil)

// New draws a code from crypto/rand.
func New() (string, error) {
	return defaultSource.Code()
}

// Normalize trims surrounding whitespace and upper-cases user input.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Valid reports whether code is exactly in the canonical format.
func Valid(code string) bool {
	return len(code) == CodeLength && codePattern.MatchString(code)
}
