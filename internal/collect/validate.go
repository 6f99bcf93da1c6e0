package collect

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"regexp"
	"strings"
)

var (
	labelRegex  = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9-]*[A-Za-z0-9])?$`)
	tldRegex    = regexp.MustCompile(`^[A-Za-z]{2,63}$`)
	emailRegex  = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	regionRegex = regexp.MustCompile(`^[A-Z]{2}$`)
)

// ValidDomain reports whether s is a fully qualified host name: at least two
// dot separated labels of 1 to 63 letters, digits or hyphens, no label
// starting or ending with a hyphen, an alphabetic top level label and at
// most 253 characters overall.
func ValidDomain(s string) bool {
	if s == "" || len(s) > 253 {
		return false
	}
	labels := strings.Split(s, ".")
	if len(labels) < 2 {
		return false
	}
	for _, l := range labels {
		if len(l) == 0 || len(l) > 63 || !labelRegex.MatchString(l) {
			return false
		}
	}
	return tldRegex.MatchString(labels[len(labels)-1])
}

func ValidEmail(s string) bool {
	if len(s) > 254 || !emailRegex.MatchString(s) {
		return false
	}
	domain := s[strings.LastIndex(s, "@")+1:]
	return ValidDomain(domain)
}

// ValidRegion accepts an ISO 3166-1 alpha-2 code such as DE or US.
func ValidRegion(s string) bool {
	return regionRegex.MatchString(s)
}

const secretAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// GenerateSecret returns n characters drawn uniformly from [A-Za-z0-9]
// using r, which defaults to crypto/rand. The alphabet avoids characters
// compose would try to interpolate.
func GenerateSecret(r io.Reader, n int) (string, error) {
	if r == nil {
		r = rand.Reader
	}
	max := big.NewInt(int64(len(secretAlphabet)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(r, max)
		if err != nil {
			return "", fmt.Errorf("generate secret: %w", err)
		}
		b[i] = secretAlphabet[idx.Int64()]
	}
	return string(b), nil
}
