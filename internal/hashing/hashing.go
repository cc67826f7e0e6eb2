// Package hashing computes and verifies the content digests used by the
// content platforms.
package hashing

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"sort"
	"strconv"
	"strings"

	"github.com/bianoble/modsync/internal/packerr"
)

// Supported algorithm names, as used in file hash maps.
const (
	SHA1   = "sha1"
	SHA256 = "sha256"
	SHA512 = "sha512"
	MD5    = "md5"

	// Murmur2Key holds the CurseForge fingerprint as a decimal string.
	Murmur2Key = "murmur2"
)

// preference is the order in which Verify picks an algorithm.
var preference = []string{SHA512, SHA256, SHA1, MD5}

func newHash(algo string) (hash.Hash, error) {
	switch strings.ToLower(algo) {
	case SHA1:
		return sha1.New(), nil
	case SHA256:
		return sha256.New(), nil
	case SHA512:
		return sha512.New(), nil
	case MD5:
		return md5.New(), nil
	}
	return nil, fmt.Errorf("unsupported hash algorithm %q", algo)
}

// Supported reports whether algo can be computed.
func Supported(algo string) bool {
	_, err := newHash(algo)
	return err == nil
}

// Sum returns the hex digest of data.
func Sum(algo string, data []byte) (string, error) {
	h, err := newHash(algo)
	if err != nil {
		return "", err
	}
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// MustSum is Sum for algorithms known to be supported.
func MustSum(algo string, data []byte) string {
	s, err := Sum(algo, data)
	if err != nil {
		panic(err)
	}
	return s
}

// Comparison is the outcome of comparing data with one known digest.
type Comparison struct {
	Algo     string
	Expected string
	Actual   string
}

// Match reports whether the digests agree.
func (c Comparison) Match() bool {
	return strings.EqualFold(c.Expected, c.Actual)
}

// Compare checks data against the strongest supported digest in hashes,
// falling back to the CurseForge fingerprint when no digest is known. It
// returns false when hashes offers nothing to compare against.
func Compare(data []byte, hashes map[string]string) (Comparison, bool) {
	if algo, want, ok := Strongest(hashes); ok {
		return Comparison{Algo: algo, Expected: want, Actual: MustSum(algo, data)}, true
	}
	if want := hashes[Murmur2Key]; want != "" {
		return Comparison{Algo: Murmur2Key, Expected: want, Actual: strconv.FormatUint(uint64(Fingerprint(data)), 10)}, true
	}
	return Comparison{}, false
}

// Verify checks data against the strongest digest in hashes. A nil or
// empty map yields a NoHashes warning.
func Verify(subject string, data []byte, hashes map[string]string) error {
	c, ok := Compare(data, hashes)
	if !ok {
		return packerr.NoHashes(subject)
	}
	if !c.Match() {
		return packerr.HashMismatch(subject, c.Algo, c.Expected, c.Actual)
	}
	return nil
}

// Strongest returns the preferred supported algorithm present in hashes.
func Strongest(hashes map[string]string) (algo, digest string, ok bool) {
	for _, a := range preference {
		if d, found := hashes[a]; found && d != "" {
			return a, d, true
		}
	}
	// Unknown algorithms are ignored; pick deterministically among the rest.
	keys := make([]string, 0, len(hashes))
	for k := range hashes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if Supported(k) && hashes[k] != "" {
			return strings.ToLower(k), hashes[k], true
		}
	}
	return "", "", false
}
