package hash

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"strings"
)

type Algorithm string

const (
	MD5    Algorithm = "md5"
	SHA1   Algorithm = "sha1"
	SHA256 Algorithm = "sha256"
	SHA512 Algorithm = "sha512"
)

// Hasher computes hex digests of submission content.
type Hasher struct {
	algorithm Algorithm
}

func NewHasher(algorithm string) (*Hasher, error) {
	h := &Hasher{algorithm: Algorithm(strings.ToLower(algorithm))}
	if _, err := h.newHash(); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *Hasher) Algorithm() Algorithm {
	return h.algorithm
}

func (h *Hasher) Calculate(data []byte) string {
	hasher, _ := h.newHash()
	hasher.Write(data)
	return hex.EncodeToString(hasher.Sum(nil))
}

func (h *Hasher) CalculateReader(r io.Reader) (string, int64, error) {
	hasher, _ := h.newHash()
	n, err := io.Copy(hasher, r)
	if err != nil {
		return "", n, fmt.Errorf("failed to read data: %w", err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), n, nil
}

func (h *Hasher) newHash() (hash.Hash, error) {
	switch h.algorithm {
	case MD5:
		return md5.New(), nil
	case SHA1:
		return sha1.New(), nil
	case SHA256:
		return sha256.New(), nil
	case SHA512:
		return sha512.New(), nil
	default:
		return nil, fmt.Errorf("unsupported hash algorithm: %s", h.algorithm)
	}
}
