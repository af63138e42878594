package contenthash

import (
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/blake2b"
)

// Algorithm names a supported digest.
type Algorithm string

const (
	BLAKE2b256 Algorithm = "blake2b-256"
	BLAKE3     Algorithm = "blake3"

	DefaultAlgorithm = BLAKE2b256
)

// ParseAlgorithm validates a configured algorithm name. Empty selects the default.
func ParseAlgorithm(raw string) (Algorithm, error) {
	value := Algorithm(strings.ToLower(strings.TrimSpace(raw)))
	switch value {
	case "":
		return DefaultAlgorithm, nil
	case BLAKE2b256, BLAKE3:
		return value, nil
	default:
		return "", fmt.Errorf("unsupported hash algorithm: %s", value)
	}
}

// Hasher computes content digests used as dedup keys and stored file names.
// Digests are lowercase hex and depend only on the input bytes.
type Hasher struct {
	algorithm Algorithm
}

// New returns a Hasher for algorithm.
func New(algorithm Algorithm) (*Hasher, error) {
	parsed, err := ParseAlgorithm(string(algorithm))
	if err != nil {
		return nil, err
	}
	return &Hasher{algorithm: parsed}, nil
}

// Algorithm returns the digest in use.
func (h *Hasher) Algorithm() Algorithm {
	return h.algorithm
}

// Hash digests data.
func (h *Hasher) Hash(data []byte) string {
	d := h.newDigest()
	_, _ = d.Write(data)
	return hex.EncodeToString(d.Sum(nil))
}

// HashReader digests everything readable from r.
func (h *Hasher) HashReader(r io.Reader) (string, int64, error) {
	if r == nil {
		return "", 0, fmt.Errorf("reader is required")
	}
	d := h.newDigest()
	n, err := io.Copy(d, r)
	if err != nil {
		return "", n, err
	}
	return hex.EncodeToString(d.Sum(nil)), n, nil
}

// HashFile reads path fully and digests its bytes.
func (h *Hasher) HashFile(path string) (string, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, err
	}
	return h.Hash(data), data, nil
}

func (h *Hasher) newDigest() hash.Hash {
	switch h.algorithm {
	case BLAKE3:
		return blake3.New()
	default:
		d, err := blake2b.New256(nil)
		if err != nil {
			// Only fails for oversized keys; no key is used.
			panic("contenthash: blake2b init: " + err.Error())
		}
		return d
	}
}
