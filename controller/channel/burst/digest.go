package burst

import (
	"hash"

	sha256 "github.com/minio/sha256-simd"
	"golang.org/x/crypto/sha3"
	"lukechampine.com/blake3"
)

const (
	DigestSHA256 = "sha256"
	DigestSHA3   = "sha3-256"
	DigestBlake3 = "blake3"
)

// Digests lists the hash functions that can seed a size map.
var Digests = []string{DigestSHA256, DigestSHA3, DigestBlake3}

func newDigest(name string) (hash.Hash, error) {
	switch name {
	case DigestSHA256:
		return sha256.New(), nil
	case DigestSHA3:
		return sha3.New256(), nil
	case DigestBlake3:
		return blake3.New(32, nil), nil
	default:
		return nil, ErrInvalidDigest
	}
}

func digestSum(name string, data []byte) ([]byte, error) {
	h, err := newDigest(name)
	if err != nil {
		return nil, err
	}
	h.Write(data)
	return h.Sum(nil), nil
}
