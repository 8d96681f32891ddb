package postgres

import (
	"crypto/rand"
	"math/big"

	"github.com/oklog/ulid/v2"

	"github.com/iho/walletledger/internal/domain"
)

// ULIDGenerator generates ULID-based IDs.
type ULIDGenerator struct{}

// NewULIDGenerator creates a new ULIDGenerator.
func NewULIDGenerator() *ULIDGenerator {
	return &ULIDGenerator{}
}

// Generate generates a new ULID.
func (g *ULIDGenerator) Generate() string {
	return ulid.Make().String()
}

// referenceSpace is 10^ReferenceLength.
var referenceSpace = new(big.Int).Exp(big.NewInt(10), big.NewInt(domain.ReferenceLength), nil)

// ReferenceGenerator draws uniformly random zero-padded 10-digit references.
// Uniqueness is checked by the caller against the stored references.
type ReferenceGenerator struct{}

// NewReferenceGenerator creates a new ReferenceGenerator.
func NewReferenceGenerator() *ReferenceGenerator {
	return &ReferenceGenerator{}
}

// Generate returns a candidate reference.
func (g *ReferenceGenerator) Generate() (string, error) {
	n, err := rand.Int(rand.Reader, referenceSpace)
	if err != nil {
		return "", err
	}

	ref := n.String()
	for len(ref) < domain.ReferenceLength {
		ref = "0" + ref
	}
	return ref, nil
}
