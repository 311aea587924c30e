package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// DomainTemplate is the domain prefix for template content hashes.
// The version suffix allows a future algorithm migration.
const DomainTemplate = "tplir/template/v1"

// templateNamespace is the UUIDv5 namespace for template IDs.
var templateNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/roach88/tplir/template"))

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// TemplateHash computes the content-addressed hash of a lowered template.
// Identical IR (including line numbers) always yields the same hash.
func TemplateHash(t *Template) (string, error) {
	canonical, err := MarshalCanonical(t)
	if err != nil {
		return "", fmt.Errorf("TemplateHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainTemplate, canonical), nil
}

// TemplateID derives a stable UUIDv5 for a lowered template from its
// canonical form.
func TemplateID(t *Template) (uuid.UUID, error) {
	canonical, err := MarshalCanonical(t)
	if err != nil {
		return uuid.Nil, fmt.Errorf("TemplateID: failed to marshal: %w", err)
	}
	return uuid.NewSHA1(templateNamespace, canonical), nil
}

// MustTemplateHash is like TemplateHash but panics on error.
// Use only in tests or when the tree is known to hold finite floats.
func MustTemplateHash(t *Template) string {
	hash, err := TemplateHash(t)
	if err != nil {
		panic(err)
	}
	return hash
}
