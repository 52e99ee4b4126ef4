package hashing

import (
	"fmt"

	"github.com/rulealign/rulealign/internal/model"
)

// IntegrityResult reports the outcome of an integrity check. Parse failures
// are reported through Valid=false and Reason rather than an error return,
// so callers always get a result value.
type IntegrityResult struct {
	Valid        bool
	StoredHash   string
	ComputedHash string
	// Reason explains a failed check: a hash mismatch, a missing
	// integrity block, or a parse error.
	Reason string
}

// IntegrityMismatchError reports a stored hash that does not match the
// recomputed one.
type IntegrityMismatchError struct {
	Path         string
	StoredHash   string
	ComputedHash string
}

// Error returns a formatted mismatch message.
func (e *IntegrityMismatchError) Error() string {
	return fmt.Sprintf("integrity mismatch in %s: stored %s, computed %s",
		e.Path, e.StoredHash, e.ComputedHash)
}

// ValidateIntegrity parses the raw document source, extracts the declared
// integrity value, recomputes the content hash with the integrity block
// neutralized, and compares the two. The literal placeholder "<computed>"
// is accepted as always-valid (the pre-hash authoring state).
func ValidateIntegrity(raw []byte, path string) IntegrityResult {
	doc, err := model.LoadDocument(raw, path)
	if err != nil {
		return IntegrityResult{
			Valid:  false,
			Reason: fmt.Sprintf("parse error: %v", err),
		}
	}
	return ValidateDocumentIntegrity(doc)
}

// ValidateDocumentIntegrity checks an already-parsed document.
func ValidateDocumentIntegrity(doc *model.Document) IntegrityResult {
	if doc.Integrity == nil || doc.Integrity.Value == "" {
		return IntegrityResult{
			Valid:  false,
			Reason: "document declares no integrity value",
		}
	}

	stored := doc.Integrity.Value
	if stored == model.IntegrityPlaceholder {
		return IntegrityResult{
			Valid:        true,
			StoredHash:   model.IntegrityPlaceholder,
			ComputedHash: model.IntegrityPlaceholder,
		}
	}

	// ComputeContentHash never covers the integrity block, so hashing the
	// parsed document is the neutralized recomputation.
	computed := ComputeContentHash(doc)
	result := IntegrityResult{
		StoredHash:   Unprefixed(stored),
		ComputedHash: computed,
	}
	if result.StoredHash == computed {
		result.Valid = true
	} else {
		result.Reason = "stored hash does not match recomputed content hash"
	}
	return result
}
