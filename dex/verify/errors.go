package verify

import (
	"errors"
	"fmt"
)

// Category groups failures by the kind of rule that was broken.
type Category uint8

const (
	// CategoryBounds covers reads and lists that leave the file or a section.
	CategoryBounds Category = iota + 1
	// CategoryAlignment covers misaligned offsets and non-zero padding.
	CategoryAlignment
	// CategoryOrder covers sorted tables and increasing index sequences.
	CategoryOrder
	// CategoryReference covers dangling indices and offsets that point at the
	// wrong kind of item.
	CategoryReference
	// CategoryDuplicate covers repeated sections, classes and interfaces.
	CategoryDuplicate
	// CategoryEncoding covers malformed LEB128, MUTF-8, descriptors and
	// encoded values.
	CategoryEncoding
	// CategoryPolicy covers access-flag and naming rules.
	CategoryPolicy
	// CategoryIntegrity covers checksum mismatches.
	CategoryIntegrity
)

var categoryNames = map[Category]string{
	CategoryBounds:    "bounds",
	CategoryAlignment: "alignment",
	CategoryOrder:     "order",
	CategoryReference: "reference",
	CategoryDuplicate: "duplicate",
	CategoryEncoding:  "encoding",
	CategoryPolicy:    "policy",
	CategoryIntegrity: "integrity",
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return fmt.Sprintf("category(%d)", uint8(c))
}

// ValidationError describes the first rule a dex file broke.
type ValidationError struct {
	// Location is the caller-supplied name of the file, used only in messages.
	Location string
	// Category classifies the broken rule.
	Category Category
	// Offset is the verifier's cursor when the failure was detected. It is
	// approximate: checks that look at a referenced item report the offset of
	// the referencing item.
	Offset int
	// Message is the human-readable reason.
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("Failure to verify dex file '%s': %s", e.Location, e.Message)
}

// AsValidationError returns the *ValidationError in err's chain, if any.
func AsValidationError(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}

// prefixed returns err with prefix prepended to its message. Errors that are
// not validation errors pass through.
func prefixed(err error, prefix string) error {
	verr, ok := AsValidationError(err)
	if !ok {
		return err
	}
	out := *verr
	out.Message = prefix + verr.Message
	return &out
}

// outcome is the result of a rule that older files are allowed to break.
type outcome uint8

const (
	outcomeOK outcome = iota
	outcomeWarn
	outcomeFail
)

// compatWarningPrefix starts every warning produced by a relaxed rule.
const compatWarningPrefix = "This dex file is invalid and will be rejected in the future. Error is: "
