// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package validation rejects malformed scoring input before any score is
// computed. Rules live in `validate` struct tags on the pkg/types records;
// this package adds the checks tags cannot express and turns validator
// errors into readable messages.
package validation

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/pdiddy/research-feed/pkg/types"
)

var (
	// ErrInvalidProfile wraps every profile validation failure.
	ErrInvalidProfile = errors.New("invalid profile")

	// ErrInvalidPapers wraps every paper list validation failure.
	ErrInvalidPapers = errors.New("invalid paper list")
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Get returns the shared validator instance.
func Get() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Error lists every field that failed validation.
type Error struct {
	kind     error
	problems []string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v: %s", e.kind, strings.Join(e.problems, "; "))
}

// Unwrap exposes ErrInvalidProfile or ErrInvalidPapers to errors.Is.
func (e *Error) Unwrap() error { return e.kind }

// Problems returns one message per failed field.
func (e *Error) Problems() []string { return e.problems }

// Profile validates a user profile.
func Profile(p types.UserProfile) error {
	problems := structProblems(p, "profile")
	if len(problems) == 0 {
		return nil
	}
	return &Error{kind: ErrInvalidProfile, problems: problems}
}

// Papers validates a paper list. A nil list is rejected; an empty list is valid.
func Papers(papers []types.Paper) error {
	if papers == nil {
		return &Error{kind: ErrInvalidPapers, problems: []string{"paper list is missing"}}
	}
	var problems []string
	seen := make(map[string]int, len(papers))
	for i, p := range papers {
		prefix := fmt.Sprintf("papers[%d]", i)
		problems = append(problems, structProblems(p, prefix)...)
		if p.ID == "" {
			continue
		}
		if j, ok := seen[p.ID]; ok {
			problems = append(problems, fmt.Sprintf("%s: duplicate id %q (first at papers[%d])", prefix, p.ID, j))
			continue
		}
		seen[p.ID] = i
	}
	if len(problems) == 0 {
		return nil
	}
	return &Error{kind: ErrInvalidPapers, problems: problems}
}

// structProblems runs the validator on s and formats each failure.
func structProblems(s any, prefix string) []string {
	err := Get().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{fmt.Sprintf("%s: %v", prefix, err)}
	}
	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		problems = append(problems, fmt.Sprintf("%s: %s", fieldPath(prefix, fe.Namespace()), describe(fe)))
	}
	return problems
}

// fieldPath replaces the struct type name at the head of a namespace with prefix.
func fieldPath(prefix, namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return prefix + namespace[i:]
	}
	return prefix
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return fmt.Sprintf("%v is not one of [%s]", fe.Value(), fe.Param())
	case "min":
		return fmt.Sprintf("%v is below the minimum %s", fe.Value(), fe.Param())
	case "max":
		return fmt.Sprintf("%v is above the maximum %s", fe.Value(), fe.Param())
	case "gt":
		return fmt.Sprintf("%v must be greater than %s", fe.Value(), fe.Param())
	case "lte":
		return fmt.Sprintf("%v must be at most %s", fe.Value(), fe.Param())
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}
