// Package typeoracle answers subtype-membership questions against the
// cohort's federated type system.
package typeoracle

import "context"

// Oracle reports whether an instance type is the reference type or one of its
// subtypes. sourceName identifies the caller for diagnostics and caching; the
// type graph itself is federated cohort-wide.
type Oracle interface {
	IsSubtypeOf(ctx context.Context, sourceName, typeName, referenceTypeName string) (bool, error)
}

// maxTypeDepth bounds supertype-chain walks so a malformed (cyclic) type
// graph cannot loop forever.
const maxTypeDepth = 64

// Static is an in-memory oracle over a child -> supertype map. Used in tests
// and as a fallback when no type registry is configured.
type Static struct {
	superTypes map[string]string
}

func NewStatic(superTypes map[string]string) *Static {
	return &Static{superTypes: superTypes}
}

func (s *Static) IsSubtypeOf(_ context.Context, _, typeName, referenceTypeName string) (bool, error) {
	if typeName == "" || referenceTypeName == "" {
		return false, nil
	}
	current := typeName
	for depth := 0; depth < maxTypeDepth; depth++ {
		if current == referenceTypeName {
			return true, nil
		}
		next, ok := s.superTypes[current]
		if !ok {
			return false, nil
		}
		current = next
	}
	return false, nil
}
