package observable

import (
	"fmt"
	"strings"
)

// CyclicComputedDependencyError reports computed properties that depend on
// each other in a loop. It is raised when the instance is materialized.
type CyclicComputedDependencyError struct {
	Type string
	Path []string
}

func (e *CyclicComputedDependencyError) Error() string {
	return fmt.Sprintf("cyclic computed dependency on type %s: %s", e.Type, strings.Join(e.Path, " -> "))
}
