package deps

import (
	"fmt"
	"strings"
)

// Requirement defines an external helper autounzip may call.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// ExtractionRequirements lists the host helpers used by the extraction
// backends. Every format except cab is decoded in-process, so the cab helper
// is the only entry and it is optional: without it only .cab files fail.
func ExtractionRequirements(cabHelper string) []Requirement {
	return []Requirement{{
		Name:        "Cabinet helper",
		Command:     cabHelper,
		Description: "Extracts .cab archives",
		Optional:    true,
	}}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		resolved, err := ResolveHelper(cmd)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Command = resolved
		status.Available = true
		results = append(results, status)
	}
	return results
}
