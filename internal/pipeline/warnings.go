package pipeline

import "fmt"

// WarningCode enumerates the non-fatal diagnostics a run can accumulate.
// Everything downstream of a successfully built approximant degrades
// gracefully: the run always returns its best result plus this list.
type WarningCode string

const (
	// WarnIllConditioned: design-matrix condition number above the bound.
	WarnIllConditioned WarningCode = "IllConditionedSystem"

	// WarnDegreeLimit: escalation hit maxDegree without meeting tolerance.
	WarnDegreeLimit WarningCode = "DegreeLimitReached"

	// WarnSolverFailure: every root-solve attempt failed; the critical
	// point set is empty or partial.
	WarnSolverFailure WarningCode = "RootSolverFailure"

	// WarnClassificationAmbiguous: a near-singular Hessian left a point
	// tagged degenerate.
	WarnClassificationAmbiguous WarningCode = "ClassificationAmbiguous"

	// WarnUnassignedPoint: a merged point fell outside every subdomain.
	WarnUnassignedPoint WarningCode = "UnassignedPoint"
)

// Warning is one structured diagnostic attached to a run result.
type Warning struct {
	Code    WarningCode `json:"code"`
	Message string      `json:"message"`
}

func warningf(code WarningCode, format string, args ...any) Warning {
	return Warning{Code: code, Message: fmt.Sprintf(format, args...)}
}
