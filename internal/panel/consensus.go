package panel

import (
	"math"

	"github.com/davharte/tribunal/internal/models"
)

// syntheticFailureIssue flags a cycle where no backend produced a usable
// verdict. It is surfaced rather than hidden so a caller can never
// mistake total failure for a confident "proceed".
const syntheticFailureIssue = "all reviewer backends failed to produce a completed verdict; decision is a low-confidence default"

// ComputeConsensus merges the available verdicts into one decision. It is
// a pure function of its input slice: recomputing on the same verdicts
// yields identical output. Delegated verdicts not yet submitted are simply
// absent; a consensus computed without them is provisional.
func ComputeConsensus(verdicts []models.Verdict) models.Consensus {
	issues, recommendations := collectFindings(verdicts)

	completed := 0
	blocks, changes := 0, 0
	for _, v := range verdicts {
		if v.Status != models.StatusCompleted {
			continue
		}
		completed++
		switch v.Decision {
		case models.DecisionBlock:
			blocks++
		case models.DecisionProceedWithChanges:
			changes++
		}
	}

	if completed == 0 {
		return models.Consensus{
			Decision:        models.DecisionProceedWithChanges,
			Confidence:      DegradedConfidence,
			Issues:          append([]string{syntheticFailureIssue}, issues...),
			Recommendations: recommendations,
		}
	}

	return models.Consensus{
		Decision:        tally(blocks, changes),
		Confidence:      weightedConfidence(verdicts),
		Issues:          issues,
		Recommendations: recommendations,
	}
}

// tally applies the decision rule over completed verdicts. Two or more
// blocks carry the panel; a lone block is downgraded to changes-required
// rather than silently ignored or escalated; any changes-required vote
// prevents a clean proceed.
func tally(blocks, changes int) models.Decision {
	switch {
	case blocks >= 2:
		return models.DecisionBlock
	case blocks == 1:
		return models.DecisionProceedWithChanges
	case changes >= 1:
		return models.DecisionProceedWithChanges
	default:
		return models.DecisionProceed
	}
}

// weightedConfidence averages verdict confidences, weighting completed
// verdicts at 1.0 and failed or timed-out ones at 0.3, rounded to two
// decimals.
func weightedConfidence(verdicts []models.Verdict) float64 {
	var sum, weight float64
	for _, v := range verdicts {
		w := failedWeight
		if v.Status == models.StatusCompleted {
			w = completedWeight
		}
		sum += v.Confidence * w
		weight += w
	}
	if weight == 0 {
		return DefaultFieldConfidence
	}
	return round2(sum / weight)
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

// collectFindings scans every verdict's payload, completed or not, for
// the role's findings lists and flattens them into deduplicated issue and
// recommendation strings, first-seen order preserved.
func collectFindings(verdicts []models.Verdict) (issues, recommendations []string) {
	for _, v := range verdicts {
		if v.Findings == nil {
			continue
		}
		shape := ShapeFor(v.Role)
		issues = append(issues, extractList(v.Findings, shape.IssueFields)...)
		recommendations = append(recommendations, extractList(v.Findings, shape.RecommendationFields)...)
	}
	return dedupe(issues), dedupe(recommendations)
}
