package model

// DuplicateType grades how certain a duplicate group is.
type DuplicateType string

const (
	// DuplicateExact means the group is near-certainly the same event.
	DuplicateExact DuplicateType = "exact"
	// DuplicateLikely means the group is probably the same event.
	DuplicateLikely DuplicateType = "likely"
	// DuplicatePossible means the group may be the same event.
	DuplicatePossible DuplicateType = "possible"
)

// DuplicateGroup is a set of transactions judged to represent the same
// real-world event. Groups are disjoint: no transaction belongs to two.
type DuplicateGroup struct {
	ID              string        `json:"id"`
	Transactions    []Transaction `json:"transactions"`
	Reason          []string      `json:"reason"`
	DuplicateType   DuplicateType `json:"duplicateType"`
	SimilarityScore float64       `json:"similarityScore"` // Average pairwise
}

// ResolutionAction is the suggested handling for a duplicate group.
type ResolutionAction string

const (
	// ResolveAutoRemove suggests removing all but one transaction.
	ResolveAutoRemove ResolutionAction = "auto-remove"
	// ResolveFlagForReview suggests human inspection.
	ResolveFlagForReview ResolutionAction = "flag-for-review"
)

// DuplicateSuggestion pairs a group with a resolution recommendation.
type DuplicateSuggestion struct {
	GroupID   string           `json:"groupId"`
	Action    ResolutionAction `json:"action"`
	Reasoning string           `json:"reasoning"`
}

// DuplicateDetectionResult is the full output of a detection pass.
type DuplicateDetectionResult struct {
	DuplicateGroups []DuplicateGroup      `json:"duplicateGroups"`
	Suggestions     []DuplicateSuggestion `json:"suggestions"`
	TotalDuplicates int                   `json:"totalDuplicates"`
}
