package domain

// MatchingRule holds the matching configuration shared by correspondents,
// document types and tags.
type MatchingRule struct {
	// Algorithm selects the matching strategy.
	Algorithm MatchingAlgorithm

	// Expression is the match string, unused for MatchNone and MatchAuto.
	Expression string
}

// Correspondent is the sender/source entity associated with documents.
// Referenced, never owned, by Document.
type Correspondent struct {
	ID   int64
	Name string
	MatchingRule
}

// DocumentType categorises documents (invoice, contract, receipt...).
type DocumentType struct {
	ID   int64
	Name string
	MatchingRule
}

// Tag is a free-form label attached to documents.
type Tag struct {
	ID    int64
	Name  string
	Color string
	MatchingRule

	// IsInboxTag marks tags auto-applied to freshly consumed documents
	// pending triage. Documents bearing an inbox tag are withheld from
	// classifier training.
	IsInboxTag bool
}
