package services

import (
	"context"

	"github.com/custodia-labs/paperbase-cli/internal/core/domain"
	"github.com/custodia-labs/paperbase-cli/internal/core/ports/driven"
)

// Matcher resolves which correspondents, document types and tags apply
// to a piece of content, combining the configured rule expressions with
// classifier predictions for automatically matched entities.
type Matcher struct {
	meta       driven.MetadataStore
	classifier *Classifier
}

// NewMatcher creates a matcher. The classifier may be untrained; auto
// entities then simply never match.
func NewMatcher(meta driven.MetadataStore, classifier *Classifier) *Matcher {
	return &Matcher{meta: meta, classifier: classifier}
}

// MatchCorrespondents returns every correspondent whose rule matches
// the content, plus the classifier's prediction for auto matching.
func (m *Matcher) MatchCorrespondents(ctx context.Context, content string) ([]domain.Correspondent, error) {
	correspondents, err := m.meta.ListCorrespondents(ctx)
	if err != nil {
		return nil, err
	}

	var predicted *int64
	if m.classifier != nil {
		predicted = m.classifier.PredictCorrespondent(content)
	}

	var matched []domain.Correspondent
	for _, c := range correspondents {
		if c.Algorithm == domain.MatchAuto {
			if predicted != nil && *predicted == c.ID {
				matched = append(matched, c)
			}
			continue
		}
		if domain.Matches(c.Algorithm, c.Expression, content) {
			matched = append(matched, c)
		}
	}
	return matched, nil
}

// MatchDocumentTypes returns every document type matching the content.
func (m *Matcher) MatchDocumentTypes(ctx context.Context, content string) ([]domain.DocumentType, error) {
	types, err := m.meta.ListDocumentTypes(ctx)
	if err != nil {
		return nil, err
	}

	var predicted *int64
	if m.classifier != nil {
		predicted = m.classifier.PredictDocumentType(content)
	}

	var matched []domain.DocumentType
	for _, dt := range types {
		if dt.Algorithm == domain.MatchAuto {
			if predicted != nil && *predicted == dt.ID {
				matched = append(matched, dt)
			}
			continue
		}
		if domain.Matches(dt.Algorithm, dt.Expression, content) {
			matched = append(matched, dt)
		}
	}
	return matched, nil
}

// MatchTags returns every tag matching the content. Unlike
// correspondents and types, all matches apply simultaneously.
func (m *Matcher) MatchTags(ctx context.Context, content string) ([]domain.Tag, error) {
	tags, err := m.meta.ListTags(ctx)
	if err != nil {
		return nil, err
	}

	predicted := map[int64]bool{}
	if m.classifier != nil {
		for _, id := range m.classifier.PredictTags(content) {
			predicted[id] = true
		}
	}

	var matched []domain.Tag
	for _, t := range tags {
		if t.Algorithm == domain.MatchAuto {
			if predicted[t.ID] {
				matched = append(matched, t)
			}
			continue
		}
		if domain.Matches(t.Algorithm, t.Expression, content) {
			matched = append(matched, t)
		}
	}
	return matched, nil
}
