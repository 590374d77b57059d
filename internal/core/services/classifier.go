package services

import (
	"context"
	"crypto/sha1"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/paperbase-cli/internal/core/domain"
	"github.com/custodia-labs/paperbase-cli/internal/core/ports/driven"
	"github.com/custodia-labs/paperbase-cli/internal/logger"
)

// modelFormatVersion guards the persisted model layout. Loading a model
// with a different version fails with KindIncompatibleVersion.
const modelFormatVersion = 1

// noLabel marks a training document without a correspondent or type.
const noLabel = int64(-1)

// minDocFrequency is the fraction of training documents a term must
// occur in to enter the vocabulary.
const minDocFrequency = 0.01

// Classifier learns correspondent, document type and tag assignment
// from documents whose entities use automatic matching, and predicts
// them for new content.
type Classifier struct {
	mu        sync.RWMutex
	modelPath string
	docs      driven.DocumentStore
	meta      driven.MetadataStore

	model     *classifierModel
	modelTime time.Time
}

// classifierModel is the persisted training state.
type classifierModel struct {
	CorpusHash    []byte
	Correspondent *naiveBayes
	DocumentType  *naiveBayes
	Tags          map[int64]*naiveBayes
}

// NewClassifier creates a classifier persisting its model at modelPath.
func NewClassifier(modelPath string, docs driven.DocumentStore, meta driven.MetadataStore) *Classifier {
	return &Classifier{modelPath: modelPath, docs: docs, meta: meta}
}

// Train rebuilds the model from the current archive, leaving out
// documents that bear an inbox tag. When the training corpus is
// unchanged since the last run, the stored model is kept and false is
// returned.
func (c *Classifier) Train(ctx context.Context) (bool, error) {
	docs, err := c.docs.ListDocuments(ctx)
	if err != nil {
		return false, err
	}
	if len(docs) == 0 {
		return false, domain.ErrNoTrainingData
	}

	auto, err := autoIDs(ctx, c.meta)
	if err != nil {
		return false, err
	}

	corpus := buildCorpus(docs, auto)
	if len(corpus.texts) == 0 {
		return false, domain.ErrNoTrainingData
	}

	hash := corpus.hash()
	c.mu.RLock()
	unchanged := c.model != nil && string(c.model.CorpusHash) == string(hash)
	c.mu.RUnlock()
	if unchanged {
		logger.Info("training corpus unchanged, keeping model")
		return false, nil
	}

	vocab := buildVocabulary(corpus.texts)
	if len(vocab) == 0 {
		return false, domain.ErrNoTrainingData
	}

	model := &classifierModel{
		CorpusHash: hash,
		Tags:       make(map[int64]*naiveBayes),
	}
	if hasRealLabel(corpus.correspondents) {
		model.Correspondent = trainNaiveBayes(corpus.texts, corpus.correspondents, vocab)
	}
	if hasRealLabel(corpus.types) {
		model.DocumentType = trainNaiveBayes(corpus.texts, corpus.types, vocab)
	}
	for tagID, labels := range corpus.tagLabels {
		model.Tags[tagID] = trainNaiveBayes(corpus.texts, labels, vocab)
	}

	if err := c.save(model); err != nil {
		return false, err
	}

	c.mu.Lock()
	c.model = model
	c.modelTime = time.Now()
	c.mu.Unlock()
	logger.Info("trained classifier on %d documents", len(corpus.texts))
	return true, nil
}

// Load reads the persisted model. A missing file leaves the classifier
// untrained; an incompatible format is a typed consume error.
func (c *Classifier) Load() error {
	f, err := os.Open(c.modelPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("opening model: %w", err)
	}
	defer f.Close()

	dec := gob.NewDecoder(f)
	var version int
	if err := dec.Decode(&version); err != nil {
		return domain.NewConsumeError(domain.KindIncompatibleVersion, err,
			"classification model is unreadable")
	}
	if version != modelFormatVersion {
		return domain.NewConsumeError(domain.KindIncompatibleVersion, nil,
			"classification model version %d is not supported", version)
	}
	var model classifierModel
	if err := dec.Decode(&model); err != nil {
		return domain.NewConsumeError(domain.KindIncompatibleVersion, err,
			"classification model is corrupt")
	}

	info, err := os.Stat(c.modelPath)
	if err != nil {
		return fmt.Errorf("reading model mtime: %w", err)
	}

	c.mu.Lock()
	c.model = &model
	c.modelTime = info.ModTime()
	c.mu.Unlock()
	return nil
}

// Reload re-reads the model when the file changed on disk, so
// long-running watchers pick up retraining by another process.
func (c *Classifier) Reload() error {
	info, err := os.Stat(c.modelPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	c.mu.RLock()
	stale := info.ModTime().After(c.modelTime)
	c.mu.RUnlock()
	if !stale {
		return nil
	}
	return c.Load()
}

// Trained reports whether a model is available.
func (c *Classifier) Trained() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.model != nil
}

// PredictCorrespondent predicts the correspondent id for content, nil
// when untrained or when no correspondent wins.
func (c *Classifier) PredictCorrespondent(content string) *int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.model == nil || c.model.Correspondent == nil {
		return nil
	}
	return predictID(c.model.Correspondent, content)
}

// PredictDocumentType predicts the document type id for content.
func (c *Classifier) PredictDocumentType(content string) *int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.model == nil || c.model.DocumentType == nil {
		return nil
	}
	return predictID(c.model.DocumentType, content)
}

// PredictTags predicts the set of automatic tags for content.
func (c *Classifier) PredictTags(content string) []int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.model == nil {
		return nil
	}
	features := extractFeatures(content)
	var tags []int64
	for tagID, nb := range c.model.Tags {
		if nb.predict(features) == 1 {
			tags = append(tags, tagID)
		}
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

func predictID(nb *naiveBayes, content string) *int64 {
	label := nb.predict(extractFeatures(content))
	if label == noLabel {
		return nil
	}
	return &label
}

func (c *Classifier) save(model *classifierModel) error {
	if err := os.MkdirAll(filepath.Dir(c.modelPath), 0700); err != nil {
		return fmt.Errorf("creating model directory: %w", err)
	}
	tmp := c.modelPath + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("writing model: %w", err)
	}
	enc := gob.NewEncoder(f)
	if err := enc.Encode(modelFormatVersion); err != nil {
		f.Close()
		return fmt.Errorf("encoding model version: %w", err)
	}
	if err := enc.Encode(model); err != nil {
		f.Close()
		return fmt.Errorf("encoding model: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, c.modelPath)
}

// ==================== Training corpus ====================

// autoSets are the entity ids configured for automatic matching, plus
// the inbox tag ids whose documents are withheld from training.
type autoSets struct {
	correspondents map[int64]bool
	types          map[int64]bool
	tags           map[int64]bool
	inbox          map[int64]bool
}

func autoIDs(ctx context.Context, meta driven.MetadataStore) (*autoSets, error) {
	sets := &autoSets{
		correspondents: map[int64]bool{},
		types:          map[int64]bool{},
		tags:           map[int64]bool{},
		inbox:          map[int64]bool{},
	}
	correspondents, err := meta.ListCorrespondents(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range correspondents {
		if c.Algorithm == domain.MatchAuto {
			sets.correspondents[c.ID] = true
		}
	}
	types, err := meta.ListDocumentTypes(ctx)
	if err != nil {
		return nil, err
	}
	for _, dt := range types {
		if dt.Algorithm == domain.MatchAuto {
			sets.types[dt.ID] = true
		}
	}
	tags, err := meta.ListTags(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range tags {
		if t.Algorithm == domain.MatchAuto {
			sets.tags[t.ID] = true
		}
		if t.IsInboxTag {
			sets.inbox[t.ID] = true
		}
	}
	return sets, nil
}

type corpus struct {
	texts          [][]string
	correspondents []int64
	types          []int64
	tagLabels      map[int64][]int64
	preprocessed   []string
}

// buildCorpus assembles training rows in document id order. Documents
// without text are skipped, as are documents bearing an inbox tag:
// those are pending triage and their labels must not enter training.
// Entities not set to automatic matching contribute the no-label
// sentinel.
func buildCorpus(docs []domain.Document, auto *autoSets) *corpus {
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })

	cp := &corpus{tagLabels: map[int64][]int64{}}
	for tagID := range auto.tags {
		cp.tagLabels[tagID] = nil
	}

	for i := range docs {
		doc := &docs[i]
		if bearsInboxTag(doc.TagIDs, auto.inbox) {
			continue
		}
		text := strings.TrimSpace(doc.Content + " " + doc.Title)
		if text == "" {
			continue
		}
		cp.preprocessed = append(cp.preprocessed, preprocess(text))
		cp.texts = append(cp.texts, extractFeatures(text))

		label := noLabel
		if doc.CorrespondentID != nil && auto.correspondents[*doc.CorrespondentID] {
			label = *doc.CorrespondentID
		}
		cp.correspondents = append(cp.correspondents, label)

		label = noLabel
		if doc.DocumentTypeID != nil && auto.types[*doc.DocumentTypeID] {
			label = *doc.DocumentTypeID
		}
		cp.types = append(cp.types, label)

		tagged := map[int64]bool{}
		for _, id := range doc.TagIDs {
			tagged[id] = true
		}
		for tagID := range cp.tagLabels {
			v := int64(0)
			if tagged[tagID] {
				v = 1
			}
			cp.tagLabels[tagID] = append(cp.tagLabels[tagID], v)
		}
	}
	return cp
}

// hash fingerprints the training corpus: preprocessed text, labels and
// participating tag ids, in stable order.
func (cp *corpus) hash() []byte {
	h := sha1.New()
	buf := make([]byte, 4)
	for i, text := range cp.preprocessed {
		h.Write([]byte(text))
		binary.LittleEndian.PutUint32(buf, uint32(int32(cp.correspondents[i])))
		h.Write(buf)
		binary.LittleEndian.PutUint32(buf, uint32(int32(cp.types[i])))
		h.Write(buf)
	}
	tagIDs := make([]int64, 0, len(cp.tagLabels))
	for id := range cp.tagLabels {
		tagIDs = append(tagIDs, id)
	}
	sort.Slice(tagIDs, func(i, j int) bool { return tagIDs[i] < tagIDs[j] })
	for _, id := range tagIDs {
		binary.LittleEndian.PutUint32(buf, uint32(int32(id)))
		h.Write(buf)
		for _, v := range cp.tagLabels[id] {
			binary.LittleEndian.PutUint32(buf, uint32(int32(v)))
			h.Write(buf)
		}
	}
	return h.Sum(nil)
}

func bearsInboxTag(tagIDs []int64, inbox map[int64]bool) bool {
	for _, id := range tagIDs {
		if inbox[id] {
			return true
		}
	}
	return false
}

func hasRealLabel(labels []int64) bool {
	for _, l := range labels {
		if l != noLabel {
			return true
		}
	}
	return false
}

// ==================== Feature extraction ====================

// preprocess lower-cases text and collapses non-alphanumeric runs.
func preprocess(text string) string {
	var b strings.Builder
	lastSpace := true
	for _, r := range strings.ToLower(text) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
			lastSpace = false
			continue
		}
		if !lastSpace {
			b.WriteByte(' ')
			lastSpace = true
		}
	}
	return strings.TrimSpace(b.String())
}

// extractFeatures produces the unigram and bigram bag of words.
func extractFeatures(text string) []string {
	words := strings.Fields(preprocess(text))
	features := make([]string, 0, len(words)*2)
	for i, w := range words {
		if len(w) < 2 {
			continue
		}
		features = append(features, w)
		if i+1 < len(words) && len(words[i+1]) >= 2 {
			features = append(features, w+" "+words[i+1])
		}
	}
	return features
}

// buildVocabulary keeps terms occurring in at least minDocFrequency of
// the documents.
func buildVocabulary(texts [][]string) map[string]bool {
	df := map[string]int{}
	for _, features := range texts {
		seen := map[string]bool{}
		for _, f := range features {
			if !seen[f] {
				df[f]++
				seen[f] = true
			}
		}
	}
	minDF := int(math.Ceil(minDocFrequency * float64(len(texts))))
	if minDF < 1 {
		minDF = 1
	}
	vocab := map[string]bool{}
	for term, count := range df {
		if count >= minDF {
			vocab[term] = true
		}
	}
	return vocab
}

// ==================== Multinomial naive Bayes ====================

// naiveBayes is a multinomial naive Bayes model with Laplace smoothing.
// Fields are exported for gob.
type naiveBayes struct {
	Classes   []int64
	LogPrior  map[int64]float64
	LogProb   map[int64]map[string]float64
	LogUnseen map[int64]float64

	// SingleClass short-circuits prediction when training saw exactly
	// one label value.
	SingleClass bool
}

func trainNaiveBayes(texts [][]string, labels []int64, vocab map[string]bool) *naiveBayes {
	classDocs := map[int64]int{}
	classTokens := map[int64]map[string]int{}
	classTotal := map[int64]int{}

	for i, features := range texts {
		label := labels[i]
		classDocs[label]++
		if classTokens[label] == nil {
			classTokens[label] = map[string]int{}
		}
		for _, f := range features {
			if !vocab[f] {
				continue
			}
			classTokens[label][f]++
			classTotal[label]++
		}
	}

	nb := &naiveBayes{
		LogPrior:  map[int64]float64{},
		LogProb:   map[int64]map[string]float64{},
		LogUnseen: map[int64]float64{},
	}
	total := len(texts)
	vocabSize := float64(len(vocab))
	for label, docs := range classDocs {
		nb.Classes = append(nb.Classes, label)
		nb.LogPrior[label] = math.Log(float64(docs) / float64(total))
		denom := float64(classTotal[label]) + vocabSize
		nb.LogProb[label] = map[string]float64{}
		for term, count := range classTokens[label] {
			nb.LogProb[label][term] = math.Log((float64(count) + 1) / denom)
		}
		nb.LogUnseen[label] = math.Log(1 / denom)
	}
	sort.Slice(nb.Classes, func(i, j int) bool { return nb.Classes[i] < nb.Classes[j] })
	nb.SingleClass = len(nb.Classes) == 1
	return nb
}

// predict returns the highest scoring class label.
func (nb *naiveBayes) predict(features []string) int64 {
	if nb.SingleClass {
		return nb.Classes[0]
	}
	best := nb.Classes[0]
	bestScore := math.Inf(-1)
	for _, class := range nb.Classes {
		score := nb.LogPrior[class]
		probs := nb.LogProb[class]
		for _, f := range features {
			if p, ok := probs[f]; ok {
				score += p
			} else {
				score += nb.LogUnseen[class]
			}
		}
		if score > bestScore {
			bestScore = score
			best = class
		}
	}
	return best
}
