package services

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dsarkar123/ReguluS-MAS/internal/logger"
	"github.com/dsarkar123/ReguluS-MAS/models"
)

// NoResultsMessage is the fixed outcome when the index returns no hits;
// the later stages never run in that case.
const NoResultsMessage = "Could not find any relevant documents."

var scorePattern = regexp.MustCompile(`\d+`)

// Retriever answers natural-language questions over the indexed corpus in
// four stages: vector search, parent-context expansion, generative
// reranking, and grounded synthesis. Each invocation owns its working set;
// nothing is shared across queries.
type Retriever struct {
	ai    AIClient
	store VectorStore
	delay time.Duration
}

func NewRetriever(ai AIClient, store VectorStore, delay time.Duration) *Retriever {
	return &Retriever{ai: ai, store: store, delay: delay}
}

// RetrievalOptions tunes one query. Zero values fall back to the defaults
// (10 search results, top 3 after rerank, no filter).
type RetrievalOptions struct {
	NResults   int
	TopNRerank int
	Filter     map[string]any
}

func (o RetrievalOptions) withDefaults() RetrievalOptions {
	if o.NResults <= 0 {
		o.NResults = 10
	}
	if o.TopNRerank <= 0 {
		o.TopNRerank = 3
	}
	return o
}

// scoredCandidate pairs a candidate with its rerank score.
type scoredCandidate struct {
	candidate models.RetrievalCandidate
	score     int
}

// Answer runs the full pipeline for one query. Search and synthesis
// failures are terminal; rerank failures degrade to score 0 per candidate.
func (r *Retriever) Answer(ctx context.Context, query string, opts RetrievalOptions) (string, error) {
	opts = opts.withDefaults()

	hits, err := r.search(ctx, query, opts.NResults, opts.Filter)
	if err != nil {
		return "", err
	}
	if len(hits) == 0 {
		logger.Info("Search returned no hits, short-circuiting", "query", query)
		return NoResultsMessage, nil
	}

	candidates := r.expandContext(ctx, hits)
	ranked := r.rerank(ctx, query, candidates, opts.TopNRerank)
	return r.synthesize(ctx, query, ranked)
}

// search embeds the query and asks the index for the nearest nodes.
func (r *Retriever) search(ctx context.Context, query string, n int, filter map[string]any) ([]QueryHit, error) {
	logger.Debug("Embedding query", "query", query)
	embedding, err := r.ai.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query embedding failed: %w", err)
	}

	hits, err := r.store.Query(ctx, embedding, n, filter)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	logger.Debug("Search complete", "hits", len(hits))
	return hits, nil
}

// expandContext adds the top-level parent of every sub-paragraph hit.
// Sub-paragraphs rarely stand alone in regulatory text, so their enclosing
// paragraph is fetched too; expansion goes one level only, matching the
// two-level depth of the data model. The merged set is deduplicated by id,
// preferring the original hit's attached data over a re-fetch.
func (r *Retriever) expandContext(ctx context.Context, hits []QueryHit) []models.RetrievalCandidate {
	seen := make(map[string]bool, len(hits))
	candidates := make([]models.RetrievalCandidate, 0, len(hits))
	parentIDs := make([]string, 0, len(hits))

	for _, hit := range hits {
		if seen[hit.ID] {
			continue
		}
		seen[hit.ID] = true
		candidates = append(candidates, models.RetrievalCandidate{Metadata: hit.Metadata, Text: hit.Document})

		if parent := hit.Metadata.Parent(); parent != "" && !seen[parent] {
			parentIDs = append(parentIDs, parent)
		}
	}

	if len(parentIDs) == 0 {
		return candidates
	}

	logger.Debug("Fetching parent documents", "count", len(parentIDs))
	parents, err := r.store.Get(ctx, uniqueStrings(parentIDs))
	if err != nil {
		// Expansion is additive; losing it degrades context, not the query.
		logger.Warn("Parent fetch failed, continuing without expansion", "error", err)
		return candidates
	}

	for _, parent := range parents {
		if seen[parent.ID] {
			continue
		}
		seen[parent.ID] = true
		candidates = append(candidates, models.RetrievalCandidate{Metadata: parent.Metadata, Text: parent.Document})
	}
	return candidates
}

// rerank scores every candidate with a generative judge and keeps the top
// n. A candidate that cannot be scored stays in the list with score 0, so
// reranking never shrinks the input below min(topN, len(candidates)).
// Sorting is stable: ties keep their pre-rerank order.
func (r *Retriever) rerank(ctx context.Context, query string, candidates []models.RetrievalCandidate, topN int) []models.RetrievalCandidate {
	logger.Debug("Reranking candidates", "count", len(candidates))

	scored := make([]scoredCandidate, 0, len(candidates))
	for i, candidate := range candidates {
		score, err := r.scoreCandidate(ctx, query, candidate)
		if err != nil {
			logger.Warn("Could not score candidate, assigning 0", "notice_id", candidate.Metadata.NoticeID, "error", err)
			score = 0
		}
		scored = append(scored, scoredCandidate{candidate: candidate, score: score})

		if r.delay > 0 && i < len(candidates)-1 {
			select {
			case <-time.After(r.delay):
			case <-ctx.Done():
			}
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	if topN > len(scored) {
		topN = len(scored)
	}
	ranked := make([]models.RetrievalCandidate, 0, topN)
	for _, sc := range scored[:topN] {
		ranked = append(ranked, sc.candidate)
	}
	return ranked
}

func (r *Retriever) scoreCandidate(ctx context.Context, query string, candidate models.RetrievalCandidate) (int, error) {
	prompt := buildScoringPrompt(query, candidate)

	response, err := r.ai.GenerateText(ctx, prompt)
	if err != nil {
		return 0, err
	}

	raw := scorePattern.FindString(response)
	if raw == "" {
		return 0, fmt.Errorf("no integer score in response %q", response)
	}
	score, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	return score, nil
}

// synthesize builds one grounded prompt over the ranked candidates and
// returns the generated answer verbatim. Citation fidelity is the model's
// instruction-following; no post-validation happens here.
func (r *Retriever) synthesize(ctx context.Context, query string, ranked []models.RetrievalCandidate) (string, error) {
	logger.Debug("Synthesizing final answer", "context_blocks", len(ranked))

	answer, err := r.ai.GenerateText(ctx, buildSynthesisPrompt(query, ranked))
	if err != nil {
		return "", fmt.Errorf("answer synthesis failed: %w", err)
	}
	return answer, nil
}

func buildScoringPrompt(query string, candidate models.RetrievalCandidate) string {
	return fmt.Sprintf(`Score the relevance of the following document to the user's query.
The score should be an integer from 1 (not relevant) to 10 (highly relevant).
Return ONLY the integer score.

User Query: "%s"
---
Document (Source: %s, Type: %s):
"%s"`, query, candidate.Metadata.NoticeID, candidate.Metadata.NodeType, candidate.Text)
}

func buildSynthesisPrompt(query string, ranked []models.RetrievalCandidate) string {
	var context strings.Builder
	for i, candidate := range ranked {
		meta := candidate.Metadata
		label := fmt.Sprintf("Source: %s, Type: %s", meta.NoticeID, meta.NodeType)
		if parent := meta.Parent(); parent != "" {
			label += ", Parent: " + parent
		}
		context.WriteString(fmt.Sprintf("--- Context %d (%s) ---\n%s\n\n", i+1, label, candidate.Text))
	}

	return fmt.Sprintf(`You are an expert on MAS regulations. Answer the user's question based ONLY on the provided context sections.
For each piece of information you use, you MUST cite the specific source notice and paragraph (e.g., "According to MAS Notice 758, ...").
If the answer is not in the context, state that clearly.

User Question: "%s"

Context Sections:
%s`, query, context.String())
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
