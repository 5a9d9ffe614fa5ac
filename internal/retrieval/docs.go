// Package retrieval answers information queries by ranking passages from a
// document store. Ranking is deterministic lexical overlap, so the answer
// path works with zero external services; answers can be cached in Redis.
package retrieval

import (
	"fmt"
	"math"
	"os"
	"regexp"
	"sort"
	"strings"
)

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}]+`)

// Hit is one ranked passage.
type Hit struct {
	Index int
	Score float64
	Text  string
}

// DocumentStore holds passages and their token sets for ranking.
type DocumentStore struct {
	docs   []string
	tokens []map[string]bool
}

func NewDocumentStore(docs []string) *DocumentStore {
	store := &DocumentStore{docs: docs}
	store.tokens = make([]map[string]bool, len(docs))
	for i, doc := range docs {
		store.tokens[i] = tokenize(doc)
	}
	return store
}

// FromFile loads passages from a text file, one passage per blank-line
// separated block.
func FromFile(path string) (*DocumentStore, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read docs file: %w", err)
	}

	var docs []string
	for _, part := range strings.Split(string(raw), "\n\n") {
		if part = strings.TrimSpace(part); part != "" {
			docs = append(docs, part)
		}
	}
	return NewDocumentStore(docs), nil
}

// DefaultDocuments returns the built-in knowledge base used when no docs
// file is configured.
func DefaultDocuments() []string {
	return []string{
		"Parking is available on levels 1-3 of the main garage. " +
			"Level 1 is reserved for visitors, levels 2-3 for registered vehicles.",
		"Parking reservations require a first name, last name, vehicle ID and a date range. " +
			"Reservations start at 10:00 and end at 12:00 on the chosen days.",
		"Every reservation request needs admin approval. " +
			"After submitting you receive a request ID like REQ-20260101120000-001; " +
			"use it to check the status later.",
		"Parking rates: the first two hours are free, then 5 per hour. " +
			"Monthly passes are available for registered vehicles.",
		"Electric vehicle charging stations are located on level 1, spots 15-20. " +
			"Charging is free while parked with a valid reservation.",
	}
}

// Len returns the number of passages.
func (s *DocumentStore) Len() int {
	return len(s.docs)
}

// Retrieve returns the top-k passages by cosine similarity of token sets.
// Same query, same ranking: ties break on passage index.
func (s *DocumentStore) Retrieve(query string, k int) []Hit {
	queryTokens := tokenize(query)
	if len(queryTokens) == 0 || len(s.docs) == 0 {
		return nil
	}

	hits := make([]Hit, 0, len(s.docs))
	for i, docTokens := range s.tokens {
		hits = append(hits, Hit{
			Index: i,
			Score: cosine(queryTokens, docTokens),
			Text:  s.docs[i],
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score == hits[j].Score {
			return hits[i].Index < hits[j].Index
		}
		return hits[i].Score > hits[j].Score
	})

	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

func tokenize(text string) map[string]bool {
	tokens := make(map[string]bool)
	for _, t := range tokenPattern.FindAllString(strings.ToLower(text), -1) {
		tokens[t] = true
	}
	return tokens
}

func cosine(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	shared := 0
	for t := range a {
		if b[t] {
			shared++
		}
	}
	return float64(shared) / (math.Sqrt(float64(len(a))) * math.Sqrt(float64(len(b))))
}
