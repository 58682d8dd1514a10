// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scrape

import (
	"fmt"
	"strings"
	"time"
)

// categoryPrefixes lists arXiv archive prefixes used to tell category codes
// apart from keyword terms in a mixed topic list.
var categoryPrefixes = []string{
	"cs.", "math.", "physics.", "astro-ph", "cond-mat", "quant-ph",
	"stat.", "q-bio.", "econ.", "eess.", "nlin.", "gr-qc", "hep-",
}

// IsCategoryCode reports whether the topic looks like an arXiv category
// code (e.g. "cs.AI") rather than a keyword.
func IsCategoryCode(topic string) bool {
	if topic == "cs" || topic == "math" || topic == "physics" {
		return true
	}
	if !strings.Contains(topic, ".") && !strings.Contains(topic, "-") {
		return false
	}
	for _, prefix := range categoryPrefixes {
		if strings.HasPrefix(topic, prefix) {
			return true
		}
	}
	return false
}

// ClassifyTopics splits a mixed topic list into category codes and keywords.
func ClassifyTopics(topics []string) (categories, keywords []string) {
	for _, t := range topics {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if IsCategoryCode(t) {
			categories = append(categories, t)
		} else {
			keywords = append(keywords, t)
		}
	}
	return categories, keywords
}

const submittedDateFmt = "20060102"

// BuildQuery constructs the arXiv search_query parameter for a profile's
// terms: categories are OR-ed within one group, each keyword must match in
// title or abstract, and author terms are AND-ed in. A non-zero since adds
// a submittedDate window. The returned string is unescaped; the caller
// URL-encodes it.
func BuildQuery(categories, keywords, authors []string, since time.Time) string {
	var parts []string

	if len(categories) > 0 {
		terms := make([]string, len(categories))
		for i, cat := range categories {
			terms[i] = fmt.Sprintf("cat:%q", cat)
		}
		parts = append(parts, "("+strings.Join(terms, " OR ")+")")
	}

	for _, kw := range keywords {
		parts = append(parts, fmt.Sprintf("(ti:%q OR abs:%q)", kw, kw))
	}

	for _, au := range authors {
		parts = append(parts, fmt.Sprintf("au:%q", au))
	}

	query := strings.Join(parts, " AND ")
	if query == "" {
		query = "all"
	}

	if !since.IsZero() {
		query += fmt.Sprintf(" AND submittedDate:[%s* TO *]", since.Format(submittedDateFmt))
	}
	return query
}
