// Package jobmatch scores how alike two job postings are by keyword overlap.
package jobmatch

import (
	"regexp"
	"sort"
	"strings"

	"github.com/eqzhou81/CPEN-321-sub000/pkg/model"
)

var (
	wordRe = regexp.MustCompile(`[a-z0-9+#.]+`)

	skillRe = regexp.MustCompile(`(?i)\b(?:golang|python|java|javascript|typescript|node\.?js|react|angular|vue|kotlin|swift|rust|ruby|php|scala|sql|postgres(?:ql)?|mysql|mongodb|redis|kafka|docker|kubernetes|aws|gcp|azure|terraform|graphql|grpc|microservices|linux|git|spark|pandas|tensorflow|pytorch)\b|\bc(?:\+\+|#)`)
)

var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "the": true, "of": true, "to": true,
	"in": true, "for": true, "with": true, "on": true, "at": true, "or": true,
	"is": true, "are": true, "be": true, "as": true, "we": true, "you": true,
	"our": true, "your": true, "will": true, "this": true, "that": true,
}

// Tokens returns the distinct, lower-cased, non-stopword terms of text.
func Tokens(text string) map[string]bool {
	out := map[string]bool{}
	for _, w := range wordRe.FindAllString(strings.ToLower(text), -1) {
		w = strings.Trim(w, ".")
		if (len(w) < 2 && w != "c") || stopwords[w] {
			continue
		}
		out[w] = true
	}
	return out
}

// ExtractSkills finds well-known technology names in text, in first-seen
// order and without duplicates.
func ExtractSkills(text string) []string {
	seen := map[string]bool{}
	var skills []string
	for _, m := range skillRe.FindAllString(text, -1) {
		key := strings.ToLower(m)
		if seen[key] {
			continue
		}
		seen[key] = true
		skills = append(skills, key)
	}
	return skills
}

// Jaccard is |a∩b| / |a∪b|, 0 for two empty sets.
func Jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for k := range a {
		if b[k] {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

func keywords(j *model.JobApplication) map[string]bool {
	set := Tokens(j.Title)
	for _, s := range j.Skills {
		for k := range Tokens(s) {
			set[k] = true
		}
	}
	for _, r := range j.Requirements {
		for k := range Tokens(r) {
			set[k] = true
		}
	}
	return set
}

// Score is a similarity in [0,1]: title/skill/requirement overlap weighted
// 0.8, plus 0.1 each for the same company and the same location.
func Score(a, b *model.JobApplication) float64 {
	score := 0.8 * Jaccard(keywords(a), keywords(b))

	if strings.EqualFold(strings.TrimSpace(a.Company), strings.TrimSpace(b.Company)) {
		score += 0.1
	}
	if a.Location != nil && b.Location != nil &&
		strings.EqualFold(strings.TrimSpace(*a.Location), strings.TrimSpace(*b.Location)) {
		score += 0.1
	}
	return score
}

// Rank scores candidates against target, drops target itself and anything
// scoring below minScore, and returns at most limit results, best first.
func Rank(target *model.JobApplication, candidates []model.JobApplication, minScore float64, limit int) []model.SimilarJob {
	out := make([]model.SimilarJob, 0, len(candidates))
	for _, c := range candidates {
		if c.JobID == target.JobID {
			continue
		}
		s := Score(target, &c)
		if s < minScore {
			continue
		}
		out = append(out, model.SimilarJob{Job: c, Score: s})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
