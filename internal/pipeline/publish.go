package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/crimson-sun/beacon/internal/engine/cluster"
	"github.com/crimson-sun/beacon/internal/engine/membership"
	"github.com/crimson-sun/beacon/internal/engine/ranker"
	"github.com/crimson-sun/beacon/internal/model"
)

const (
	titleTerms  = 3
	maxEntities = 5
)

var titleCaser = cases.Title(language.English)

// publish turns accepted clusters into stored hotspots and memberships.
// Titles are derived deterministically from the members, so the same
// grouping rediscovered next run upserts onto the same row.
func (r *Runner) publish(ctx context.Context, signals []model.Signal, clusters []model.Cluster, assignments []membership.Assignment, res *model.BatchResult) error {
	byID := make(map[string]model.Signal, len(signals))
	for _, s := range signals {
		byID[s.ID] = s
	}
	byCluster := make(map[int][]membership.Assignment)
	for _, a := range assignments {
		byCluster[a.Cluster] = append(byCluster[a.Cluster], a)
	}
	now := r.now()

	for _, c := range clusters {
		members := make([]model.Signal, 0, len(c.SignalIDs))
		for _, id := range c.SignalIDs {
			if s, ok := byID[id]; ok {
				members = append(members, s)
			}
		}
		score := r.ranker.ScoreCluster(c, members)

		h := model.Hotspot{
			Title:           titleFor(c, members),
			Summary:         summaryFor(c, score),
			RankScore:       score.Total,
			Confidence:      c.Confidence,
			Method:          cluster.Method,
			LinkedEntities:  linkedEntities(members),
			MemberCount:     c.Size(),
			LastClusteredAt: now,
		}
		stored, err := r.store.UpsertHotspot(ctx, h)
		if err != nil {
			return fmt.Errorf("upsert hotspot %q: %w", h.Title, err)
		}

		ms := make([]model.Membership, 0, len(byCluster[c.Index]))
		for _, a := range byCluster[c.Index] {
			ms = append(ms, model.Membership{
				HotspotID: stored.ID,
				SignalID:  a.SignalID,
				Strength:  a.Strength,
				Band:      a.Band,
				IsOutlier: a.Band == model.BandOutlier,
			})
		}
		if err := r.store.ReplaceMemberships(ctx, stored.ID, ms); err != nil {
			return fmt.Errorf("memberships for %q: %w", h.Title, err)
		}

		res.Hotspots = append(res.Hotspots, stored)
		res.Memberships = append(res.Memberships, ms...)
	}
	return nil
}

// titleFor builds a stable human-readable title: the dominant cause plus
// the most recurring terms across member titles.
func titleFor(c model.Cluster, members []model.Signal) string {
	label := titleCaser.String(strings.ToLower(string(c.DominantCause)))
	terms := topTerms(members, titleTerms)
	if len(terms) == 0 {
		return fmt.Sprintf("%s signals", label)
	}
	return fmt.Sprintf("%s: %s", label, strings.Join(terms, ", "))
}

func summaryFor(c model.Cluster, score ranker.Score) string {
	return fmt.Sprintf("%d related signals, dominant cause %s, cohesion %.2f, rank %.2f",
		c.Size(), c.DominantCause, c.Cohesion, score.Total)
}

// linkedEntities surfaces organizational units that recur across members.
func linkedEntities(members []model.Signal) []string {
	counts := make(map[string]int)
	for _, m := range members {
		for _, v := range []string{m.Department, m.Team, m.Category} {
			if v != "" {
				counts[strings.ToLower(v)]++
			}
		}
	}
	var out []string
	for v, n := range counts {
		if n >= 2 {
			out = append(out, v)
		}
	}
	sort.Strings(out)
	if len(out) > maxEntities {
		out = out[:maxEntities]
	}
	return out
}

var titleStopwords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "from": true,
	"are": true, "our": true, "has": true, "have": true, "not": true,
	"that": true, "this": true, "was": true, "were": true, "been": true,
	"too": true, "all": true, "its": true, "but": true, "when": true,
}

// topTerms returns the n most frequent meaningful tokens across member
// titles, most frequent first, ties alphabetical.
func topTerms(members []model.Signal, n int) []string {
	counts := make(map[string]int)
	for _, m := range members {
		seen := make(map[string]bool)
		toks := strings.FieldsFunc(strings.ToLower(m.Title), func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		for _, tok := range toks {
			if len(tok) < 3 || titleStopwords[tok] || seen[tok] {
				continue
			}
			seen[tok] = true
			counts[tok]++
		}
	}

	terms := make([]string, 0, len(counts))
	for t := range counts {
		terms = append(terms, t)
	}
	sort.Slice(terms, func(i, j int) bool {
		if counts[terms[i]] != counts[terms[j]] {
			return counts[terms[i]] > counts[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > n {
		terms = terms[:n]
	}
	return terms
}
