package usecase

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/riskibarqy/last-man-standing/internal/domain/team"
)

const (
	NameMatchExact  = "exact"
	NameMatchAlias  = "alias"
	NameMatchShort  = "short-code"
	NameMatchPrefix = "prefix"
	NameMatchFuzzy  = "fuzzy"
)

// Maximum Levenshtein distance accepted from the fuzzy stage. Anything worse
// is reported unmatched so an operator resolves it by hand.
const fuzzyMaxDistance = 5

// NameResolution is the outcome for one provider name. Matched=false is an
// explicit result, not an error; unmatched names must stay observable.
type NameResolution struct {
	Input   string
	Team    team.Team
	Matched bool
	Method  string
}

// NameResolver maps team names reported by the schedule provider onto the
// catalog. Providers spell clubs differently from the catalog ("Wolverhampton
// Wanderers" vs "Wolves"), so resolution runs staged: exact match, the
// configured alias table, short-code and prefix heuristics, then a bounded
// fuzzy match.
type NameResolver struct {
	aliases map[string]string
}

func NewNameResolver(aliases map[string]string) *NameResolver {
	normalized := make(map[string]string, len(aliases))
	for from, to := range aliases {
		normalized[normalizeTeamName(from)] = to
	}

	return &NameResolver{aliases: normalized}
}

func (r *NameResolver) Resolve(catalog []team.Team, input string) NameResolution {
	out := NameResolution{Input: input}
	name := strings.TrimSpace(input)
	if name == "" || len(catalog) == 0 {
		return out
	}
	normalized := normalizeTeamName(name)

	for _, item := range catalog {
		if normalizeTeamName(item.Name) == normalized {
			out.Team = item
			out.Matched = true
			out.Method = NameMatchExact
			return out
		}
	}

	if target, ok := r.aliases[normalized]; ok {
		targetNorm := normalizeTeamName(target)
		for _, item := range catalog {
			if normalizeTeamName(item.Name) == targetNorm {
				out.Team = item
				out.Matched = true
				out.Method = NameMatchAlias
				return out
			}
		}
	}

	for _, item := range catalog {
		if strings.EqualFold(item.Short, name) {
			out.Team = item
			out.Matched = true
			out.Method = NameMatchShort
			return out
		}
	}

	for _, item := range catalog {
		itemNorm := normalizeTeamName(item.Name)
		if strings.HasPrefix(normalized, itemNorm) || strings.HasPrefix(itemNorm, normalized) {
			out.Team = item
			out.Matched = true
			out.Method = NameMatchPrefix
			return out
		}
	}

	names := make([]string, len(catalog))
	for idx, item := range catalog {
		names[idx] = item.Name
	}
	best := -1
	bestDistance := fuzzyMaxDistance + 1
	for _, rank := range fuzzy.RankFindNormalizedFold(name, names) {
		if rank.Distance < bestDistance {
			bestDistance = rank.Distance
			best = rank.OriginalIndex
		}
	}
	if best >= 0 {
		out.Team = catalog[best]
		out.Matched = true
		out.Method = NameMatchFuzzy
	}

	return out
}

// ResolveAll resolves every input name, preserving order.
func (r *NameResolver) ResolveAll(catalog []team.Team, inputs []string) []NameResolution {
	out := make([]NameResolution, 0, len(inputs))
	for _, input := range inputs {
		out = append(out, r.Resolve(catalog, input))
	}

	return out
}

func normalizeTeamName(value string) string {
	name := strings.ToLower(strings.TrimSpace(value))
	name = strings.ReplaceAll(name, "&", "and")
	return strings.Join(strings.Fields(name), " ")
}
