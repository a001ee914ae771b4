package services

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"crypto-pulse-service/internal/domain/entities"
)

// MinSearchLength is the shortest query sent upstream
const MinSearchLength = 2

// SearchEnabled reports whether query is long enough to search
func SearchEnabled(query string) bool {
	return len([]rune(strings.TrimSpace(query))) >= MinSearchLength
}

// RankSearchResults orders search hits by how closely the name or symbol
// matches query. Equal scores keep market cap order, unranked coins last.
func RankSearchResults(query string, coins []entities.SearchCoin) []entities.SearchCoin {
	if len(coins) == 0 {
		return coins
	}
	query = strings.ToLower(strings.TrimSpace(query))

	type rankedCoin struct {
		coin  entities.SearchCoin
		score int
	}
	ranked := make([]rankedCoin, len(coins))
	for i, c := range coins {
		score := matchScore(strings.ToLower(c.Symbol), query)
		if s := matchScore(strings.ToLower(c.Name), query); s < score {
			score = s
		}
		ranked[i] = rankedCoin{coin: c, score: score}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score < ranked[j].score
		}
		return rankOf(ranked[i].coin) < rankOf(ranked[j].coin)
	})

	out := make([]entities.SearchCoin, len(ranked))
	for i, r := range ranked {
		out[i] = r.coin
	}
	return out
}

// matchScore: lower is better
func matchScore(target, query string) int {
	switch {
	case target == query:
		return 0
	case strings.HasPrefix(target, query):
		return 10
	case strings.Contains(target, query):
		return 50
	case fuzzy.MatchFold(query, target):
		return 75
	default:
		return 100 + fuzzy.LevenshteinDistance(query, target)
	}
}

func rankOf(c entities.SearchCoin) int {
	if c.MarketCapRank == nil || *c.MarketCapRank <= 0 {
		return int(^uint(0) >> 1)
	}
	return *c.MarketCapRank
}
