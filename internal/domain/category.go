package domain

import "strings"

// Category buckets a market for display filtering.
type Category string

const (
	CategoryCrypto   Category = "CRYPTO"
	CategoryPolitics Category = "POLITICS"
	CategorySports   Category = "SPORTS"
	CategoryNews     Category = "NEWS"
)

// categoryRule is one ordered keyword group. Groups are evaluated in slice
// order and the first group containing a matching keyword wins, so an
// ambiguous slug (e.g. a politician's name next to "market-cap") resolves to
// the earlier, higher-priority category.
type categoryRule struct {
	category Category
	keywords []string
}

var categoryRules = []categoryRule{
	{
		category: CategoryPolitics,
		keywords: []string{
			"trump", "biden", "harris", "election", "republican", "democrat",
			"senate", "house", "president", "nominee", "cabinet", "confirm",
			"vote", "policy", "poll", "approval", "regulation", "law",
			"court", "supreme", "congress", "parliament", "minister", "war",
			"israel", "ukraine", "china", "nato", "un ", "musk", "rfk",
			"vivek",
		},
	},
	{
		category: CategorySports,
		keywords: []string{
			"nfl", "nba", "soccer", "league", "cup", "sport", "fight",
			"boxing", "ufc", "mma", "formula", "f1", "champion", "winner",
			"score", "vs", "fc ", "united", "real madrid", "barcelona",
			"liverpool", "city", "chelsea", "arsenal", "goal", "points",
			"touchdown", "over/under", "handicap",
		},
	},
	{
		category: CategoryCrypto,
		keywords: []string{
			"bitcoin", "ethereum", "solana", "crypto", "token", "price",
			"coin", "market", "etf", "btc", "eth", "sol", "memecoin",
			"pepe", "doge", "bonk", "wif", "fed ", "rates", "inflation",
		},
	},
}

// ClassifySlug maps a market slug (or title) to a Category via ordered
// case-insensitive substring rules. Slugs matching no group fall back to
// CategoryNews.
func ClassifySlug(slug string) Category {
	s := strings.ToLower(slug)
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(s, kw) {
				return rule.category
			}
		}
	}
	return CategoryNews
}
