package cryptopanic

import (
	"time"

	"crypto-pulse-service/internal/domain/entities"
)

// FallbackNews is served when no API key is configured or the feed fails,
// so the news panel never stays empty. Timestamps are relative to now.
func FallbackNews(now time.Time) []entities.NewsItem {
	item := func(id int64, domain, source, title, slug string, age time.Duration, votes entities.NewsVotes, currencies ...entities.NewsCurrency) entities.NewsItem {
		return entities.NewsItem{
			Kind:        "news",
			Domain:      domain,
			Source:      entities.NewsSource{Title: source, Region: "en", Domain: domain},
			Title:       title,
			PublishedAt: now.Add(-age),
			Slug:        slug,
			ID:          id,
			URL:         "#",
			CreatedAt:   now,
			Votes:       votes,
			Currencies:  currencies,
		}
	}

	btc := entities.NewsCurrency{Code: "BTC", Title: "Bitcoin", Slug: "bitcoin", URL: "#"}
	eth := entities.NewsCurrency{Code: "ETH", Title: "Ethereum", Slug: "ethereum", URL: "#"}
	sol := entities.NewsCurrency{Code: "SOL", Title: "Solana", Slug: "solana", URL: "#"}

	return []entities.NewsItem{
		item(1, "coindesk.com", "CoinDesk",
			"Bitcoin Surges Past Key Resistance Level as Institutional Interest Grows", "bitcoin-surges",
			30*time.Minute,
			entities.NewsVotes{Negative: 2, Positive: 45, Important: 12, Liked: 30, Disliked: 1, Saved: 8, Comments: 15},
			btc),
		item(2, "decrypt.co", "Decrypt",
			"Ethereum Layer 2 Solutions See Record Transaction Volume", "ethereum-l2",
			2*time.Hour,
			entities.NewsVotes{Negative: 1, Positive: 32, Important: 8, Liked: 22, Saved: 5, Comments: 9},
			eth),
		item(3, "cointelegraph.com", "Cointelegraph",
			"Major Bank Announces Crypto Custody Services for Institutional Clients", "bank-custody",
			4*time.Hour,
			entities.NewsVotes{Negative: 5, Positive: 28, Important: 15, Liked: 18, Disliked: 3, Saved: 12, Comments: 22}),
		item(4, "theblock.co", "The Block",
			"Solana DeFi TVL Hits New All-Time High Amid Network Upgrades", "solana-defi",
			6*time.Hour,
			entities.NewsVotes{Positive: 41, Important: 6, Liked: 35, Saved: 9, Comments: 11},
			sol),
		item(5, "bitcoinmagazine.com", "Bitcoin Magazine",
			"Lightning Network Capacity Reaches Record 5,000 BTC", "lightning-capacity",
			8*time.Hour,
			entities.NewsVotes{Negative: 1, Positive: 55, Important: 20, Liked: 42, Disliked: 2, Saved: 15, Comments: 18},
			btc),
	}
}
