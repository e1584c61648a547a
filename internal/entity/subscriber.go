package entity

// Subscriber is a user eligible for a digest run: it always carries at least one ticker.
type Subscriber struct {
	ChatID   int64
	Language Language
	Tickers  []string
}

// NewsItem is a headline fetched for a ticker. It is never persisted.
type NewsItem struct {
	Ticker string
	Title  string
	Link   string
}
