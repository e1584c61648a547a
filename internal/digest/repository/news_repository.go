package repository

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"ticker-digest/internal/digest/config"
	"ticker-digest/internal/entity"
	"ticker-digest/pkg/logger"

	"github.com/mmcdole/gofeed"
	"golang.org/x/time/rate"
)

// NewYahooNewsRepository creates a NewsRepository backed by the Yahoo Finance headline RSS feed.
func NewYahooNewsRepository(cfg *config.Config, log *logger.Logger) NewsRepository {
	rpm := cfg.News.MaxRequestPerMinute
	if rpm <= 0 {
		rpm = 60
	}
	requestLimiter := rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1)

	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: cfg.News.Timeout}
	parser.UserAgent = "ticker-digest/" + cfg.App.Version

	return &yahooNewsRepository{
		cfg:            cfg,
		logger:         log,
		parser:         parser,
		requestLimiter: requestLimiter,
	}
}

type yahooNewsRepository struct {
	cfg            *config.Config
	logger         *logger.Logger
	parser         *gofeed.Parser
	requestLimiter *rate.Limiter
}

func (r *yahooNewsRepository) FetchNews(ctx context.Context, ticker string) ([]entity.NewsItem, error) {
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: failed to wait for request limit: %v", ErrFetchFailure, err)
	}

	feedURL := r.feedURL(ticker)
	r.logger.Debug("Fetching news feed", logger.StringField("ticker", ticker), logger.StringField("url", feedURL))

	feed, err := r.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse feed for %s: %v", ErrFetchFailure, ticker, err)
	}

	sort.SliceStable(feed.Items, func(i, j int) bool {
		a, b := feed.Items[i].PublishedParsed, feed.Items[j].PublishedParsed
		if a == nil || b == nil {
			return a != nil
		}
		return a.After(*b)
	})

	items := make([]entity.NewsItem, 0, len(feed.Items))
	for _, item := range feed.Items {
		title := strings.TrimSpace(item.Title)
		link := strings.TrimSpace(item.Link)
		if title == "" || link == "" {
			continue
		}
		items = append(items, entity.NewsItem{Ticker: ticker, Title: title, Link: link})
	}

	if len(items) == 0 {
		r.logger.Info("No news found for ticker", logger.StringField("ticker", ticker))
	}
	return items, nil
}

func (r *yahooNewsRepository) feedURL(ticker string) string {
	q := url.Values{}
	q.Set("s", ticker)
	q.Set("region", r.cfg.News.Region)
	q.Set("lang", r.cfg.News.Lang)
	return r.cfg.News.BaseURL + "?" + q.Encode()
}
