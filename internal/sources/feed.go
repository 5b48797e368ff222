package sources

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/derpledex/databridge/internal/logger"
	"github.com/derpledex/databridge/pkg/source"
)

// ErrMissingFeeds is returned when no feeds are configured.
var ErrMissingFeeds = errors.New("feeds is required in source configuration")

// FeedSpec names a single feed to fetch.
type FeedSpec struct {
	Name string
	URL  string
}

// Feed fetches entries from RSS 2.0 and Atom feeds.
// Each feed entry becomes one record with feed_name, feed_url, title, link,
// summary, author, published, and id fields.
type Feed struct {
	feeds  []FeedSpec
	client *http.Client
}

// NewFeedFromConfig creates a feed source from configuration.
//
// Required config fields:
//   - feeds: List of feed objects with "name" and "url" keys
//
// Optional config fields:
//   - timeout: Request timeout in seconds (default 30)
func NewFeedFromConfig(cfg *source.Config) (*Feed, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}

	feeds := parseFeedSpecs(cfg.Config["feeds"])
	if len(feeds) == 0 {
		return nil, ErrMissingFeeds
	}

	return &Feed{
		feeds:  feeds,
		client: newClient(cfg.Config),
	}, nil
}

// parseFeedSpecs extracts feed specs from a parsed config value.
func parseFeedSpecs(v interface{}) []FeedSpec {
	raw, ok := v.([]interface{})
	if !ok {
		return nil
	}

	specs := make([]FeedSpec, 0, len(raw))
	for _, item := range raw {
		entry, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		spec := FeedSpec{}
		if name, ok := entry["name"].(string); ok {
			spec.Name = name
		}
		if feedURL, ok := entry["url"].(string); ok {
			spec.URL = feedURL
		}
		if spec.URL != "" {
			specs = append(specs, spec)
		}
	}
	return specs
}

// rssDocument mirrors the RSS 2.0 structure we read.
type rssDocument struct {
	XMLName xml.Name `xml:"rss"`
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	Author      string `xml:"author"`
	PubDate     string `xml:"pubDate"`
	GUID        string `xml:"guid"`
}

// atomDocument mirrors the Atom structure we read.
type atomDocument struct {
	XMLName xml.Name    `xml:"feed"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	Title string `xml:"title"`
	Links []struct {
		Href string `xml:"href,attr"`
		Rel  string `xml:"rel,attr"`
	} `xml:"link"`
	Summary string `xml:"summary"`
	Author  struct {
		Name string `xml:"name"`
	} `xml:"author"`
	Published string `xml:"published"`
	Updated   string `xml:"updated"`
	ID        string `xml:"id"`
}

// Fetch retrieves entries from all configured feeds.
func (f *Feed) Fetch(ctx context.Context, params map[string]interface{}) (*source.FetchResult, error) {
	startTime := time.Now()

	feeds := f.feeds
	if override := parseFeedSpecs(params["feeds"]); len(override) > 0 {
		feeds = override
	}

	logger.Info("feed fetch started", "feed_count", len(feeds))

	var records []source.Record
	for _, spec := range feeds {
		feedRecords, err := f.fetchFeed(ctx, spec)
		if err != nil {
			logger.Error("feed fetch failed",
				"feed_name", spec.Name,
				"feed_url", spec.URL,
				"duration", time.Since(startTime),
				"error", err.Error(),
			)
			return nil, fmt.Errorf("fetching feed %q: %w", spec.Name, err)
		}
		records = append(records, feedRecords...)
	}

	logger.Info("feed fetch completed",
		"feed_count", len(feeds),
		"record_count", len(records),
		"duration", time.Since(startTime),
	)

	return &source.FetchResult{Records: records}, nil
}

// fetchFeed fetches and parses one feed. The dialect is decided by the
// document's root element: unmarshalling into rssDocument only succeeds
// for an <rss> root, so an RSS feed with no items still parses as RSS
// instead of falling through to the Atom branch.
func (f *Feed) fetchFeed(ctx context.Context, spec FeedSpec) ([]source.Record, error) {
	body, err := doGet(ctx, f.client, spec.URL)
	if err != nil {
		return nil, err
	}

	var rss rssDocument
	if err := xml.Unmarshal(body, &rss); err == nil {
		records := make([]source.Record, 0, len(rss.Channel.Items))
		for _, item := range rss.Channel.Items {
			id := item.GUID
			if id == "" {
				id = item.Link
			}
			records = append(records, source.Record{Data: map[string]interface{}{
				"feed_name": spec.Name,
				"feed_url":  spec.URL,
				"title":     item.Title,
				"link":      item.Link,
				"summary":   item.Description,
				"author":    item.Author,
				"published": item.PubDate,
				"id":        id,
			}})
		}
		return records, nil
	}

	var atom atomDocument
	if err := xml.Unmarshal(body, &atom); err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}

	records := make([]source.Record, 0, len(atom.Entries))
	for _, entry := range atom.Entries {
		link := ""
		for _, l := range entry.Links {
			if l.Rel == "" || l.Rel == "alternate" {
				link = l.Href
				break
			}
		}
		published := entry.Published
		if published == "" {
			published = entry.Updated
		}
		id := entry.ID
		if id == "" {
			id = link
		}
		records = append(records, source.Record{Data: map[string]interface{}{
			"feed_name": spec.Name,
			"feed_url":  spec.URL,
			"title":     entry.Title,
			"link":      link,
			"summary":   entry.Summary,
			"author":    entry.Author.Name,
			"published": published,
			"id":        id,
		}})
	}
	return records, nil
}

// Close releases resources held by the source.
func (f *Feed) Close() error {
	f.client.CloseIdleConnections()
	return nil
}
