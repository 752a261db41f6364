// Package feed ingests podcast RSS/Atom feeds into the player's episode
// model.
package feed

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/lingopod/engine/internal/domain"
	"github.com/lingopod/engine/internal/errors"
)

// Parser fetches and parses podcast feeds.
type Parser struct {
	parser *gofeed.Parser
	logger *slog.Logger
}

// NewParser creates a feed parser.
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Parser{parser: gofeed.NewParser(), logger: logger}
}

// Parse fetches the feed at url and returns its playable episodes. Items
// without an audio enclosure are skipped; a feed with zero playable items is
// still a valid (empty) result.
func (p *Parser) Parse(ctx context.Context, url string) ([]domain.Episode, error) {
	feed, err := p.parser.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeValidation, "feed %s could not be parsed", url)
	}

	channelImage := ""
	if feed.Image != nil {
		channelImage = feed.Image.URL
	}
	if feed.ITunesExt != nil && feed.ITunesExt.Image != "" {
		channelImage = feed.ITunesExt.Image
	}

	episodes := make([]domain.Episode, 0, len(feed.Items))
	for _, item := range feed.Items {
		audioURL := enclosureAudioURL(item)
		if audioURL == "" {
			p.logger.Debug("feed item without audio enclosure skipped", "feed", url, "title", item.Title)
			continue
		}
		episodes = append(episodes, domain.Episode{
			GUID:         item.GUID,
			Title:        item.Title,
			AudioURL:     audioURL,
			ChannelName:  feed.Title,
			ChannelImage: channelImage,
			Duration:     itemDuration(item),
		})
	}
	return episodes, nil
}

// enclosureAudioURL picks the first audio enclosure of the item. Feeds that
// omit the enclosure type still count when it is the only enclosure.
func enclosureAudioURL(item *gofeed.Item) string {
	for _, enc := range item.Enclosures {
		if enc == nil || enc.URL == "" {
			continue
		}
		if enc.Type == "" || strings.HasPrefix(enc.Type, "audio/") {
			return enc.URL
		}
	}
	return ""
}

// itemDuration reads the itunes:duration tag, which is either plain seconds
// or a HH:MM:SS clock value. 0 means unknown.
func itemDuration(item *gofeed.Item) float64 {
	if item.ITunesExt == nil || item.ITunesExt.Duration == "" {
		return 0
	}
	raw := strings.TrimSpace(item.ITunesExt.Duration)

	if !strings.Contains(raw, ":") {
		seconds, err := strconv.ParseFloat(raw, 64)
		if err != nil || seconds < 0 {
			return 0
		}
		return seconds
	}

	parts := strings.Split(raw, ":")
	if len(parts) > 3 {
		return 0
	}
	total := 0.0
	for _, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil || v < 0 {
			return 0
		}
		total = total*60 + v
	}
	return total
}
