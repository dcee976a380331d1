// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/pdiddy/tender-search/pkg/types"
)

// PortalBase is the origin relative card links are resolved against.
const PortalBase = "https://zakupki.gov.ru"

// Card is a raw result card as lifted from a portal page by the external
// scraper. Every field is untrimmed page text.
type Card struct {
	Number string `json:"number,omitempty"`
	Href   string `json:"href"`
	Title  string `json:"title"`
	Price  string `json:"price,omitempty"`
	Date   string `json:"date,omitempty"`
}

// CardFetcher retrieves raw cards for one backend page flow, up to
// params.Limit cards.
type CardFetcher interface {
	FetchCards(ctx context.Context, params Params) ([]Card, error)
}

var (
	errNoLink  = errors.New("card has neither a link nor a purchase number")
	errNoTitle = errors.New("card has no title")
)

// CardError describes a card that could not be normalized.
type CardError struct {
	Index int
	Err   error
}

func (e *CardError) Error() string { return fmt.Sprintf("card %d: %v", e.Index, e.Err) }

func (e *CardError) Unwrap() error { return e.Err }

var purchaseNumberRe = regexp.MustCompile(`purchaseNumber=(\d+)|/(\d{19,})`)

// NormalizeCard converts a raw card into a Record tagged with source.
func NormalizeCard(c Card, source string) (types.Record, error) {
	href := strings.TrimSpace(c.Href)
	number := strings.TrimSpace(c.Number)
	if number == "" {
		number = purchaseNumberFromHref(href)
	}
	if href == "" && number == "" {
		return types.Record{}, errNoLink
	}

	title := collapseSpace(c.Title)
	if title == "" {
		return types.Record{}, errNoTitle
	}

	link, err := absoluteURL(href)
	if err != nil {
		return types.Record{}, fmt.Errorf("resolving link %q: %w", href, err)
	}

	return types.Record{
		PurchaseNumber: number,
		Title:          title,
		URL:            link,
		Price:          ParsePrice(c.Price),
		PublishDate:    collapseSpace(c.Date),
		Source:         source,
	}, nil
}

// purchaseNumberFromHref extracts the registry number from a card link,
// either from the purchaseNumber query parameter or a long numeric path
// segment.
func purchaseNumberFromHref(href string) string {
	m := purchaseNumberRe.FindStringSubmatch(href)
	if m == nil {
		return ""
	}
	if m[1] != "" {
		return m[1]
	}
	return m[2]
}

func absoluteURL(href string) (string, error) {
	if href == "" {
		return "", nil
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", err
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}
	base, _ := url.Parse(PortalBase)
	return base.ResolveReference(ref).String(), nil
}

// ParsePrice extracts a numeric amount from portal price text such as
// "1 234 567,89 руб.". It returns nil when no number can be read.
func ParsePrice(text string) *float64 {
	var b strings.Builder
	for _, r := range text {
		switch {
		case r >= '0' && r <= '9', r == '.':
			b.WriteRune(r)
		case r == ',':
			b.WriteRune('.')
		}
	}
	cleaned := strings.Trim(b.String(), ".")
	if cleaned == "" {
		return nil
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	return &v
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// CardSource adapts a CardFetcher into a Source with a fixed identifier.
type CardSource struct {
	ID      string
	Fetcher CardFetcher

	// Log receives warnings about skipped cards; nil discards them.
	Log io.Writer
}

// Name returns the source identifier.
func (s *CardSource) Name() string { return s.ID }

// Search fetches cards and normalizes them, skipping cards that cannot be
// read. The result never exceeds params.Limit records.
func (s *CardSource) Search(ctx context.Context, params Params) ([]types.Record, error) {
	cards, err := s.Fetcher.FetchCards(ctx, params)
	if err != nil {
		return nil, err
	}

	records, skipped := NormalizeCards(cards, s.ID, params.Limit)
	w := s.Log
	if w == nil {
		w = io.Discard
	}
	for _, ce := range skipped {
		fmt.Fprintf(w, "warning: %s: skipped %v\n", s.ID, ce)
	}
	return records, nil
}

// NormalizeCards normalizes cards in order until limit records are
// collected (limit <= 0 means no cap). Unreadable cards are returned as
// CardErrors instead of records.
func NormalizeCards(cards []Card, source string, limit int) ([]types.Record, []*CardError) {
	var (
		records []types.Record
		skipped []*CardError
	)
	for i, c := range cards {
		if limit > 0 && len(records) >= limit {
			break
		}
		r, err := NormalizeCard(c, source)
		if err != nil {
			skipped = append(skipped, &CardError{Index: i, Err: err})
			continue
		}
		records = append(records, r)
	}
	return records, skipped
}
