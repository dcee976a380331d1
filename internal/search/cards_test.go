// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/tender-search/pkg/types"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		text string
		want *float64
	}{
		{"1 234 567,89 руб.", types.Float(1234567.89)},
		{"1 000 000,00 ₽", types.Float(1000000)},
		{"500", types.Float(500)},
		{"12.5", types.Float(12.5)},
		{"", nil},
		{"цена не указана", nil},
		{"1.2.3", nil},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := ParsePrice(tt.text)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.want, *got, 1e-9)
		})
	}
}

func TestNormalizeCard(t *testing.T) {
	tests := []struct {
		name    string
		card    Card
		want    types.Record
		wantErr error
	}{
		{
			name: "relative link with purchaseNumber parameter",
			card: Card{
				Href:  "/epz/order/notice/ea20/view/common-info.html?regNumber=1&purchaseNumber=0373100064624000001",
				Title: "  Поставка\n ноутбуков  ",
				Price: "50 000,00 руб.",
				Date:  " 12.03.2024 ",
			},
			want: types.Record{
				PurchaseNumber: "0373100064624000001",
				Title:          "Поставка ноутбуков",
				URL:            "https://zakupki.gov.ru/epz/order/notice/ea20/view/common-info.html?regNumber=1&purchaseNumber=0373100064624000001",
				Price:          types.Float(50000),
				PublishDate:    "12.03.2024",
				Source:         types.SourceExtendedSearch,
			},
		},
		{
			name: "number from long path segment",
			card: Card{Href: "https://zakupki.gov.ru/notice/0373100064624000002", Title: "Принтер"},
			want: types.Record{
				PurchaseNumber: "0373100064624000002",
				Title:          "Принтер",
				URL:            "https://zakupki.gov.ru/notice/0373100064624000002",
				Source:         types.SourceExtendedSearch,
			},
		},
		{
			name: "explicit number wins over href",
			card: Card{Number: "42", Href: "/x?purchaseNumber=99", Title: "Сервер"},
			want: types.Record{
				PurchaseNumber: "42",
				Title:          "Сервер",
				URL:            "https://zakupki.gov.ru/x?purchaseNumber=99",
				Source:         types.SourceExtendedSearch,
			},
		},
		{
			name:    "no link and no number",
			card:    Card{Title: "Orphan"},
			wantErr: errNoLink,
		},
		{
			name:    "no title",
			card:    Card{Href: "/x"},
			wantErr: errNoTitle,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeCard(tt.card, types.SourceExtendedSearch)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeCardsSkipsAndCaps(t *testing.T) {
	cards := []Card{
		{Href: "/a/0000000000000000001", Title: "A"},
		{Title: "broken"},
		{Href: "/a/0000000000000000002", Title: "B"},
		{Href: "/a/0000000000000000003", Title: "C"},
	}
	records, skipped := NormalizeCards(cards, types.SourceDocSearch, 2)
	require.Len(t, records, 2)
	assert.Equal(t, "A", records[0].Title)
	assert.Equal(t, "B", records[1].Title)
	require.Len(t, skipped, 1)
	assert.Equal(t, 1, skipped[0].Index)
	assert.ErrorIs(t, skipped[0], errNoLink)
}

type stubFetcher struct {
	cards []Card
	err   error
}

func (f *stubFetcher) FetchCards(context.Context, Params) ([]Card, error) { return f.cards, f.err }

func TestCardSource(t *testing.T) {
	var log bytes.Buffer
	src := &CardSource{
		ID: types.SourceDocSearch,
		Fetcher: &stubFetcher{cards: []Card{
			{Href: "/a/0000000000000000001", Title: "A"},
			{Href: "/b"},
		}},
		Log: &log,
	}
	assert.Equal(t, types.SourceDocSearch, src.Name())

	records, err := src.Search(context.Background(), Params{Query: "x", Limit: 10})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, types.SourceDocSearch, records[0].Source)
	assert.Contains(t, log.String(), "warning: docSearch: skipped card 1")
}

func TestCardSourceNoResultsIsNotAnError(t *testing.T) {
	src := &CardSource{ID: "a", Fetcher: &stubFetcher{}}
	records, err := src.Search(context.Background(), Params{Query: "x", Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestCardSourceTransportFailure(t *testing.T) {
	cause := errors.New("connection reset")
	src := &CardSource{ID: "a", Fetcher: &stubFetcher{err: cause}}
	_, err := src.Search(context.Background(), Params{Query: "x", Limit: 10})
	assert.ErrorIs(t, err, cause)
}
