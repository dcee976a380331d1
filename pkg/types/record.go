// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the tender-search pipeline.
// Record is the canonical search result that crosses every stage boundary:
// source adapters produce it, the reconciler merges it, the scorer annotates
// it, and exporters and delivery consume it.
package types

// Source identifiers for the two procurement portal backends.
const (
	SourceDocSearch      = "docSearch"
	SourceExtendedSearch = "extendedsearch"
)

// Canonical field names in export order.
const (
	FieldPurchaseNumber = "purchase_number"
	FieldTitle          = "title"
	FieldURL            = "url"
	FieldPrice          = "price"
	FieldPublishDate    = "publish_date"
	FieldSource         = "source"
	FieldRelevanceScore = "relevance_score"
)

// BaseFields lists the fields every Record carries, in stable order.
var BaseFields = []string{
	FieldPurchaseNumber,
	FieldTitle,
	FieldURL,
	FieldPrice,
	FieldPublishDate,
	FieldSource,
}

// Record is one procurement listing returned by a source adapter.
type Record struct {
	// PurchaseNumber is the registry number of the purchase; may be empty.
	PurchaseNumber string `json:"purchase_number" yaml:"purchase_number"`

	// Title is the purchase subject as shown on the portal.
	Title string `json:"title" yaml:"title"`

	// URL is the canonical link to the purchase card.
	URL string `json:"url" yaml:"url"`

	// Price is the currency-less amount; nil when the portal shows none.
	Price *float64 `json:"price" yaml:"price"`

	// PublishDate is kept in the textual form the adapter emitted.
	PublishDate string `json:"publish_date" yaml:"publish_date"`

	// Source identifies the adapter that produced the record.
	Source string `json:"source" yaml:"source"`

	// RelevanceScore lies in [0, 1]; nil until the scorer runs.
	RelevanceScore *float64 `json:"relevance_score,omitempty" yaml:"relevance_score,omitempty"`
}

// Collection is an ordered set of uniformly shaped records. Scored reports
// whether the relevance_score field belongs to the shape, which matters for
// empty collections that have no rows to inspect.
type Collection struct {
	Records []Record `json:"records" yaml:"records"`
	Scored  bool     `json:"scored" yaml:"scored"`
}

// Fields returns the column set of the collection in export order.
func (c Collection) Fields() []string {
	fields := make([]string, len(BaseFields), len(BaseFields)+1)
	copy(fields, BaseFields)
	if c.Scored {
		fields = append(fields, FieldRelevanceScore)
	}
	return fields
}

// Len returns the number of records.
func (c Collection) Len() int { return len(c.Records) }

// Float returns a pointer to v, for populating nullable fields.
func Float(v float64) *float64 { return &v }
