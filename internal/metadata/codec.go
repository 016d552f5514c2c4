// Package metadata encodes structured item metadata into the free-text notes
// column of an inventory item. The envelope is a versioned JSON wrapper so the
// schema can evolve without database migrations; all validation happens on the
// read path and decoding never fails.
package metadata

import (
	"encoding/json"
	"math"
	"strings"
)

// CurrentVersion is the envelope version written by Encode. Versions 1-4 are
// all accepted on decode.
const CurrentVersion = 4

// Item listing status values.
const (
	StatusUnlisted = "UNLISTED"
	StatusListed   = "LISTED"
	StatusSold     = "SOLD"
)

// Marketplace platform values. Unknown platforms normalize to PlatformOther.
const (
	PlatformEbay     = "EBAY"
	PlatformVinted   = "VINTED"
	PlatformDepop    = "DEPOP"
	PlatformEtsy     = "ETSY"
	PlatformFacebook = "FACEBOOK"
	PlatformGumtree  = "GUMTREE"
	PlatformOther    = "OTHER"
)

// Listing is a marketplace listing attached to an item. The first listing is
// the authoritative sale price when the item is LISTED or SOLD.
type Listing struct {
	Platform   string `json:"platform"`
	URL        string `json:"url"`
	PricePence *int64 `json:"pricePence"`
}

// Meta is the normalized metadata carried by the envelope. Every field has a
// defined default, so a zero RawMeta normalizes to a usable value.
type Meta struct {
	Currency           string    `json:"currency"`
	Status             string    `json:"status"`
	Category           *string   `json:"category"`
	Condition          *string   `json:"condition"`
	PurchaseTotalPence int64     `json:"purchaseTotalPence"`
	EstimatedSalePence *int64    `json:"estimatedSalePence"`
	Listings           []Listing `json:"listings"`
}

// RawMeta is the wire shape of the meta object before normalization. Numeric
// fields are floats because JSON gives no integer guarantee, and the legacy
// expectedBest/expectedWorst fields from envelope versions 1-2 are retained
// for the fallback chain.
type RawMeta struct {
	Currency           *string      `json:"currency"`
	Status             *string      `json:"status"`
	Category           *string      `json:"category"`
	Condition          *string      `json:"condition"`
	PurchaseTotalPence *float64     `json:"purchaseTotalPence"`
	EstimatedSalePence *float64     `json:"estimatedSalePence"`
	ExpectedBestPence  *float64     `json:"expectedBestPence"`
	ExpectedWorstPence *float64     `json:"expectedWorstPence"`
	Listings           []RawListing `json:"listings"`
}

// RawListing is a listing entry before normalization.
type RawListing struct {
	Platform   *string  `json:"platform"`
	URL        *string  `json:"url"`
	PricePence *float64 `json:"pricePence"`
}

type envelope struct {
	V     int    `json:"v"`
	Notes string `json:"notes"`
	Meta  Meta   `json:"meta"`
}

type rawEnvelope struct {
	V     *int    `json:"v"`
	Notes *string `json:"notes"`
	Meta  RawMeta `json:"meta"`
}

// Encode wraps plain notes and normalized metadata in the current envelope
// version. Callers are expected to pass meta through Normalize first.
func Encode(plainNotes string, meta Meta) string {
	b, err := json.Marshal(envelope{
		V:     CurrentVersion,
		Notes: strings.TrimSpace(plainNotes),
		Meta:  meta,
	})
	if err != nil {
		// Meta contains only marshalable types; keep the notes if this
		// somehow happens.
		return strings.TrimSpace(plainNotes)
	}
	return string(b)
}

// Decode parses an envelope out of a notes string. Anything that is not a
// recognizable envelope — empty input, non-JSON text, JSON that is not an
// object, or an unknown version tag — degrades to the raw string as plain
// notes with default metadata. Decode never fails.
func Decode(raw string) (string, Meta) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || !strings.HasPrefix(trimmed, "{") {
		return raw, Normalize(RawMeta{})
	}

	var env rawEnvelope
	if err := json.Unmarshal([]byte(trimmed), &env); err != nil {
		return raw, Normalize(RawMeta{})
	}
	if env.V == nil || *env.V < 1 || *env.V > CurrentVersion {
		return raw, Normalize(RawMeta{})
	}

	notes := ""
	if env.Notes != nil {
		notes = *env.Notes
	}
	return notes, Normalize(env.Meta)
}

// Normalize fills every metadata field with its default and applies the
// legacy fallback chain for the estimated sale price: estimatedSalePence,
// then expectedBestPence, then expectedWorstPence, else null. Listing entries
// with neither a URL nor a finite price are dropped.
func Normalize(raw RawMeta) Meta {
	m := Meta{
		Currency: "GBP",
		Status:   StatusUnlisted,
	}

	if raw.Currency != nil {
		if code := strings.ToUpper(strings.TrimSpace(*raw.Currency)); len(code) == 3 {
			m.Currency = code
		}
	}
	if raw.Status != nil {
		switch strings.ToUpper(strings.TrimSpace(*raw.Status)) {
		case StatusListed:
			m.Status = StatusListed
		case StatusSold:
			m.Status = StatusSold
		}
	}

	m.Category = cleanString(raw.Category)
	m.Condition = cleanString(raw.Condition)

	if p := toPence(raw.PurchaseTotalPence); p != nil && *p > 0 {
		m.PurchaseTotalPence = *p
	}

	if p := toPence(raw.EstimatedSalePence); p != nil {
		m.EstimatedSalePence = p
	} else if p := toPence(raw.ExpectedBestPence); p != nil {
		m.EstimatedSalePence = p
	} else if p := toPence(raw.ExpectedWorstPence); p != nil {
		m.EstimatedSalePence = p
	}

	for _, l := range raw.Listings {
		url := ""
		if l.URL != nil {
			url = strings.TrimSpace(*l.URL)
		}
		price := toPence(l.PricePence)
		if url == "" && price == nil {
			continue
		}
		m.Listings = append(m.Listings, Listing{
			Platform:   NormalizePlatform(stringValue(l.Platform)),
			URL:        url,
			PricePence: price,
		})
	}

	return m
}

// NormalizePlatform maps free-form platform names onto the known platform
// set, defaulting to OTHER.
func NormalizePlatform(platform string) string {
	switch strings.ToUpper(strings.TrimSpace(platform)) {
	case PlatformEbay:
		return PlatformEbay
	case PlatformVinted:
		return PlatformVinted
	case PlatformDepop:
		return PlatformDepop
	case PlatformEtsy:
		return PlatformEtsy
	case PlatformFacebook:
		return PlatformFacebook
	case PlatformGumtree:
		return PlatformGumtree
	default:
		return PlatformOther
	}
}

func cleanString(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// toPence converts a wire float to integer minor units, treating non-finite
// values as absent.
func toPence(v *float64) *int64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	p := int64(math.Round(*v))
	return &p
}
