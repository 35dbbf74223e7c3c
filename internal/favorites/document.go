package favorites

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// CurrentVersion is the schema version written by this package.
const CurrentVersion = 1

// dateLayout is the on-disk dateAdded format: UTC RFC 3339 with milliseconds.
const dateLayout = "2006-01-02T15:04:05.000Z07:00"

// maxSafeInteger is the largest integer a JSON number holds without loss.
const maxSafeInteger = 1<<53 - 1

// FavoriteFeed is one saved podcast.
type FavoriteFeed struct {
	Name      string `json:"name"`
	URL       string `json:"url"`
	FeedID    int64  `json:"feedId"`
	DateAdded string `json:"dateAdded"`
}

// AddedAt parses DateAdded. The zero time is returned for unparseable values.
func (f FavoriteFeed) AddedAt() time.Time {
	t, err := parseDate(f.DateAdded)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Document is the whole favorites.json payload.
type Document struct {
	Version int            `json:"version"`
	Feeds   []FavoriteFeed `json:"feeds"`
}

// NewDocument returns an empty document at the current schema version.
func NewDocument() Document {
	return Document{Version: CurrentVersion, Feeds: []FavoriteFeed{}}
}

// FormatDate renders t in the on-disk dateAdded format.
func FormatDate(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}

// EncodeDocument marshals doc with two-space indentation and a trailing newline.
func EncodeDocument(doc Document) ([]byte, error) {
	if doc.Version == 0 {
		doc.Version = CurrentVersion
	}
	if doc.Feeds == nil {
		doc.Feeds = []FavoriteFeed{}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// DecodeDocument parses and validates a favorites document. Failures are
// returned as *ValidationError naming the tier that rejected the input.
func DecodeDocument(data []byte) (Document, error) {
	if !json.Valid(data) {
		return Document{}, &ValidationError{Tier: TierSyntax, Reason: "file is not valid JSON"}
	}

	var top map[string]json.RawMessage
	if kindOf(data) != "object" || json.Unmarshal(data, &top) != nil {
		return Document{}, structureError("", "document must be a JSON object")
	}

	versionRaw, ok := top["version"]
	if !ok {
		return Document{}, structureError("version", "required field missing")
	}
	if kindOf(versionRaw) != "number" {
		return Document{}, structureError("version", "must be a number")
	}
	version, err := positiveInt(versionRaw)
	if err != nil {
		return Document{}, semanticError("version", err.Error())
	}

	feedsRaw, ok := top["feeds"]
	if !ok {
		return Document{}, structureError("feeds", "required field missing")
	}
	if kindOf(feedsRaw) != "array" {
		return Document{}, structureError("feeds", "must be an array")
	}
	var items []json.RawMessage
	if err := json.Unmarshal(feedsRaw, &items); err != nil {
		return Document{}, structureError("feeds", "must be an array")
	}

	doc := Document{Version: int(version), Feeds: make([]FavoriteFeed, 0, len(items))}
	for i, item := range items {
		feed, err := decodeFeed(i, item)
		if err != nil {
			return Document{}, err
		}
		doc.Feeds = append(doc.Feeds, feed)
	}
	return doc, nil
}

func decodeFeed(index int, raw json.RawMessage) (FavoriteFeed, error) {
	prefix := fmt.Sprintf("feeds[%d]", index)
	var fields map[string]json.RawMessage
	if kindOf(raw) != "object" || json.Unmarshal(raw, &fields) != nil {
		return FavoriteFeed{}, structureError(prefix, "feed entry must be an object")
	}

	var feed FavoriteFeed
	var err error
	if feed.Name, err = stringField(fields, prefix, "name"); err != nil {
		return FavoriteFeed{}, err
	}
	if feed.URL, err = stringField(fields, prefix, "url"); err != nil {
		return FavoriteFeed{}, err
	}
	if feed.DateAdded, err = stringField(fields, prefix, "dateAdded"); err != nil {
		return FavoriteFeed{}, err
	}
	idRaw, ok := fields["feedId"]
	if !ok {
		return FavoriteFeed{}, structureError(prefix+".feedId", "required field missing")
	}
	if kindOf(idRaw) != "number" {
		return FavoriteFeed{}, structureError(prefix+".feedId", "must be a number")
	}

	if strings.TrimSpace(feed.Name) == "" {
		return FavoriteFeed{}, semanticError(prefix+".name", "must not be empty")
	}
	if feed.FeedID, err = positiveInt(idRaw); err != nil {
		return FavoriteFeed{}, semanticError(prefix+".feedId", err.Error())
	}
	if _, err := parseDate(feed.DateAdded); err != nil {
		return FavoriteFeed{}, semanticError(prefix+".dateAdded", err.Error())
	}
	return feed, nil
}

func stringField(fields map[string]json.RawMessage, prefix, name string) (string, error) {
	raw, ok := fields[name]
	if !ok {
		return "", structureError(prefix+"."+name, "required field missing")
	}
	if kindOf(raw) != "string" {
		return "", structureError(prefix+"."+name, "must be a string")
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", structureError(prefix+"."+name, "must be a string")
	}
	return value, nil
}

func positiveInt(raw json.RawMessage) (int64, error) {
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, errors.New("must be a number")
	}
	f, err := n.Float64()
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, errors.New("must be a finite number")
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("must be an integer, got %s", n.String())
	}
	if f < 1 {
		return 0, fmt.Errorf("must be positive, got %s", n.String())
	}
	if f > maxSafeInteger {
		return 0, fmt.Errorf("out of range: %s", n.String())
	}
	return int64(f), nil
}

// kindOf reports the JSON type of a valid JSON value from its first byte.
func kindOf(raw []byte) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	switch raw[0] {
	case '{':
		return "object"
	case '[':
		return "array"
	case '"':
		return "string"
	case 't', 'f':
		return "bool"
	case 'n':
		return "null"
	default:
		return "number"
	}
}

func structureError(field, reason string) *ValidationError {
	return &ValidationError{Tier: TierStructure, Field: field, Reason: reason}
}

func semanticError(field, reason string) *ValidationError {
	return &ValidationError{Tier: TierSemantic, Field: field, Reason: reason}
}
