package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Article is a blog post as persisted in the articles file.
//
// A record loaded from the file keeps every key it was read with, including
// keys this type does not model, and is written back exactly as read. Only
// articles built in memory are encoded from the typed fields.
type Article struct {
	ID              int
	Title           string
	Content         string
	Category        LooseID
	FeatureImageURL string
	Published       bool
	PostDate        string

	fields []rawField
}

type rawField struct {
	key   string
	value json.RawMessage
}

// articleRecord is the encoding of a new article.
type articleRecord struct {
	ID              int     `json:"id"`
	Title           string  `json:"title"`
	Content         string  `json:"content"`
	Category        LooseID `json:"category"`
	FeatureImageURL string  `json:"featureImageUrl"`
	Published       bool    `json:"published"`
	PostDate        string  `json:"postDate"`
}

func (a Article) MarshalJSON() ([]byte, error) {
	if a.fields == nil {
		return json.Marshal(articleRecord{
			ID:              a.ID,
			Title:           a.Title,
			Content:         a.Content,
			Category:        a.Category,
			FeatureImageURL: a.FeatureImageURL,
			Published:       a.Published,
			PostDate:        a.PostDate,
		})
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range a.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(f.value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a stored record. id must be an integer and category a
// scalar; the text fields are read when they are strings. Only a JSON true
// marks the article published. Records written before the featureImageUrl
// key existed carry the image under featureimage.
func (a *Article) UnmarshalJSON(b []byte) error {
	fields, err := decodeObject(b)
	if err != nil {
		return err
	}

	out := Article{fields: fields}
	var legacyImage string
	hasImage := false
	for _, f := range fields {
		switch f.key {
		case "id":
			if err := json.Unmarshal(f.value, &out.ID); err != nil {
				return fmt.Errorf("article id: %w", err)
			}
		case "category":
			if err := json.Unmarshal(f.value, &out.Category); err != nil {
				return fmt.Errorf("article %d category: %w", out.ID, err)
			}
		case "title":
			out.Title = rawString(f.value)
		case "content":
			out.Content = rawString(f.value)
		case "postDate":
			out.PostDate = rawString(f.value)
		case "featureImageUrl":
			out.FeatureImageURL = rawString(f.value)
			hasImage = true
		case "featureimage":
			legacyImage = rawString(f.value)
		case "published":
			out.Published = string(f.value) == "true"
		}
	}
	if !hasImage {
		out.FeatureImageURL = legacyImage
	}
	*a = out
	return nil
}

// decodeObject splits a JSON object into its members in document order.
func decodeObject(b []byte) ([]rawField, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("article must be an object, got %s", bytes.TrimSpace(b))
	}

	fields := []rawField{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := tok.(string)
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		var compact bytes.Buffer
		if err := json.Compact(&compact, value); err != nil {
			return nil, err
		}
		fields = append(fields, rawField{key: key, value: compact.Bytes()})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return fields, nil
}

func rawString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// PostTime parses PostDate. Dates written by the store are RFC 3339 with
// milliseconds; hand-edited files may carry a bare YYYY-MM-DD.
func (a Article) PostTime() (time.Time, bool) {
	return ParseTimestamp(a.PostDate)
}

// Category is a read-only classification loaded at startup.
type Category struct {
	ID   LooseID `json:"id"`
	Name string  `json:"name"`
}

// ArticleView is an Article annotated with its resolved category name for
// rendering. It encodes as its Article.
type ArticleView struct {
	Article
	CategoryName string
}

// ArticleInput carries the fields a caller supplies when adding an article.
// Published accepts any value and is coerced with Truthy.
type ArticleInput struct {
	Title           string
	Content         string
	Category        LooseID
	FeatureImageURL string
	Published       any
	PostDate        string
}

// Truthy reports whether v would be considered true by a loosely typed
// caller: nil, false, zero numbers, NaN and "" are false, everything else true.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case int:
		return x != 0
	case int64:
		return x != 0
	case float64:
		return x != 0 && !math.IsNaN(x)
	default:
		return true
	}
}

// ISOTimestamp is the layout used for postDate values.
const ISOTimestamp = "2006-01-02T15:04:05.000Z07:00"

var timestampLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// ParseTimestamp accepts RFC 3339 timestamps and bare dates.
func ParseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
