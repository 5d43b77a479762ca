package records

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/form/v4"
)

// Binder maps between submitted form values and a record struct using the
// struct's form tags.
type Binder[T any] struct {
	decoder *form.Decoder
	encoder *form.Encoder
}

// NewBinder returns a Binder for T.
func NewBinder[T any]() *Binder[T] {
	return &Binder[T]{decoder: form.NewDecoder(), encoder: form.NewEncoder()}
}

// Decode builds a record from values, trimming surrounding whitespace.
// Unknown keys such as csrf_token are ignored.
func (b *Binder[T]) Decode(values url.Values) (T, error) {
	var rec T
	clean := make(url.Values, len(values))
	for key, vals := range values {
		for _, v := range vals {
			v = strings.TrimSpace(v)
			if v == "" && len(vals) > 1 {
				continue
			}
			clean[key] = append(clean[key], v)
		}
	}
	if err := b.decoder.Decode(&rec, clean); err != nil {
		return rec, fmt.Errorf("records: decode form: %w", err)
	}
	return rec, nil
}

// Values flattens rec into form values. Slices come back under their plain
// key in index order.
func (b *Binder[T]) Values(rec T) (url.Values, error) {
	encoded, err := b.encoder.Encode(&rec)
	if err != nil {
		return nil, fmt.Errorf("records: encode form: %w", err)
	}
	type indexed struct {
		idx   int
		value string
	}
	lists := make(map[string][]indexed)
	out := make(url.Values, len(encoded))
	for key, vals := range encoded {
		name, rest, found := strings.Cut(key, "[")
		if !found {
			out[key] = vals
			continue
		}
		idx, err := strconv.Atoi(strings.TrimSuffix(rest, "]"))
		if err != nil {
			out[key] = vals
			continue
		}
		for _, v := range vals {
			lists[name] = append(lists[name], indexed{idx: idx, value: v})
		}
	}
	for name, items := range lists {
		sort.Slice(items, func(i, j int) bool { return items[i].idx < items[j].idx })
		for _, it := range items {
			out[name] = append(out[name], it.value)
		}
	}
	return out, nil
}
