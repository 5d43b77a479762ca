package backend

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Collection is the typed CRUD surface of one backend collection.
type Collection[T any] struct {
	client *Client
	path   string
}

// NewCollection binds a record type to a collection path such as "/dropouts".
func NewCollection[T any](client *Client, path string) *Collection[T] {
	return &Collection[T]{client: client, path: "/" + strings.Trim(path, "/")}
}

// Path returns the collection path.
func (c *Collection[T]) Path() string { return c.path }

// List reads one page. params carries page, limit, search and filters.
func (c *Collection[T]) List(ctx context.Context, params url.Values) (Page[T], error) {
	body, err := c.client.do(ctx, http.MethodGet, c.path, c.path, params, nil)
	if err != nil {
		return Page[T]{}, err
	}
	limit, _ := strconv.Atoi(params.Get("limit"))
	return DecodePage[T](body, limit)
}

// Get reads one record by id.
func (c *Collection[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	body, err := c.client.do(ctx, http.MethodGet, c.itemPath(id), c.path+"/{id}", nil, nil)
	if err != nil {
		return zero, err
	}
	return DecodeRecord[T](body)
}

// Create posts a new record and returns what the server stored.
func (c *Collection[T]) Create(ctx context.Context, rec T) (T, error) {
	body, err := c.client.do(ctx, http.MethodPost, c.path, c.path, nil, rec)
	if err != nil {
		var zero T
		return zero, err
	}
	return decodeOptionalRecord(body, rec)
}

// Update replaces the record id with rec.
func (c *Collection[T]) Update(ctx context.Context, id string, rec T) (T, error) {
	body, err := c.client.do(ctx, http.MethodPut, c.itemPath(id), c.path+"/{id}", nil, rec)
	if err != nil {
		var zero T
		return zero, err
	}
	return decodeOptionalRecord(body, rec)
}

// Delete removes the record id.
func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	_, err := c.client.do(ctx, http.MethodDelete, c.itemPath(id), c.path+"/{id}", nil, nil)
	return err
}

func (c *Collection[T]) itemPath(id string) string {
	return c.path + "/" + url.PathEscape(id)
}

// decodeOptionalRecord returns sent when the server answers 2xx with no body.
func decodeOptionalRecord[T any](body []byte, sent T) (T, error) {
	rec, err := DecodeRecord[T](body)
	if errors.Is(err, ErrEmptyBody) {
		return sent, nil
	}
	return rec, err
}

// Dropdown reads the {id,label} options of a lookup entity.
func (c *Client) Dropdown(ctx context.Context, entity string) ([]Option, error) {
	path := "/" + strings.Trim(entity, "/") + "/dropdown"
	body, err := c.do(ctx, http.MethodGet, path, "/{entity}/dropdown", nil, nil)
	if err != nil {
		return nil, err
	}
	return DecodeOptions(body)
}
