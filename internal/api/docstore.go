// Package api holds the HTTP clients for the managed services the firm
// delegates to: the document store, object storage, the identity provider,
// the transactional mail API and the generative AI API. Each client treats
// its provider as an opaque request/response boundary and maps failures into
// the closed error set in errors.go.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"
)

// Docstore talks to the hosted document database. Documents are loose field
// bags keyed by collection and server-assigned ID.
type Docstore struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewDocstore creates a document store client.
func NewDocstore(baseURL, token string) *Docstore {
	return &Docstore{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Document is one stored record.
type Document struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
}

// Decode unmarshals the field bag into a typed collection schema, injecting
// the document ID.
func (d Document) Decode(v any) error {
	merged := make(map[string]any, len(d.Fields)+1)
	for k, val := range d.Fields {
		merged[k] = val
	}
	merged["id"] = d.ID
	b, err := json.Marshal(merged)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// FieldsOf flattens a typed value into a field bag, dropping the ID (the
// store owns document identity).
func FieldsOf(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	fields := map[string]any{}
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, err
	}
	delete(fields, "id")
	return fields, nil
}

// Query narrows a List call. Zero value lists the whole collection.
type Query struct {
	// Where filters on field equality, e.g. Where("phone", "0812345678").
	WhereField string
	WhereValue string
	OrderBy    string
	Desc       bool
	Limit      int
}

// Create appends a document with a server-assigned ID.
func (c *Docstore) Create(ctx context.Context, collection string, fields map[string]any) (Document, error) {
	var created Document
	err := c.do(ctx, http.MethodPost, c.collectionPath(collection), nil, fields, &created)
	return created, err
}

// Put writes a document under a caller-chosen ID, replacing any previous
// content.
func (c *Docstore) Put(ctx context.Context, collection, id string, fields map[string]any) error {
	return c.do(ctx, http.MethodPut, c.documentPath(collection, id), nil, fields, nil)
}

// Update merges fields into an existing document.
func (c *Docstore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	return c.do(ctx, http.MethodPatch, c.documentPath(collection, id), nil, fields, nil)
}

// Delete removes a document.
func (c *Docstore) Delete(ctx context.Context, collection, id string) error {
	return c.do(ctx, http.MethodDelete, c.documentPath(collection, id), nil, nil, nil)
}

// Get fetches one document by ID.
func (c *Docstore) Get(ctx context.Context, collection, id string) (Document, error) {
	var doc Document
	err := c.do(ctx, http.MethodGet, c.documentPath(collection, id), nil, nil, &doc)
	return doc, err
}

// List fetches documents matching q.
func (c *Docstore) List(ctx context.Context, collection string, q Query) ([]Document, error) {
	params := url.Values{}
	if q.WhereField != "" {
		params.Set("where", q.WhereField+"=="+q.WhereValue)
	}
	if q.OrderBy != "" {
		params.Set("orderBy", q.OrderBy)
		if q.Desc {
			params.Set("desc", "true")
		}
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	var out struct {
		Documents []Document `json:"documents"`
	}
	if err := c.do(ctx, http.MethodGet, c.collectionPath(collection), params, nil, &out); err != nil {
		return nil, err
	}
	return out.Documents, nil
}

// First returns the first match for q, or ErrNotFound.
func (c *Docstore) First(ctx context.Context, collection string, q Query) (Document, error) {
	q.Limit = 1
	docs, err := c.List(ctx, collection, q)
	if err != nil {
		return Document{}, err
	}
	if len(docs) == 0 {
		return Document{}, fmt.Errorf("%s: %w", collection, ErrNotFound)
	}
	return docs[0], nil
}

func (c *Docstore) collectionPath(collection string) string {
	return "/v1/collections/" + url.PathEscape(collection) + "/documents"
}

func (c *Docstore) documentPath(collection, id string) string {
	return c.collectionPath(collection) + "/" + url.PathEscape(id)
}

func (c *Docstore) do(ctx context.Context, method, p string, params url.Values, body, out any) error {
	endpoint := c.buildURL(p)
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var reqBody *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(map[string]any{"fields": body})
		if err != nil {
			return fmt.Errorf("encode document: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return transportError("docstore", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return statusError("docstore", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode docstore response: %w", err)
	}
	return nil
}

func (c *Docstore) buildURL(p string) string {
	base, _ := url.Parse(c.baseURL)
	base.Path = path.Join(base.Path, p)
	return base.String()
}
