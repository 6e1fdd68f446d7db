package pathstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dgallion1/tafsirgest/internal/bibliography"
	"github.com/dgallion1/tafsirgest/internal/exegesis"
	"github.com/dgallion1/tafsirgest/internal/store"
)

const (
	rootKey   = "exegesis"
	docsKey   = rootKey + "/documents"
	hashesKey = rootKey + "/by_hash"
	source    = "tafsirgest"
)

// Sink stores parsed documents as pathstore nodes:
//
//	exegesis/documents/{docID}/meta
//	exegesis/documents/{docID}/parsed
//	exegesis/documents/{docID}/verses/{n}
//	exegesis/by_hash/{hash}/{docID}
type Sink struct {
	client *Client
}

func NewSink(client *Client) *Sink {
	return &Sink{client: client}
}

var _ store.Sink = (*Sink)(nil)

type metaValue struct {
	store.Summary
	SourceRef string `json:"source_ref"`
}

type parsedValue struct {
	Document *exegesis.ParsedDocument `json:"document"`
	Books    []bibliography.Book      `json:"books,omitempty"`
}

func docKey(docID string) string    { return docsKey + "/" + docID }
func metaKey(docID string) string   { return docKey(docID) + "/meta" }
func parsedKey(docID string) string { return docKey(docID) + "/parsed" }

func verseKey(docID string, n int) string {
	return docKey(docID) + "/verses/" + strconv.Itoa(n)
}

func hashKey(hash, docID string) string {
	return hashesKey + "/" + hash + "/" + docID
}

func (s *Sink) meta(ctx context.Context, docID string) (*metaValue, error) {
	node, err := s.client.GetNode(ctx, metaKey(docID))
	if err != nil {
		return nil, err
	}
	if node == nil {
		return nil, store.ErrNotFound
	}
	var m metaValue
	if err := json.Unmarshal(node.Value, &m); err != nil {
		return nil, fmt.Errorf("decode meta %s: %w", docID, err)
	}
	return &m, nil
}

// Save replaces any previous version of the document.
func (s *Sink) Save(ctx context.Context, r *store.Record) error {
	if r == nil || r.Document == nil || r.DocID == "" {
		return fmt.Errorf("save document: incomplete record")
	}
	if r.ParsedAt.IsZero() {
		r.ParsedAt = time.Now().UTC()
	}

	old, err := s.meta(ctx, r.DocID)
	switch {
	case err == nil:
		if err := s.remove(ctx, r.DocID, old.Hash); err != nil {
			return err
		}
	case !errors.Is(err, store.ErrNotFound):
		return err
	}

	m := metaValue{Summary: store.Summarize(r), SourceRef: r.SourceRef}
	if err := s.put(ctx, metaKey(r.DocID), m); err != nil {
		return err
	}
	if err := s.put(ctx, parsedKey(r.DocID), parsedValue{Document: r.Document, Books: r.Books}); err != nil {
		return err
	}
	for i := range r.Document.Verses {
		v := &r.Document.Verses[i]
		key := verseKey(r.DocID, v.Number)
		if err := s.put(ctx, key, v); err != nil {
			return err
		}
		if err := s.client.PutLink(ctx, LinkRequest{
			From:    key,
			To:      metaKey(r.DocID),
			Weight:  1,
			Summary: "verse " + v.Label,
		}); err != nil {
			return fmt.Errorf("link verse %d: %w", v.Number, err)
		}
	}
	return s.put(ctx, hashKey(r.Hash, r.DocID), map[string]string{"doc_id": r.DocID})
}

func (s *Sink) put(ctx context.Context, key string, value any) error {
	if err := s.client.PutNode(ctx, key, NodeRequest{Value: value, Source: source}); err != nil {
		return fmt.Errorf("store %s: %w", key, err)
	}
	return nil
}

func (s *Sink) remove(ctx context.Context, docID, hash string) error {
	if err := s.client.DeleteNode(ctx, docKey(docID), true); err != nil {
		return fmt.Errorf("delete document %s: %w", docID, err)
	}
	if hash != "" {
		if err := s.client.DeleteNode(ctx, hashKey(hash, docID), false); err != nil {
			return fmt.Errorf("delete hash %s: %w", hash, err)
		}
	}
	return nil
}

func (s *Sink) FindByHash(ctx context.Context, hash string) (string, bool, error) {
	nodes, err := s.client.ListChildren(ctx, hashesKey+"/"+hash, 1)
	if err != nil {
		return "", false, fmt.Errorf("find by hash: %w", err)
	}
	if len(nodes) == 0 {
		return "", false, nil
	}
	return path.Base(nodes[0].Key), true, nil
}

func (s *Sink) Get(ctx context.Context, docID string) (*store.Record, error) {
	m, err := s.meta(ctx, docID)
	if err != nil {
		return nil, err
	}
	node, err := s.client.GetNode(ctx, parsedKey(docID))
	if err != nil {
		return nil, err
	}
	if node == nil {
		return nil, store.ErrNotFound
	}
	var pv parsedValue
	if err := json.Unmarshal(node.Value, &pv); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", docID, err)
	}
	return &store.Record{
		DocID:     m.DocID,
		Title:     m.Title,
		Source:    m.Source,
		SourceRef: m.SourceRef,
		Hash:      m.Hash,
		Document:  pv.Document,
		Books:     pv.Books,
		ParsedAt:  m.ParsedAt,
	}, nil
}

func (s *Sink) GetVerse(ctx context.Context, docID string, number int) (*exegesis.Verse, error) {
	node, err := s.client.GetNode(ctx, verseKey(docID, number))
	if err != nil {
		return nil, err
	}
	if node == nil {
		return nil, store.ErrNotFound
	}
	var v exegesis.Verse
	if err := json.Unmarshal(node.Value, &v); err != nil {
		return nil, fmt.Errorf("decode verse %s/%d: %w", docID, number, err)
	}
	return &v, nil
}

func (s *Sink) List(ctx context.Context, limit int) ([]store.Summary, error) {
	nodes, err := s.client.ListChildren(ctx, docsKey, 0)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	out := []store.Summary{}
	for _, n := range nodes {
		if !strings.HasSuffix(n.Key, "/meta") {
			continue
		}
		var m metaValue
		if err := json.Unmarshal(n.Value, &m); err != nil {
			return nil, fmt.Errorf("decode meta %s: %w", n.Key, err)
		}
		out = append(out, m.Summary)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ParsedAt.Equal(out[j].ParsedAt) {
			return out[i].ParsedAt.After(out[j].ParsedAt)
		}
		return out[i].DocID < out[j].DocID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Sink) Delete(ctx context.Context, docID string) error {
	m, err := s.meta(ctx, docID)
	if err != nil {
		return err
	}
	return s.remove(ctx, docID, m.Hash)
}
