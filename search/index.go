// Package search offers full-text lookup over the stored message history.
// The index is in-memory only: it is rebuilt from the profile at startup and
// after every sync cycle, so the profile file stays the single source of
// truth on disk.
package search

import (
	"context"
	"fmt"
	"strconv"

	"github.com/blugelabs/bluge"

	"messenger-lab/domain"
)

// Hit is one matching message, carrying enough to display a result line.
type Hit struct {
	From string
	Text string
}

type MessageIndex struct {
	writer *bluge.Writer
}

func NewMessageIndex() (*MessageIndex, error) {
	writer, err := bluge.OpenWriter(bluge.InMemoryOnlyConfig())
	if err != nil {
		return nil, fmt.Errorf("open search index: %w", err)
	}
	return &MessageIndex{writer: writer}, nil
}

// Index replaces the documents for the given messages. Document identity is
// the full field tuple, mirroring message identity: re-indexing the same
// history is idempotent.
func (i *MessageIndex) Index(messages []domain.Message) error {
	batch := bluge.NewBatch()
	for _, msg := range messages {
		doc := bluge.NewDocument(docID(msg)).
			AddField(bluge.NewTextField("text", msg.Text).StoreValue()).
			AddField(bluge.NewTextField("from", msg.From).StoreValue()).
			AddField(bluge.NewNumericField("timestamp", msg.Timestamp))
		batch.Update(doc.ID(), doc)
	}
	if err := i.writer.Batch(batch); err != nil {
		return fmt.Errorf("index messages: %w", err)
	}
	return nil
}

// Find returns up to limit messages whose text matches terms.
func (i *MessageIndex) Find(ctx context.Context, terms string, limit int) ([]Hit, error) {
	reader, err := i.writer.Reader()
	if err != nil {
		return nil, fmt.Errorf("search reader: %w", err)
	}
	defer reader.Close()

	query := bluge.NewMatchQuery(terms).SetField("text")
	iter, err := reader.Search(ctx, bluge.NewTopNSearch(limit, query))
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", terms, err)
	}

	var hits []Hit
	for {
		match, err := iter.Next()
		if err != nil {
			return nil, fmt.Errorf("search %q: %w", terms, err)
		}
		if match == nil {
			break
		}
		var hit Hit
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case "from":
				hit.From = string(value)
			case "text":
				hit.Text = string(value)
			}
			return true
		})
		if err != nil {
			return nil, fmt.Errorf("search %q: %w", terms, err)
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

func (i *MessageIndex) Close() error {
	return i.writer.Close()
}

func docID(msg domain.Message) string {
	return msg.From + "|" + msg.To + "|" +
		strconv.FormatFloat(msg.Timestamp, 'f', -1, 64) + "|" + msg.Text
}
