// Package search maintains a full-text index over text messages. The
// canonical room filter is the repository's substring scan; this index
// serves the richer /find command.
package search

import (
	"context"
	"log/slog"
	"strconv"

	"chathub/domain"
	"chathub/domain/event"

	"github.com/blugelabs/bluge"
)

// Hit is one search result with enough stored fields to render it.
type Hit struct {
	ID      domain.MessageID
	Room    domain.RoomID
	Author  string
	Content string
}

// Index wraps a bluge writer. With an in-memory config the index lives
// and dies with the process, like the rest of the engine state.
type Index struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewIndex(writer *bluge.Writer, log *slog.Logger) *Index {
	return &Index{writer: writer, log: log}
}

// IndexMessage adds or replaces one message document. Only text-kind
// messages carry searchable content.
func (x *Index) IndexMessage(m domain.Message) error {
	doc := bluge.NewDocument(strconv.FormatInt(int64(m.ID), 10)).
		AddField(bluge.NewTextField("content", m.Content).StoreValue()).
		AddField(bluge.NewKeywordField("room", string(m.Room)).StoreValue()).
		AddField(bluge.NewKeywordField("author", m.Author).StoreValue())
	return x.writer.Update(doc.ID(), doc)
}

// Search runs a parsed query and returns the top hits.
func (x *Index) Search(ctx context.Context, q *Query) ([]Hit, error) {
	reader, err := x.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	boolean := bluge.NewBooleanQuery().
		AddMust(bluge.NewMatchQuery(q.Terms).SetField("content"))
	if q.RoomID != "" {
		boolean.AddMust(bluge.NewTermQuery(q.RoomID).SetField("room"))
	}

	iterator, err := reader.Search(ctx, bluge.NewTopNSearch(q.Limit, boolean))
	if err != nil {
		return nil, err
	}

	var hits []Hit
	for {
		match, err := iterator.Next()
		if err != nil {
			return nil, err
		}
		if match == nil {
			break
		}

		var hit Hit
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case "_id":
				if id, err := strconv.ParseInt(string(value), 10, 64); err == nil {
					hit.ID = domain.MessageID(id)
				}
			case "room":
				hit.Room = domain.RoomID(value)
			case "author":
				hit.Author = string(value)
			case "content":
				hit.Content = string(value)
			}
			return true
		})
		if err != nil {
			return nil, err
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// IndexSink feeds the index from the event pipeline.
type IndexSink struct {
	index *Index
	log   *slog.Logger
}

func NewIndexSink(index *Index, log *slog.Logger) *IndexSink {
	return &IndexSink{index: index, log: log}
}

func (s *IndexSink) Consume(_ context.Context, e event.DomainEvent) error {
	posted, ok := e.(event.MessagePosted)
	if !ok {
		return nil
	}
	if posted.Message.Kind() != domain.KindText {
		return nil
	}
	return s.index.IndexMessage(posted.Message)
}
