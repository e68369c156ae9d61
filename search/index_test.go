package search

import (
	"context"
	"log/slog"
	"testing"

	"github.com/blugelabs/bluge"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"

	"chathub/domain"
	"chathub/domain/event"
)

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	writer, err := bluge.OpenWriter(bluge.InMemoryOnlyConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = writer.Close() })
	return NewIndex(writer, slog.Default())
}

func TestIndex_SearchByContent(t *testing.T) {
	req := require.New(t)
	index := newTestIndex(t)
	ctx := context.Background()

	messages := []domain.Message{
		{ID: 1, Room: "general", Author: "Alice", Content: "shipping the release tonight"},
		{ID: 2, Room: "general", Author: "Bob", Content: "lunch plans anyone"},
		{ID: 3, Room: "dev-chat", Author: "Clara", Content: "release branch is cut"},
	}
	for _, m := range messages {
		req.NoError(index.IndexMessage(m))
	}

	hits, err := index.Search(ctx, NewQuery("/find release", 0))
	req.NoError(err)
	req.Len(hits, 2)
	ids := lo.Map(hits, func(h Hit, _ int) domain.MessageID { return h.ID })
	req.ElementsMatch([]domain.MessageID{1, 3}, ids)

	t.Run("should narrow by room", func(t *testing.T) {
		req := require.New(t)
		hits, err := index.Search(ctx, NewQuery("/find release --room dev-chat", 0))
		req.NoError(err)
		req.Len(hits, 1)
		req.Equal(domain.MessageID(3), hits[0].ID)
		req.Equal("Clara", hits[0].Author)
		req.Equal("release branch is cut", hits[0].Content)
	})

	t.Run("should honor the limit", func(t *testing.T) {
		req := require.New(t)
		hits, err := index.Search(ctx, NewQuery("/find release --limit 1", 0))
		req.NoError(err)
		req.Len(hits, 1)
	})

	t.Run("should return nothing for an unknown term", func(t *testing.T) {
		req := require.New(t)
		hits, err := index.Search(ctx, NewQuery("/find zeppelin", 0))
		req.NoError(err)
		req.Empty(hits)
	})
}

func TestIndexSink_OnlyIndexesText(t *testing.T) {
	req := require.New(t)
	index := newTestIndex(t)
	sink := NewIndexSink(index, slog.Default())
	ctx := context.Background()

	req.NoError(sink.Consume(ctx, event.MessagePosted{Message: domain.Message{
		ID: 1, Room: "general", Author: "Alice", Content: "searchable text",
	}}))
	req.NoError(sink.Consume(ctx, event.MessagePosted{Message: domain.Message{
		ID: 2, Room: "general", Author: "Bob",
		Payload: domain.VoiceNote{Ref: "voice-1"},
	}}))
	// Non-message events pass through untouched
	req.NoError(sink.Consume(ctx, event.RoomCreated{Room: domain.Room{ID: "general"}}))

	hits, err := index.Search(ctx, NewQuery("/find searchable", 0))
	req.NoError(err)
	req.Len(hits, 1)
	req.Equal(domain.MessageID(1), hits[0].ID)
}
