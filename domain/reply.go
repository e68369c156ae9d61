package domain

// ReplySnapshot is an immutable point-in-time copy of the message being
// replied to. It is embedded in the replying message and never
// re-validated against the live record, so it survives any later change
// to the original. Content is kept untruncated; shortening it is a
// display concern.
type ReplySnapshot struct {
	ID      MessageID
	Author  string
	Content string
}

// SnapshotOf captures the reply target at preparation time.
func SnapshotOf(m Message) ReplySnapshot {
	return ReplySnapshot{
		ID:      m.ID,
		Author:  m.Author,
		Content: m.Content,
	}
}
