//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"chathub/domain"
	"chathub/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"
)

type IMessageRepository interface {
	Store(message domain.Message) (domain.Message, error)
	Get(id domain.MessageID) (domain.Message, error)
	ListForRoom(room domain.RoomID, term string) ([]domain.Message, error)
	Patch(id domain.MessageID, apply func(*domain.Message) error) (domain.Message, error)
}

// MessageRepository is the single source of truth for the message log.
// Keys are "msg:{room}:{id_padded}" so a prefix scan over a room yields
// insertion order, plus a secondary index "idx:id:{id_padded}" pointing
// at the primary key for by-id patches.
type MessageRepository struct {
	db   *badger.DB
	log  *slog.Logger
	next atomic.Int64
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) *MessageRepository {
	return &MessageRepository{db: db, log: log}
}

func messageKey(room domain.RoomID, id domain.MessageID) []byte {
	return []byte(fmt.Sprintf("msg:%s:%019d", room, id))
}

func indexKey(id domain.MessageID) []byte {
	return []byte(fmt.Sprintf("idx:id:%019d", id))
}

// Store assigns the next id and the insert timestamp, then appends the
// record to its room partition. The assigned message is returned.
func (r *MessageRepository) Store(message domain.Message) (domain.Message, error) {
	message.ID = domain.MessageID(r.next.Add(1))
	if message.At.IsZero() {
		message.At = time.Now().UTC()
	}

	data, err := json.Marshal(toDiskMessage(message))
	if err != nil {
		return domain.Message{}, err
	}

	key := messageKey(message.Room, message.ID)
	err = r.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(key, data); err != nil {
			return err
		}
		return txn.Set(indexKey(message.ID), key)
	})
	if err != nil {
		return domain.Message{}, err
	}
	return message, nil
}

// Get resolves a message by id through the secondary index.
func (r *MessageRepository) Get(id domain.MessageID) (domain.Message, error) {
	var message domain.Message
	err := r.db.View(func(txn *badger.Txn) error {
		found, err := readByID(txn, id)
		if err != nil {
			return err
		}
		message = found
		return nil
	})
	return message, err
}

// ListForRoom returns the room's partition in insertion order,
// optionally narrowed by a case-insensitive substring match on content.
// The result is a fresh slice; re-reading never mutates the store.
func (r *MessageRepository) ListForRoom(room domain.RoomID, term string) ([]domain.Message, error) {
	var raw [][]byte
	prefix := []byte(fmt.Sprintf("msg:%s:", room))

	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(v []byte) error {
				raw = append(raw, append([]byte(nil), v...))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	messages := make([]domain.Message, 0, len(raw))
	for _, b := range raw {
		var dm diskMessage
		if err := json.Unmarshal(b, &dm); err != nil {
			return nil, err
		}
		// A room id may itself contain the key separator, so the
		// prefix scan can over-match; the stored room is authoritative.
		if dm.Room != string(room) {
			continue
		}
		messages = append(messages, fromDiskMessage(dm))
	}

	if term == "" {
		return messages, nil
	}
	needle := strings.ToLower(term)
	return lo.Filter(messages, func(m domain.Message, _ int) bool {
		return strings.Contains(strings.ToLower(m.Content), needle)
	}), nil
}

// Patch applies a read-modify-write on a single record inside one
// transaction, so a status transition and a poll vote on the same id
// both land instead of clobbering each other. A missing id surfaces
// ErrMessageNotFound; callers that treat removal as a no-op check for
// it explicitly.
func (r *MessageRepository) Patch(id domain.MessageID, apply func(*domain.Message) error) (domain.Message, error) {
	var patched domain.Message
	err := r.db.Update(func(txn *badger.Txn) error {
		message, err := readByID(txn, id)
		if err != nil {
			return err
		}
		if err := apply(&message); err != nil {
			return err
		}
		data, err := json.Marshal(toDiskMessage(message))
		if err != nil {
			return err
		}
		patched = message
		return txn.Set(messageKey(message.Room, message.ID), data)
	})
	return patched, err
}

func readByID(txn *badger.Txn, id domain.MessageID) (domain.Message, error) {
	item, err := txn.Get(indexKey(id))
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return domain.Message{}, errors.ErrMessageNotFound
		}
		return domain.Message{}, err
	}
	var primary []byte
	if err := item.Value(func(v []byte) error {
		primary = append([]byte(nil), v...)
		return nil
	}); err != nil {
		return domain.Message{}, err
	}

	item, err = txn.Get(primary)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return domain.Message{}, errors.ErrMessageNotFound
		}
		return domain.Message{}, err
	}
	var dm diskMessage
	if err := item.Value(func(v []byte) error {
		return json.Unmarshal(v, &dm)
	}); err != nil {
		return domain.Message{}, err
	}
	return fromDiskMessage(dm), nil
}
