//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"time"

	"chathub/domain"
	"chathub/errors"

	"github.com/dgraph-io/badger/v4"
)

type IUserRepository interface {
	CreateUser(handle, secretHash string) error
	GetUser(handle string) (domain.User, error)
}

// UserRepository stores handle -> hashed credential mappings.
type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) *UserRepository {
	return &UserRepository{db: db}
}

func userKey(handle string) []byte {
	return []byte("user:" + handle)
}

// CreateUser persists a new account. The existence check and the write
// share one transaction, so two racing signups for the same handle
// cannot both succeed.
func (u *UserRepository) CreateUser(handle, secretHash string) error {
	user := domain.User{
		Handle:     handle,
		SecretHash: secretHash,
		CreatedAt:  time.Now().UTC(),
	}
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return u.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(userKey(handle)); err == nil {
			return errors.ErrHandleTaken
		}
		return txn.Set(userKey(handle), data)
	})
}

// GetUser resolves a handle; unknown handles report ErrInvalidCredentials
// so the caller cannot distinguish them from a wrong secret.
func (u *UserRepository) GetUser(handle string) (domain.User, error) {
	var user domain.User
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(handle))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return errors.ErrInvalidCredentials
			}
			return err
		}
		return item.Value(func(v []byte) error {
			return json.Unmarshal(v, &user)
		})
	})
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}
