package ports

import (
	"time"

	"github.com/storewatch/storewatch/internal/core/domain"
)

// AccountUpdate carries the mutable fields of an account; nil means "leave
// unchanged".
type AccountUpdate struct {
	Enabled  *bool
	Password *string
}

// AccountStore owns the account list and its durable flat-file representation.
// Every mutation is persisted before it returns.
type AccountStore interface {
	List() []domain.Account
	Get(id int) (domain.Account, error)
	Create(login, password string) (domain.Account, error)
	Update(id int, upd AccountUpdate) (domain.Account, error)
	Delete(id int) error
	// Touch records the moment an account's credentials were last used
	// successfully against the upstream.
	Touch(id int, t time.Time)
}
