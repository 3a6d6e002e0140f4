package devstore

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/security"
	"github.com/angelmondragon/storefront/pkg/types"
)

type userRecord struct {
	user         types.User
	passwordHash string
}

type cartRecord struct {
	id    string
	lines []types.CartLine
}

// Store is the in-memory state behind the development API. It applies the
// same rules the real server does, simply: prices come from the catalog,
// stock is checked on add, and an order empties the cart it was made from.
type Store struct {
	mu        sync.Mutex
	now       func() time.Time
	passwords config.PasswordConfig

	users      map[string]*userRecord
	byUsername map[string]string
	products   []types.Product
	carts      map[string]*cartRecord
	addresses  map[string][]types.Address
	orders     map[string][]types.Order

	nextUser    int
	nextProduct int
	nextCart    int
	nextAddress int
	nextOrder   int
	nextItem    int
	nextPayment int
}

// Options configures a Store.
type Options struct {
	Passwords config.PasswordConfig
	Now       func() time.Time
}

func New(opts Options) *Store {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Store{
		now:        opts.Now,
		passwords:  opts.Passwords,
		users:      map[string]*userRecord{},
		byUsername: map[string]string{},
		carts:      map[string]*cartRecord{},
		addresses:  map[string][]types.Address{},
		orders:     map[string][]types.Order{},
	}
}

// AddUser registers an account with an Argon2id-hashed password.
func (s *Store) AddUser(username, email, password string, roles []enums.Role) (types.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return types.User{}, pkgerrors.New(pkgerrors.CodeValidation, "username is required")
	}
	hash, err := security.HashPassword(password, s.passwords)
	if err != nil {
		return types.User{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid password")
	}
	if len(roles) == 0 {
		roles = []enums.Role{enums.RoleUser}
	}
	names := make([]string, 0, len(roles))
	for _, role := range roles {
		if !role.IsValid() {
			return types.User{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid role "+role.String())
		}
		names = append(names, role.String())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(username)
	if _, exists := s.byUsername[key]; exists {
		return types.User{}, pkgerrors.New(pkgerrors.CodeConflict, "username is already taken")
	}
	s.nextUser++
	user := types.User{ID: strconv.Itoa(s.nextUser), Username: username, Email: strings.TrimSpace(email), Roles: names}
	s.users[user.ID] = &userRecord{user: user, passwordHash: hash}
	s.byUsername[key] = user.ID
	return user, nil
}

// Authenticate checks credentials. Unknown users and wrong passwords get
// the same error.
func (s *Store) Authenticate(username, password string) (types.User, error) {
	s.mu.Lock()
	id, ok := s.byUsername[strings.ToLower(strings.TrimSpace(username))]
	var rec userRecord
	if ok {
		rec = *s.users[id]
	}
	s.mu.Unlock()

	badCredentials := pkgerrors.New(pkgerrors.CodeUnauthorized, "Bad credentials")
	if !ok {
		return types.User{}, badCredentials
	}
	match, err := security.VerifyPassword(password, rec.passwordHash)
	if err != nil {
		return types.User{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !match {
		return types.User{}, badCredentials
	}
	if security.NeedsRehash(rec.passwordHash, s.passwords) {
		if hash, err := security.HashPassword(password, s.passwords); err == nil {
			s.mu.Lock()
			if current, ok := s.users[id]; ok {
				current.passwordHash = hash
			}
			s.mu.Unlock()
		}
	}
	return rec.user, nil
}

// User looks up an account by id.
func (s *Store) User(id string) (types.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.users[id]
	if !ok {
		return types.User{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user no longer exists")
	}
	return rec.user, nil
}
