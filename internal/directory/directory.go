// Package directory is the in-memory registry of known users. It also holds
// the signed-in user and the result of the most recent voice call.
package directory

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sandeepkv93/voxdash/internal/apperr"
	"github.com/sandeepkv93/voxdash/internal/model"
)

var (
	ErrUserNotFound  = errors.New("directory: user not found")
	ErrEmailRequired = errors.New("directory: email is required")
	ErrEmailTaken    = errors.New("directory: email already registered")
)

const AnonymousCreator = "user@example.com"

func SeedUsers() []model.User {
	return []model.User{
		{ID: "1", FirstName: "John", LastName: "Doe", Email: "john@example.com", Phone: "123-456-7890"},
		{ID: "2", FirstName: "Jane", LastName: "Smith", Email: "jane@example.com", Phone: "123-456-7891"},
	}
}

type Directory struct {
	mu         sync.RWMutex
	users      []model.User
	current    *model.User
	callResult *model.CallResult
	onSignOut  []func()
}

func New(seed []model.User) *Directory {
	return &Directory{users: slices.Clone(seed)}
}

// FindByEmail matches the email exactly.
func (d *Directory) FindByEmail(email string) (model.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if idx := d.indexOf(email); idx >= 0 {
		return d.users[idx], nil
	}
	return model.User{}, apperr.NotFound("directory.find", fmt.Errorf("%w: %s", ErrUserNotFound, email))
}

func (d *Directory) indexOf(email string) int {
	return slices.IndexFunc(d.users, func(u model.User) bool { return u.Email == email })
}

func (d *Directory) SignIn(email string) (model.User, error) {
	user, err := d.FindByEmail(email)
	if err != nil {
		return model.User{}, err
	}
	d.SetCurrent(user)
	return user, nil
}

func (d *Directory) SetCurrent(user model.User) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.current = &user
}

func (d *Directory) Current() (model.User, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.current == nil {
		return model.User{}, false
	}
	return *d.current, true
}

// Creator is the email stamped as CreatedBy on new entities: the signed-in
// user, or AnonymousCreator when nobody is signed in.
func (d *Directory) Creator() string {
	if user, ok := d.Current(); ok && user.Email != "" {
		return user.Email
	}
	return AnonymousCreator
}

// OnSignOut registers fn to run whenever ClearCurrent is called. The voice
// session controller hooks its Reset here.
func (d *Directory) OnSignOut(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onSignOut = append(d.onSignOut, fn)
}

func (d *Directory) ClearCurrent() {
	d.mu.Lock()
	d.current = nil
	hooks := slices.Clone(d.onSignOut)
	d.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
}

func (d *Directory) RecordCallResult(result model.CallResult) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.callResult = &result
}

func (d *Directory) CallResult() (model.CallResult, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.callResult == nil {
		return model.CallResult{}, false
	}
	return *d.callResult, true
}

func (d *Directory) ClearCallResult() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.callResult = nil
}

// Register adds a user; the email is the unique key.
func (d *Directory) Register(user model.User) error {
	user.Email = strings.TrimSpace(user.Email)
	if user.Email == "" {
		return apperr.Validation("directory.register", ErrEmailRequired)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.indexOf(user.Email) >= 0 {
		return apperr.Validation("directory.register", fmt.Errorf("%w: %s", ErrEmailTaken, user.Email))
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	d.users = append(d.users, user)
	return nil
}

// Unregister removes the user with email. Removing the signed-in user signs
// them out, running the OnSignOut hooks.
func (d *Directory) Unregister(email string) error {
	email = strings.TrimSpace(email)
	d.mu.Lock()
	idx := d.indexOf(email)
	if idx < 0 {
		d.mu.Unlock()
		return apperr.NotFound("directory.unregister", fmt.Errorf("%w: %s", ErrUserNotFound, email))
	}
	d.users = slices.Delete(d.users, idx, idx+1)
	signedOut := d.current != nil && d.current.Email == email
	d.mu.Unlock()

	if signedOut {
		d.ClearCurrent()
	}
	return nil
}

func (d *Directory) Users() []model.User {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Clone(d.users)
}
