// Package sessions holds the explicit client session context: the auth
// token, the signed-in user and the booking selection held between seat
// selection and checkout.
package sessions

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"cinevox/client/internal/types"
)

var ErrNoSelection = errors.New("no booking selection held")

// Context is passed by reference to every component that needs the session.
// All mutations are written through to the Store.
type Context struct {
	store Store

	mu sync.RWMutex
	st State
}

func NewContext(store Store) *Context {
	return &Context{store: store, st: State{Version: stateVersion}}
}

// Hydrate loads the persisted token, user and selection.
func (c *Context) Hydrate(ctx context.Context) error {
	st, err := c.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("hydrate session: %w", err)
	}
	c.mu.Lock()
	c.st = st
	c.mu.Unlock()
	return nil
}

func (c *Context) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.st.Auth.Token
}

// User returns the signed-in user, if any.
func (c *Context) User() (types.User, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.st.Auth.User, c.st.Auth.Token != ""
}

func (c *Context) SignIn(ctx context.Context, resp types.AuthResponse) error {
	if resp.Token == "" {
		return errors.New("sign in: empty token")
	}
	err := c.update(ctx, func(st *State) {
		st.Auth = AuthState{
			Token: resp.Token,
			User:  types.User{Email: resp.Email, Name: resp.Name, UserID: resp.UserID},
		}
	})
	if err == nil {
		log.Printf("[sessions] signed in user=%d", resp.UserID)
	}
	return err
}

// SignOut clears the token and user. A held selection survives.
func (c *Context) SignOut(ctx context.Context) error {
	return c.update(ctx, func(st *State) { st.Auth = AuthState{} })
}

func (c *Context) HoldSelection(ctx context.Context, sel types.BookingSelection) error {
	if sel.HeldAt.IsZero() {
		sel.HeldAt = time.Now().UTC()
	}
	sel.Seats = append([]types.Seat(nil), sel.Seats...)
	return c.update(ctx, func(st *State) { st.Selection = &sel })
}

func (c *Context) Selection() (types.BookingSelection, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.st.Selection == nil {
		return types.BookingSelection{}, false
	}
	sel := *c.st.Selection
	sel.Seats = append([]types.Seat(nil), sel.Seats...)
	return sel, true
}

// RecordBookingID attaches the created booking to the held selection.
func (c *Context) RecordBookingID(ctx context.Context, id int64) error {
	var missing bool
	err := c.update(ctx, func(st *State) {
		if st.Selection == nil {
			missing = true
			return
		}
		st.Selection.BookingID = id
	})
	if missing {
		return ErrNoSelection
	}
	return err
}

func (c *Context) ReleaseSelection(ctx context.Context) error {
	return c.update(ctx, func(st *State) { st.Selection = nil })
}

// update applies fn to a copy and commits it once the store accepted it.
func (c *Context) update(ctx context.Context, fn func(st *State)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := cloneState(c.st)
	fn(&next)
	if err := c.store.Save(ctx, next); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	c.st = next
	return nil
}
