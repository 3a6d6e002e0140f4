package session

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/angelmondragon/storefront/pkg/apiclient"
	"github.com/angelmondragon/storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/types"
)

const (
	routeCurrentUser = "/auth/user"
	routeSignIn      = "/auth/signin"
	routeSignOut     = "/auth/signout"

	loginPath     = "/login"
	redirectParam = "redirect"
)

// Session is the signed-in account, if any. Roles and capabilities are
// resolved once when the session loads.
type Session struct {
	User  *types.User
	Roles []enums.Role
	caps  enums.CapabilitySet
}

// Anonymous is the session of a visitor who is not signed in.
func Anonymous() Session {
	return Session{caps: enums.CapabilitySet{}}
}

// Authenticated reports whether a user is signed in.
func (s Session) Authenticated() bool {
	return s.User != nil
}

// Can reports whether the session grants capability.
func (s Session) Can(capability enums.Capability) bool {
	return s.caps.Has(capability)
}

// HasRole reports whether the session carries role.
func (s Session) HasRole(role enums.Role) bool {
	for _, r := range s.Roles {
		if r == role {
			return true
		}
	}
	return false
}

type api interface {
	Get(ctx context.Context, p apiclient.Path, out any, opts ...apiclient.RequestOption) error
	Post(ctx context.Context, p apiclient.Path, body, out any, opts ...apiclient.RequestOption) error
}

// Client loads and changes the session held in the API client's cookie jar.
type Client struct {
	api  api
	logg *logger.Logger

	mu      sync.RWMutex
	current Session
}

func NewClient(a api, logg *logger.Logger) (*Client, error) {
	if a == nil {
		return nil, fmt.Errorf("session api client required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Client{api: a, logg: logg, current: Anonymous()}, nil
}

// Current asks the server who is signed in. A 401 is an anonymous session,
// not an error.
func (c *Client) Current(ctx context.Context) (Session, error) {
	var user types.User
	err := c.api.Get(ctx, apiclient.Route(routeCurrentUser), &user)
	if apiclient.IsStatus(err, http.StatusUnauthorized) {
		c.set(Anonymous())
		return Anonymous(), nil
	}
	if err != nil {
		return Session{}, err
	}
	sess := c.resolve(ctx, user)
	c.set(sess)
	return sess, nil
}

// Login signs in and loads the resulting session.
func (c *Client) Login(ctx context.Context, username, password string) (Session, error) {
	req := types.SignInRequest{Username: strings.TrimSpace(username), Password: password}
	if req.Username == "" || req.Password == "" {
		return Session{}, pkgerrors.New(pkgerrors.CodeValidation, "username and password are required")
	}

	var user types.User
	if err := c.api.Post(ctx, apiclient.Route(routeSignIn), req, &user); err != nil {
		c.logg.Warn(c.logg.WithField(ctx, "username", req.Username), "session.login.failed")
		return Session{}, err
	}
	sess := c.resolve(ctx, user)
	c.set(sess)
	c.logg.Info(c.logg.WithUserID(ctx, user.ID), "session.login")
	return sess, nil
}

// Logout ends the server session and forgets the local one.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.api.Post(ctx, apiclient.Route(routeSignOut), nil, nil); err != nil {
		return err
	}
	c.set(Anonymous())
	return nil
}

// Session returns the last loaded session without a request.
func (c *Client) Session() Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

func (c *Client) set(sess Session) {
	c.mu.Lock()
	c.current = sess
	c.mu.Unlock()
}

// resolve turns raw role strings into the closed role set. Unknown roles
// grant nothing.
func (c *Client) resolve(ctx context.Context, user types.User) Session {
	roles := make([]enums.Role, 0, len(user.Roles))
	for _, raw := range user.Roles {
		role, err := enums.ParseRole(raw)
		if err != nil {
			c.logg.Warn(c.logg.WithField(ctx, "role", raw), "session.role.unknown")
			continue
		}
		roles = append(roles, role)
	}
	u := user
	return Session{User: &u, Roles: roles, caps: enums.CapabilitiesFor(roles)}
}

// LoginLocation is where to send a user who must sign in, carrying the
// location they came from so they can be sent back afterwards.
func LoginLocation(from string) string {
	from = strings.TrimSpace(from)
	if from == "" || from == loginPath {
		return loginPath
	}
	return loginPath + "?" + url.Values{redirectParam: {from}}.Encode()
}

// ReturnLocation extracts the origin from a login location, or "/".
func ReturnLocation(location string) string {
	parsed, err := url.Parse(location)
	if err != nil {
		return "/"
	}
	if from := parsed.Query().Get(redirectParam); from != "" {
		return from
	}
	return "/"
}
