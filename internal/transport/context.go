package transport

import (
	"context"
	"errors"
	"sync"
)

type ctxKey string

const navigationKey ctxKey = "navigation"

var errNoNavigation = errors.New("navigation requested outside an HTTP request")

// navigation collects the redirect an orchestrator asks for while serving
// one request, so the response can carry it to the browser.
type navigation struct {
	mu  sync.Mutex
	url string
}

func withNavigation(ctx context.Context) (context.Context, *navigation) {
	nav := &navigation{}
	return context.WithValue(ctx, navigationKey, nav), nav
}

func navigationFrom(ctx context.Context) *navigation {
	nav, _ := ctx.Value(navigationKey).(*navigation)
	return nav
}

func (n *navigation) set(url string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.url = url
}

func (n *navigation) URL() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.url
}

// Navigator hands redirects to the browser through the current response.
type Navigator struct{}

func (Navigator) NavigateTo(ctx context.Context, url string) error {
	nav := navigationFrom(ctx)
	if nav == nil {
		return errNoNavigation
	}
	nav.set(url)
	return nil
}
