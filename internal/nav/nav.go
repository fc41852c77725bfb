// Package nav tracks which page of the shell is showing.
package nav

import (
	"fmt"
	"strings"
	"sync"
)

type Page int

const (
	Home Page = iota
	Embed
	Extract
	Settings
	pageCount
)

var names = [...]string{"home", "embed", "extract", "settings"}

func (p Page) String() string {
	if p < 0 || p >= pageCount {
		return fmt.Sprintf("Page(%d)", int(p))
	}
	return names[p]
}

// ParsePage maps a page name to its Page.
func ParsePage(name string) (Page, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range names {
		if n == name {
			return Page(i), true
		}
	}
	return 0, false
}

// Navigator holds the single active page. There is no history: showing a
// page only moves the pointer.
type Navigator struct {
	mu        sync.Mutex
	active    Page
	disabled  map[Page]bool
	listeners []func(Page)
}

type Option func(*Navigator)

// WithoutSettings builds a navigator whose settings page does not exist.
func WithoutSettings() Option {
	return func(n *Navigator) {
		n.disabled[Settings] = true
	}
}

// New returns a Navigator showing Home.
func New(opts ...Option) *Navigator {
	n := &Navigator{active: Home, disabled: map[Page]bool{}}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Has reports whether p is a page of this navigator.
func (n *Navigator) Has(p Page) bool {
	return p >= 0 && p < pageCount && !n.disabled[p]
}

// Pages lists the available pages in sidebar order.
func (n *Navigator) Pages() []Page {
	var out []Page
	for p := Home; p < pageCount; p++ {
		if n.Has(p) {
			out = append(out, p)
		}
	}
	return out
}

// Show makes p the active page and notifies subscribers, also when p is
// already active. An unknown page is a programming error and panics.
func (n *Navigator) Show(p Page) {
	if !n.Has(p) {
		panic(fmt.Sprintf("nav: no page %v", p))
	}
	n.mu.Lock()
	n.active = p
	listeners := append([]func(Page){}, n.listeners...)
	n.mu.Unlock()
	for _, fn := range listeners {
		fn(p)
	}
}

// ShowName is Show by page name. It panics on unknown names.
func (n *Navigator) ShowName(name string) {
	p, ok := ParsePage(name)
	if !ok {
		panic(fmt.Sprintf("nav: no page named %q", name))
	}
	n.Show(p)
}

func (n *Navigator) Active() Page {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.active
}

// Visible reports whether p is the active page.
func (n *Navigator) Visible(p Page) bool {
	return n.Active() == p
}

// Subscribe registers fn to run after every Show.
func (n *Navigator) Subscribe(fn func(Page)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.listeners = append(n.listeners, fn)
}
