package service

import "time"

// SelectorKind identifies how a selector value locates an element.
type SelectorKind string

const (
	ByID    SelectorKind = "id"
	ByXPath SelectorKind = "xpath"
	ByCSS   SelectorKind = "css"
	ByName  SelectorKind = "name"
	ByClass SelectorKind = "class"
	ByTag   SelectorKind = "tag"
)

// Browser is the capability contract the engine needs from a browser
// session. The ERP exposes no stable identifiers beyond visible text and
// position, so every operation takes a bounded timeout instead of relying
// on a global one.
type Browser interface {
	Navigate(url string) error
	// WaitVisible reports whether the element became visible within the
	// timeout. A false return distinguishes "not rendered yet" from a
	// driver failure, which the other methods report as errors.
	WaitVisible(kind SelectorKind, sel string, timeout time.Duration) bool
	SetValue(kind SelectorKind, sel, text string, timeout time.Duration) error
	Click(kind SelectorKind, sel string, timeout time.Duration, viaScript bool) error
	Text(kind SelectorKind, sel string, timeout time.Duration) (string, error)
	Attribute(kind SelectorKind, sel, attr string, timeout time.Duration) (string, error)
	ExecScript(script string) error
	Screenshot(path string) error
	Sleep(d time.Duration)
	Close() error
}
