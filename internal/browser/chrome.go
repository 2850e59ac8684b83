package browser

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/pkg/errors"
	"github.com/viniausta/repasse-medico/pkg/service"
)

// Chrome drives a Chrome session over the DevTools protocol and implements
// the engine's browser contract. One instance is one session.
type Chrome struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
}

// New starts a Chrome session. Dev runs keep the window visible so the
// operator can watch the ERP script.
func New(headless bool) (*Chrome, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", headless),
		chromedp.Flag("start-maximized", true),
		chromedp.Flag("disable-popup-blocking", true),
		chromedp.Flag("disable-notifications", true),
		chromedp.Flag("disable-gpu", true),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	ctx, cancel := chromedp.NewContext(allocCtx)
	if err := chromedp.Run(ctx); err != nil {
		cancel()
		allocCancel()
		return nil, errors.Wrap(err, "start chrome")
	}
	return &Chrome{ctx: ctx, cancel: cancel, allocCancel: allocCancel}, nil
}

func (c *Chrome) run(timeout time.Duration, actions ...chromedp.Action) error {
	ctx, cancel := context.WithTimeout(c.ctx, timeout)
	defer cancel()
	return chromedp.Run(ctx, actions...)
}

// query maps a selector kind to a chromedp query. Everything except xpath
// is expressed as a CSS query; xpath goes through the DevTools search API.
func query(kind service.SelectorKind, sel string) (string, chromedp.QueryOption) {
	switch kind {
	case service.ByID:
		return "#" + sel, chromedp.ByQuery
	case service.ByName:
		return fmt.Sprintf(`[name=%q]`, sel), chromedp.ByQuery
	case service.ByClass:
		return "." + sel, chromedp.ByQuery
	case service.ByXPath:
		return sel, chromedp.BySearch
	default: // css, tag
		return sel, chromedp.ByQuery
	}
}

func (c *Chrome) Navigate(url string) error {
	return c.run(30*time.Second, chromedp.Navigate(url))
}

func (c *Chrome) WaitVisible(kind service.SelectorKind, sel string, timeout time.Duration) bool {
	q, opt := query(kind, sel)
	return c.run(timeout, chromedp.WaitVisible(q, opt)) == nil
}

func (c *Chrome) SetValue(kind service.SelectorKind, sel, text string, timeout time.Duration) error {
	q, opt := query(kind, sel)
	return c.run(timeout, chromedp.SetValue(q, text, opt))
}

func (c *Chrome) Click(kind service.SelectorKind, sel string, timeout time.Duration, viaScript bool) error {
	if viaScript {
		return c.run(timeout, chromedp.Evaluate(clickScript(kind, sel), nil))
	}
	q, opt := query(kind, sel)
	return c.run(timeout, chromedp.Click(q, opt))
}

func (c *Chrome) Text(kind service.SelectorKind, sel string, timeout time.Duration) (string, error) {
	q, opt := query(kind, sel)
	var out string
	if err := c.run(timeout, chromedp.Text(q, &out, opt)); err != nil {
		return "", err
	}
	return out, nil
}

func (c *Chrome) Attribute(kind service.SelectorKind, sel, attr string, timeout time.Duration) (string, error) {
	q, opt := query(kind, sel)
	var value string
	var ok bool
	if err := c.run(timeout, chromedp.AttributeValue(q, attr, &value, &ok, opt)); err != nil {
		return "", err
	}
	if !ok {
		return "", errors.Errorf("attribute %q not present on %s", attr, sel)
	}
	return value, nil
}

func (c *Chrome) ExecScript(script string) error {
	return c.run(10*time.Second, chromedp.Evaluate(script, nil))
}

func (c *Chrome) Screenshot(path string) error {
	var buf []byte
	err := c.run(15*time.Second, chromedp.ActionFunc(func(ctx context.Context) error {
		b, err := page.CaptureScreenshot().Do(ctx)
		if err != nil {
			return err
		}
		buf = b
		return nil
	}))
	if err != nil {
		return errors.Wrap(err, "capture screenshot")
	}
	return os.WriteFile(path, buf, 0o644)
}

func (c *Chrome) Sleep(d time.Duration) {
	time.Sleep(d)
}

func (c *Chrome) Close() error {
	err := chromedp.Cancel(c.ctx)
	c.cancel()
	c.allocCancel()
	return err
}

// clickScript builds a JS click for elements that reject synthetic mouse
// events, as some Tasy grid cells do.
func clickScript(kind service.SelectorKind, sel string) string {
	if kind == service.ByXPath {
		return fmt.Sprintf(
			`document.evaluate(%q, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue.click();`, sel)
	}
	q, _ := query(kind, sel)
	return fmt.Sprintf(`document.querySelector(%q).click();`, q)
}
