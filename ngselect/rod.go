package ngselect

import (
	"context"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
)

const (
	readValueJS = `(root) => {
		const el = document.querySelector(root + ' .ng-value-container');
		return ((el && el.textContent) || '').replace(/\s+/g, ' ').trim();
	}`
	panelIDJS = `(root) => {
		const el = document.querySelector(root + ' .ng-input');
		return (el && el.getAttribute('aria-owns')) || '';
	}`
	findOptionJS = `(pid, text) => {
		const norm = s => (s || '').replace(/\s+/g, ' ').trim();
		const scope = pid ? document.getElementById(pid) : document.body;
		if (!scope) return null;
		return Array.from(scope.querySelectorAll('.ng-option .ng-option-label'))
			.find(el => norm(el.textContent) === norm(text)) || null;
	}`
)

// RodControl is a Control backed by a go-rod page. Root is the CSS selector
// of the element wrapping the ng-select, e.g. "#municipalityInput".
type RodControl struct {
	page        *rod.Page
	root        string
	stepTimeout time.Duration
	typeDelay   time.Duration
}

func NewRodControl(page *rod.Page, root string, stepTimeout, typeDelay time.Duration) *RodControl {
	return &RodControl{
		page:        page,
		root:        root,
		stepTimeout: stepTimeout,
		typeDelay:   typeDelay,
	}
}

func (c *RodControl) Value(ctx context.Context) string {
	res, err := c.page.Context(ctx).Eval(readValueJS, c.root)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

func (c *RodControl) Open(ctx context.Context) error {
	p := c.page.Context(ctx).Timeout(c.stepTimeout)
	return rod.Try(func() {
		p.MustElement(c.root + " .ng-select-container").MustWaitVisible().MustClick()
		p.MustElement(c.root + " .ng-input input").MustWaitVisible()
	})
}

func (c *RodControl) Clear(ctx context.Context) error {
	p := c.page.Context(ctx).Timeout(c.stepTimeout)
	return rod.Try(func() {
		p.MustElement(c.root + " .ng-input input").MustFocus().MustSelectAllText()
		p.Keyboard.MustType(input.Backspace)
	})
}

// Type enters text one character at a time the way a person would; the
// control filters its options on every keystroke.
func (c *RodControl) Type(ctx context.Context, text string) error {
	p := c.page.Context(ctx)
	for _, r := range text {
		if err := p.InsertText(string(r)); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.typeDelay):
		}
	}
	return nil
}

func (c *RodControl) PanelID(ctx context.Context) (string, error) {
	res, err := c.page.Context(ctx).Eval(panelIDJS, c.root)
	if err != nil {
		return "", err
	}
	return res.Value.Str(), nil
}

func (c *RodControl) HasOption(ctx context.Context, panelID, text string) (bool, error) {
	res, err := c.page.Context(ctx).Eval(`(pid, text) => (`+findOptionJS+`)(pid, text) !== null`, panelID, text)
	if err != nil {
		return false, err
	}
	return res.Value.Bool(), nil
}

func (c *RodControl) ClickOption(ctx context.Context, panelID, text string) error {
	_, err := c.page.Context(ctx).Eval(`(pid, text) => {
		const label = (`+findOptionJS+`)(pid, text);
		if (label) label.closest('.ng-option').click();
	}`, panelID, text)
	return err
}
