// Package ngselect drives Angular ng-select dropdowns: the searchable
// selection controls used by the booking form.
package ngselect

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"ipr-watch/poll"
)

// Control is one ng-select instance on a page.
type Control interface {
	// Value returns the committed display text, or "" when it can't be read.
	Value(ctx context.Context) string
	// Open clicks the control and waits for its search input.
	Open(ctx context.Context) error
	Clear(ctx context.Context) error
	Type(ctx context.Context, text string) error
	// PanelID returns the id of the options panel, "" if not rendered yet.
	PanelID(ctx context.Context) (string, error)
	// HasOption reports whether an option labelled text is in the panel, or
	// anywhere in the document when panelID is empty.
	HasOption(ctx context.Context, panelID, text string) (bool, error)
	ClickOption(ctx context.Context, panelID, text string) error
}

type Driver struct {
	StepTimeout  time.Duration
	PollInterval time.Duration
}

// EnsureSelected makes sure the control's committed value contains target,
// picking it through the UI only when it does not. A target option that
// never shows up fails with poll.ErrTimeout.
func (d Driver) EnsureSelected(ctx context.Context, c Control, target, searchFragment string) (string, error) {
	if current := c.Value(ctx); current != "" && strings.Contains(current, target) {
		slog.Debug("already selected", slog.String("value", current))
		return current, nil
	}

	if err := c.Open(ctx); err != nil {
		return "", fmt.Errorf("can't open control: %w", err)
	}

	if searchFragment != "" {
		if err := c.Clear(ctx); err != nil {
			return "", fmt.Errorf("can't clear control input: %w", err)
		}
		if err := c.Type(ctx, searchFragment); err != nil {
			return "", fmt.Errorf("can't type %q: %w", searchFragment, err)
		}
	}

	var panelID string
	err := poll.Until(ctx, d.StepTimeout, d.PollInterval, func(ctx context.Context) (bool, error) {
		id, err := c.PanelID(ctx)
		panelID = id
		return id != "", err
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		slog.Debug("options panel id not found, searching whole document", slog.String("error", err.Error()))
		panelID = ""
	}

	err = poll.Until(ctx, d.StepTimeout, d.PollInterval, func(ctx context.Context) (bool, error) {
		return c.HasOption(ctx, panelID, target)
	})
	if err != nil {
		return "", fmt.Errorf("option %q did not appear: %w", target, err)
	}

	if err := c.ClickOption(ctx, panelID, target); err != nil {
		return "", fmt.Errorf("can't click option %q: %w", target, err)
	}

	var selected string
	_ = poll.Until(ctx, d.StepTimeout, d.PollInterval, func(ctx context.Context) (bool, error) {
		selected = c.Value(ctx)
		return selected != "", nil
	})

	return selected, nil
}
