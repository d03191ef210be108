package ngselect

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"ipr-watch/poll"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeControl emulates an ng-select whose option list is filtered by typed
// text and commits the clicked option as its value.
type fakeControl struct {
	value   string
	options []string
	panelID string
	typed   string

	opens, clears, clicks int
	typedCalls            []string
}

func (f *fakeControl) Value(context.Context) string { return f.value }

func (f *fakeControl) Open(context.Context) error {
	f.opens++
	return nil
}

func (f *fakeControl) Clear(context.Context) error {
	f.clears++
	f.typed = ""
	return nil
}

func (f *fakeControl) Type(_ context.Context, text string) error {
	f.typedCalls = append(f.typedCalls, text)
	f.typed += text
	return nil
}

func (f *fakeControl) PanelID(context.Context) (string, error) { return f.panelID, nil }

func (f *fakeControl) HasOption(_ context.Context, _ string, text string) (bool, error) {
	for _, o := range f.options {
		if strings.Contains(o, f.typed) && strings.Join(strings.Fields(o), " ") == text {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeControl) ClickOption(_ context.Context, _ string, text string) error {
	f.clicks++
	f.value = text
	return nil
}

func (f *fakeControl) interactions() int {
	return f.opens + f.clears + f.clicks + len(f.typedCalls)
}

var driver = Driver{StepTimeout: 50 * time.Millisecond, PollInterval: time.Millisecond}

func TestEnsureSelectedPicksOption(t *testing.T) {
	c := &fakeControl{
		panelID: "a1b2c3",
		options: []string{"Vilniaus r. sav.", "Vilniaus  m. sav.", "Kauno m. sav."},
	}

	got, err := driver.EnsureSelected(context.Background(), c, "Vilniaus m. sav.", "Vilniaus")
	require.NoError(t, err)
	assert.Equal(t, "Vilniaus m. sav.", got)
	assert.Equal(t, 1, c.opens)
	assert.Equal(t, 1, c.clears)
	assert.Equal(t, []string{"Vilniaus"}, c.typedCalls)
	assert.Equal(t, 1, c.clicks)
}

func TestEnsureSelectedIsIdempotent(t *testing.T) {
	c := &fakeControl{
		panelID: "a1b2c3",
		options: []string{"Vilniaus m. sav."},
	}

	_, err := driver.EnsureSelected(context.Background(), c, "Vilniaus m. sav.", "Vilniaus")
	require.NoError(t, err)
	before := c.interactions()

	got, err := driver.EnsureSelected(context.Background(), c, "Vilniaus m. sav.", "Vilniaus")
	require.NoError(t, err)
	assert.Equal(t, "Vilniaus m. sav.", got)
	assert.Equal(t, before, c.interactions())
}

func TestEnsureSelectedKeepsExistingValue(t *testing.T) {
	c := &fakeControl{value: "× Vilniaus m. sav."}

	got, err := driver.EnsureSelected(context.Background(), c, "Vilniaus m. sav.", "Vilniaus")
	require.NoError(t, err)
	assert.Equal(t, "× Vilniaus m. sav.", got)
	assert.Zero(t, c.interactions())
}

func TestEnsureSelectedWithoutSearchFragment(t *testing.T) {
	c := &fakeControl{panelID: "p", options: []string{"Kardiologija"}}

	got, err := driver.EnsureSelected(context.Background(), c, "Kardiologija", "")
	require.NoError(t, err)
	assert.Equal(t, "Kardiologija", got)
	assert.Zero(t, c.clears)
	assert.Empty(t, c.typedCalls)
}

func TestEnsureSelectedFallsBackToDocument(t *testing.T) {
	c := &fakeControl{options: []string{"Kardiologija"}}

	got, err := driver.EnsureSelected(context.Background(), c, "Kardiologija", "Kardio")
	require.NoError(t, err)
	assert.Equal(t, "Kardiologija", got)
}

func TestEnsureSelectedTimesOutOnMissingOption(t *testing.T) {
	c := &fakeControl{panelID: "p", options: []string{"Kauno m. sav."}}

	_, err := driver.EnsureSelected(context.Background(), c, "Vilniaus m. sav.", "Vilniaus")
	require.Error(t, err)
	assert.True(t, errors.Is(err, poll.ErrTimeout))
	assert.Zero(t, c.clicks)
}
