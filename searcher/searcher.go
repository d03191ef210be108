package searcher

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"time"

	"ipr-watch/heartbeat"
	"ipr-watch/matcher"
	"ipr-watch/model"
	"ipr-watch/poll"
	"ipr-watch/utils"

	"golang.org/x/sync/errgroup"
)

const (
	MunicipalityInput = "#municipalityInput"
	PractitionerInput = "#practitionerInput"
	ServiceInput      = "#serviceInput"
	SearchButton      = "#searchButton"

	timeLayout = "2006-01-02 15:04:05"
)

type Browser interface {
	// NewPage opens a page in a fresh isolated browsing context.
	NewPage(ctx context.Context) (Page, error)
	Close() error
}

type Page interface {
	Open(ctx context.Context, url string) error
	// Select ensures the searchable dropdown under root has sel committed.
	Select(ctx context.Context, root string, sel model.Selection) (string, error)
	Click(ctx context.Context, selector string) error
	Text(ctx context.Context) (string, error)
	HTML(ctx context.Context) (string, error)
	Screenshot(ctx context.Context) ([]byte, error)
	Close() error
}

type Notifier interface {
	SendMessage(ctx context.Context, text string) error
	SendPhoto(ctx context.Context, caption string, png []byte) error
}

type LaunchFunc func(ctx context.Context) (Browser, error)

type Options struct {
	URL           string
	ResultTimeout time.Duration
	PollInterval  time.Duration
	OK            heartbeat.Schedule
	NotFound      heartbeat.Schedule
}

type Searcher struct {
	launch   LaunchFunc
	notifier Notifier
	opts     Options
	now      func() time.Time
}

func New(launch LaunchFunc, notifier Notifier, opts Options) *Searcher {
	return &Searcher{
		launch:   launch,
		notifier: notifier,
		opts:     opts,
		now:      time.Now,
	}
}

// Run checks every search in its own browsing context, all at once, and
// sends the OK heartbeat when due. Failed searches are logged and reported
// in their outcome; only a browser that can't be launched fails the run.
func (s *Searcher) Run(ctx context.Context, searches []model.Search) ([]model.Outcome, error) {
	browser, err := s.launch(ctx)
	if err != nil {
		err = fmt.Errorf("can't launch browser: %w", err)
		if sendErr := s.notifier.SendMessage(ctx, FailureMessage(err, s.localTime())); sendErr != nil {
			slog.Error("failure notice send failed", slog.String("error", sendErr.Error()))
		}
		return nil, err
	}
	defer func() {
		if err := browser.Close(); err != nil {
			slog.Error("can't close browser", slog.String("error", err.Error()))
		}
	}()

	outcomes := make([]model.Outcome, len(searches))
	var g errgroup.Group
	for i, search := range searches {
		g.Go(func() error {
			outcomes[i] = s.check(ctx, browser, search)
			return outcomes[i].Err
		})
	}
	if err := g.Wait(); err != nil {
		slog.Warn("not all searches completed", slog.String("error", err.Error()))
	}

	if s.opts.OK.Due(s.now()) {
		message := fmt.Sprintf("<b>%v OK</b> %s", utils.EmojiGreenCircle, s.localTime())
		if err := s.notifier.SendMessage(ctx, message); err != nil {
			slog.Error("heartbeat send failed", slog.String("error", err.Error()))
		} else {
			slog.Info("heartbeat sent")
		}
	}

	return outcomes, nil
}

func (s *Searcher) check(ctx context.Context, browser Browser, search model.Search) model.Outcome {
	log := slog.With(slog.String("search", search.DisplayName()))
	out := model.Outcome{Search: search.DisplayName(), Label: search.Label()}

	page, err := browser.NewPage(ctx)
	if err != nil {
		out.Err = fmt.Errorf("can't open page: %w", err)
		log.Error("can't open page", slog.String("error", err.Error()))
		return out
	}
	defer func() {
		if err := page.Close(); err != nil {
			log.Debug("can't close page", slog.String("error", err.Error()))
		}
	}()

	if err := s.fillForm(ctx, log, page, search); err != nil {
		out.Err = err
		log.Error("search aborted", slog.String("error", err.Error()))
		return out
	}

	out.Date, out.Found = s.evaluate(ctx, log, page, search)
	out.CheckedAt = s.now()

	if out.Found {
		log.Info("FOUND", slog.String("label", out.Label), slog.String("date", out.Date))
		s.sendScreenshot(ctx, log, page, FoundCaption(search, s.localTime()))
	} else {
		log.Info("NOT FOUND", slog.String("label", out.Label))
		if s.opts.NotFound.Due(out.CheckedAt) {
			s.sendScreenshot(ctx, log, page, NotFoundCaption(search, s.localTime()))
		}
	}

	return out
}

func (s *Searcher) fillForm(ctx context.Context, log *slog.Logger, page Page, search model.Search) error {
	if err := page.Open(ctx, s.opts.URL); err != nil {
		return fmt.Errorf("can't open %s: %w", s.opts.URL, err)
	}

	muni, err := page.Select(ctx, MunicipalityInput, search.Municipality)
	if err != nil {
		return fmt.Errorf("can't select municipality %q: %w", search.Municipality.Text, err)
	}
	log.Info("municipality selected", slog.String("value", muni))

	if search.Practitioner.Text != "" {
		pract, err := page.Select(ctx, PractitionerInput, search.Practitioner)
		if err != nil {
			return fmt.Errorf("can't select practitioner %q: %w", search.Practitioner.Text, err)
		}
		log.Info("practitioner selected", slog.String("value", pract))
	}

	if search.Service.Text != "" {
		service, err := page.Select(ctx, ServiceInput, search.Service)
		if err != nil {
			return fmt.Errorf("can't select service %q: %w", search.Service.Text, err)
		}
		log.Info("service selected", slog.String("value", service))
	}

	// results may already be listed after the selections
	if err := page.Click(ctx, SearchButton); err != nil {
		log.Debug("can't click search button", slog.String("error", err.Error()))
	}

	return nil
}

// evaluate polls the results until they match or the result timeout runs out.
// A timeout is a normal "not found".
func (s *Searcher) evaluate(ctx context.Context, log *slog.Logger, page Page, search model.Search) (string, bool) {
	var date string
	var cond func(ctx context.Context) (bool, error)

	if search.EarliestDate {
		rule := matcher.DateRule{
			DaysAhead:            search.DaysAhead,
			ExcludeOrganizations: search.ExcludeOrganizations,
		}
		cond = func(ctx context.Context) (bool, error) {
			content, err := page.HTML(ctx)
			if err != nil {
				return false, err
			}
			d, ok, err := matcher.FindEarliestDate(content, rule, s.now())
			date = d
			return ok, err
		}
	} else {
		cond = func(ctx context.Context) (bool, error) {
			text, err := page.Text(ctx)
			if err != nil {
				return false, err
			}
			return matcher.ContainsFolded(text, search.TargetResultText), nil
		}
	}

	err := poll.Until(ctx, s.opts.ResultTimeout, s.opts.PollInterval, cond)
	if err != nil {
		if !errors.Is(err, poll.ErrTimeout) {
			log.Warn("result polling interrupted", slog.String("error", err.Error()))
		}
		return "", false
	}

	return date, true
}

func (s *Searcher) sendScreenshot(ctx context.Context, log *slog.Logger, page Page, caption string) {
	png, err := page.Screenshot(ctx)
	if err != nil {
		log.Error("can't take screenshot", slog.String("error", err.Error()))
		return
	}
	if err := s.notifier.SendPhoto(ctx, caption, png); err != nil {
		log.Error("photo send failed", slog.String("error", err.Error()))
		return
	}
	log.Info("photo notification sent")
}

func (s *Searcher) localTime() string {
	return s.now().In(matcher.Vilnius).Format(timeLayout)
}

func FoundCaption(search model.Search, at string) string {
	return fmt.Sprintf("%v <b>Rasta paslauga</b>\nSavivaldybė: %s\nPaslauga: %s\nLaikas: %s",
		utils.EmojiCheck, html.EscapeString(search.Municipality.Text), html.EscapeString(search.Label()), at)
}

func NotFoundCaption(search model.Search, at string) string {
	return fmt.Sprintf("<b>Not found</b>\nPaslauga: %s\nSavivaldybė: %s\nLaikas: %s",
		html.EscapeString(search.Label()), html.EscapeString(search.Municipality.Text), at)
}

func FailureMessage(err error, at string) string {
	return fmt.Sprintf("%v <b>Check failed</b>\n%s\nLaikas: %s",
		utils.EmojiWarning, html.EscapeString(err.Error()), at)
}
