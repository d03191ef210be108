package matcher

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/PuerkitoBio/goquery"
)

const (
	// RequiredNeed marks appointments covered by the state health insurance fund.
	RequiredNeed  = "Ligonių kasos"
	TableSelector = "table.table tbody"
	dateLayout    = "2006-01-02"
)

var dateRe = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)

// Vilnius is the timezone the booking site shows appointment dates in.
var Vilnius = mustLoadLocation("Europe/Vilnius")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(fmt.Sprintf("can't load location %s: %v", name, err))
	}
	return loc
}

type DateRule struct {
	DaysAhead            int
	ExcludeOrganizations []string
}

// AllowedDates lists the YYYY-MM-DD days from today to today+daysAhead-1
// inclusive, as seen in Vilnius.
func AllowedDates(now time.Time, daysAhead int) []string {
	local := now.In(Vilnius)
	dates := make([]string, 0, daysAhead)
	for i := range daysAhead {
		dates = append(dates, local.AddDate(0, 0, i).Format(dateLayout))
	}
	return dates
}

// FindEarliestDate scans the results table in html and returns the first
// appointment date that is inside the rule's window. Rows of excluded
// organizations and rows not covered by the insurance fund are skipped.
func FindEarliestDate(html string, rule DateRule, now time.Time) (string, bool, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", false, fmt.Errorf("can't parse results page: %w", err)
	}

	allowed := make(map[string]struct{}, rule.DaysAhead)
	for _, d := range AllowedDates(now, rule.DaysAhead) {
		allowed[d] = struct{}{}
	}

	var found string
	doc.Find(TableSelector).First().Find("tr").EachWithBreak(func(_ int, tr *goquery.Selection) bool {
		tds := tr.Find("td")
		if tds.Length() < 5 {
			return true
		}

		org := strings.TrimSpace(tds.Eq(0).Text())
		if excluded(org, rule.ExcludeOrganizations) {
			return true
		}
		if CollapseSpace(tds.Eq(2).Text()) != RequiredNeed {
			return true
		}

		m := dateRe.FindStringSubmatch(CollapseSpace(tds.Eq(4).Text()))
		if m == nil {
			return true
		}
		if _, ok := allowed[m[1]]; ok {
			found = m[1]
			return false
		}
		return true
	})

	return found, found != "", nil
}

func excluded(org string, orgs []string) bool {
	for _, o := range orgs {
		if o != "" && strings.Contains(org, o) {
			return true
		}
	}
	return false
}
