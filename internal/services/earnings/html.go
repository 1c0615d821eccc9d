package earnings

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"VolScreen/internal/domain/models"
	domsvc "VolScreen/internal/domain/service"
	xhttp "VolScreen/pkg/http"

	"github.com/PuerkitoBio/goquery"
)

// HTMLSource scrapes an earnings-history page and reads the "Surprise(%)"
// column of the most recent reported quarter. urlTemplate takes the symbol
// through a single %s verb.
type HTMLSource struct {
	urlTemplate string
	client      *xhttp.Client
}

func NewHTMLSource(urlTemplate string, timeout time.Duration) *HTMLSource {
	return &HTMLSource{
		urlTemplate: urlTemplate,
		client: xhttp.NewClient(
			xhttp.WithTimeout(timeout),
			xhttp.WithUserAgent("Mozilla/5.0 (compatible; VolScreen/1.0)"),
		),
	}
}

func (s *HTMLSource) LatestSurprise(ctx context.Context, symbol string) (float64, error) {
	var body []byte
	err := s.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodGet,
		URL:     fmt.Sprintf(s.urlTemplate, symbol),
		Headers: map[string]string{"Accept": "text/html"},
	}, &body)
	if err != nil {
		var se *xhttp.StatusError
		if errors.As(err, &se) && se.Code == http.StatusNotFound {
			return 0, fmt.Errorf("earnings %s: %v: %w", symbol, err, models.ErrDataUnavailable)
		}
		return 0, fmt.Errorf("earnings %s: %v: %w", symbol, err, models.ErrProviderFailure)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("earnings %s: parse html: %v: %w", symbol, err, models.ErrProviderFailure)
	}
	v, err := ParseSurpriseTable(doc)
	if err != nil {
		return 0, fmt.Errorf("earnings %s: %w", symbol, err)
	}
	return v, nil
}

// ParseSurpriseTable finds the first table with a surprise column and returns
// the value of its most recent row. A "%" surprise header is preferred over an
// absolute one. Rows are ordered by a parseable date column
// when one exists, otherwise the last row wins.
func ParseSurpriseTable(doc *goquery.Document) (float64, error) {
	var (
		value float64
		err   = fmt.Errorf("no earnings table: %w", models.ErrDataUnavailable)
		found bool
	)

	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		// A percentage surprise column beats an absolute one.
		surpriseCol, percentCol, dateCol := -1, -1, -1
		table.Find("tr").First().Find("th,td").Each(func(i int, cell *goquery.Selection) {
			h := strings.ToLower(strings.TrimSpace(cell.Text()))
			switch {
			case strings.Contains(h, "surprise"):
				if surpriseCol < 0 {
					surpriseCol = i
				}
				if percentCol < 0 && strings.Contains(h, "%") {
					percentCol = i
				}
			case strings.Contains(h, "date") && dateCol < 0:
				dateCol = i
			}
		})
		if percentCol >= 0 {
			surpriseCol = percentCol
		}
		if surpriseCol < 0 {
			return true
		}
		found = true

		var (
			latestRaw  string
			latestDate time.Time
			haveRow    bool
		)
		table.Find("tr").Slice(1, goquery.ToEnd).Each(func(_ int, row *goquery.Selection) {
			cells := row.Find("td")
			if cells.Length() <= surpriseCol {
				return
			}
			raw := strings.TrimSpace(cells.Eq(surpriseCol).Text())
			if dateCol >= 0 && cells.Length() > dateCol {
				if d, ok := parseDate(cells.Eq(dateCol).Text()); ok {
					if !haveRow || !d.Before(latestDate) {
						latestRaw, latestDate, haveRow = raw, d, true
					}
					return
				}
			}
			latestRaw, haveRow = raw, true
		})
		if !haveRow {
			err = fmt.Errorf("earnings table has no rows: %w", models.ErrDataUnavailable)
			return false
		}
		value, err = parsePercent(latestRaw)
		return false
	})

	if !found {
		return 0, err
	}
	return value, err
}

func parsePercent(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "%")
	s = strings.TrimPrefix(s, "+")
	s = strings.ReplaceAll(s, ",", "")
	switch strings.ToLower(s) {
	case "", "-", "--", "n/a", "na":
		return 0, fmt.Errorf("surprise not reported: %w", models.ErrDataUnavailable)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("surprise %q: %w", s, models.ErrDataUnavailable)
	}
	return v, nil
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.DateOnly, "Jan 2, 2006", "1/2/2006", "Jan 2, 2006, 3 PM MST"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

var _ domsvc.EarningsSource = (*HTMLSource)(nil)
