package index

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/ligustah/diario/internal/edition"
	diariohttp "github.com/ligustah/diario/internal/http"
)

const (
	// DefaultURL is the index endpoint of the publishing platform.
	DefaultURL = "https://engine.procedebahia.com.br/publish/api/diaries"

	// DefaultEntity is the platform's entity code for the Irecê prefecture.
	DefaultEntity = "50"
)

var (
	// ErrInvalidRange is returned for malformed or inverted date ranges.
	ErrInvalidRange = errors.New("index: invalid date range")

	// ErrMalformedEdition is returned when an index entry cannot be decoded.
	ErrMalformedEdition = errors.New("index: malformed edition")
)

// minDate is the earliest date a range may start or end on.
var minDate = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)

// Range is an inclusive calendar date range.
type Range struct {
	Start time.Time
	End   time.Time
}

// ParseRange parses and validates a YYYY-MM-DD date range.
func ParseRange(start, end string) (Range, error) {
	s, err := edition.ParseDate(start)
	if err != nil {
		return Range{}, fmt.Errorf("%w: start date %q: %v", ErrInvalidRange, start, err)
	}
	e, err := edition.ParseDate(end)
	if err != nil {
		return Range{}, fmt.Errorf("%w: end date %q: %v", ErrInvalidRange, end, err)
	}
	r := Range{Start: s, End: e}
	if err := r.Validate(); err != nil {
		return Range{}, err
	}
	return r, nil
}

// Validate checks that both bounds are on or after 1970-01-01 and Start <= End.
func (r Range) Validate() error {
	if r.Start.Before(minDate) {
		return fmt.Errorf("%w: start date %s is before 1970-01-01", ErrInvalidRange, r.Start.Format(edition.DateLayout))
	}
	if r.End.Before(minDate) {
		return fmt.Errorf("%w: end date %s is before 1970-01-01", ErrInvalidRange, r.End.Format(edition.DateLayout))
	}
	if r.End.Before(r.Start) {
		return fmt.Errorf("%w: end date %s is before start date %s", ErrInvalidRange,
			r.End.Format(edition.DateLayout), r.Start.Format(edition.DateLayout))
	}
	return nil
}

// Options configures the index client.
type Options struct {
	// URL is the index endpoint.
	// Default: DefaultURL
	URL string

	// Entity is the cod_entity form value.
	// Default: DefaultEntity
	Entity string

	// Logger receives debug and warning output.
	// Default: slog.Default()
	Logger *slog.Logger
}

// Client queries the gazette index.
type Client struct {
	http *diariohttp.Client
	opts Options
}

// NewClient creates an index client on top of an HTTP client.
func NewClient(httpClient *diariohttp.Client, opts Options) *Client {
	if opts.URL == "" {
		opts.URL = DefaultURL
	}
	if opts.Entity == "" {
		opts.Entity = DefaultEntity
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Client{http: httpClient, opts: opts}
}

// FetchEditions returns every edition the index lists for r.
//
// A non-success status other than a transient rejection yields an empty list
// together with the *http.StatusError describing it. Transient rejections are
// retried by the HTTP client; running out of attempts is an error.
func (c *Client) FetchEditions(ctx context.Context, r Range) ([]edition.Edition, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	form := url.Values{
		"cod_entity": {c.opts.Entity},
		"start_date": {r.Start.Format(edition.DateLayout)},
		"end_date":   {r.End.Format(edition.DateLayout)},
	}

	c.opts.Logger.Debug("index: fetching editions",
		"start", form.Get("start_date"), "end", form.Get("end_date"))

	body, err := c.http.PostForm(ctx, c.opts.URL, form)
	if err != nil {
		var se *diariohttp.StatusError
		if errors.As(err, &se) && !errors.Is(err, diariohttp.ErrRetriesExhausted) {
			c.opts.Logger.Warn("index: unexpected status, returning no editions", "status", se.Code)
			return []edition.Edition{}, err
		}
		return nil, fmt.Errorf("fetch index: %w", err)
	}

	editions, err := Decode(body)
	if err != nil {
		return nil, err
	}

	c.opts.Logger.Debug("index: fetched editions", "count", len(editions))
	return editions, nil
}

type response struct {
	Diaries []map[string]any `json:"diaries"`
}

// Decode parses an index response body.
// Any malformed entry fails the whole decode.
func Decode(body []byte) ([]edition.Edition, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var resp response
	if err := dec.Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode index response: %w", err)
	}

	editions := make([]edition.Edition, 0, len(resp.Diaries))
	for i, raw := range resp.Diaries {
		e, err := decodeEntry(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrMalformedEdition, i, err)
		}
		editions = append(editions, e)
	}
	return editions, nil
}

func decodeEntry(raw map[string]any) (edition.Edition, error) {
	number, err := editionNumber(raw["edicao"])
	if err != nil {
		return edition.Edition{}, err
	}
	if number <= 0 {
		return edition.Edition{}, fmt.Errorf("edicao %d is not positive", number)
	}

	ds, ok := raw["data"].(string)
	if !ok {
		return edition.Edition{}, fmt.Errorf("missing data field")
	}
	date, err := edition.ParseDate(ds)
	if err != nil {
		return edition.Edition{}, fmt.Errorf("data %q: %w", ds, err)
	}

	return edition.Edition{Number: number, Date: date, Raw: raw}, nil
}

// editionNumber accepts edicao as a JSON string or number.
func editionNumber(v any) (int, error) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("edicao %q: %w", n, err)
		}
		return int(i), nil
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return 0, fmt.Errorf("edicao %q: %w", n, err)
		}
		return i, nil
	case nil:
		return 0, fmt.Errorf("missing edicao field")
	default:
		return 0, fmt.Errorf("edicao has unexpected type %T", v)
	}
}

// Pair is an edition rendered as date and number strings.
type Pair struct {
	Date    string
	Edition string
}

// Pairs renders editions as (date, edition) string pairs.
func Pairs(editions []edition.Edition) []Pair {
	out := make([]Pair, len(editions))
	for i, e := range editions {
		out[i] = Pair{Date: e.DateString(), Edition: strconv.Itoa(e.Number)}
	}
	return out
}
