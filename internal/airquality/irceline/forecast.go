package irceline

import (
	"context"
	"net/url"
	"strconv"
	"sync"

	"cloud.google.com/go/civil"
	"golang.org/x/sync/errgroup"

	"github.com/breatheroute/irceline/internal/airquality"
)

// ForecastClient probes the forecast maps through the WMS service, one
// request per feature and day offset.
type ForecastClient struct {
	base
}

// NewForecastClient creates a new forecast WMS client.
func NewForecastClient(cfg ClientConfig) *ForecastClient {
	return &ForecastClient{base: newBase(ProviderForecast, DefaultForecastWMSURL, cfg)}
}

// FetchForecast returns the forecasts issued on issued for that day and the
// following four. See fetchForecastDays for the fallback rules.
func (c *ForecastClient) FetchForecast(ctx context.Context, features []airquality.ForecastFeature, pos airquality.Position, issued civil.Date) (map[airquality.ForecastKey]airquality.FeatureValue, error) {
	if err := validateForecast(c.provider, "GetFeatureInfo", features, pos, issued); err != nil {
		return nil, err
	}

	fetch := func(ctx context.Context, f airquality.ForecastFeature, issue civil.Date, offset int) (airquality.FeatureValue, error) {
		layer := string(f) + "_d" + strconv.Itoa(offset)
		fv, err := c.probe(ctx, layer, pos, url.Values{"time": {issue.String()}})
		if err != nil {
			return fv, err
		}
		if fv.Time == nil {
			fv.Date = &issue
		}
		return fv, nil
	}
	return fetchForecastDays(ctx, &c.base, features, issued, fetch), nil
}

// Capabilities returns the layers offered by the forecast WMS service.
func (c *ForecastClient) Capabilities(ctx context.Context) ([]string, error) {
	return c.wmsCapabilities(ctx, c.baseURL)
}

// dayFetcher retrieves one feature from the forecast issued on issue at the
// given day offset.
type dayFetcher func(ctx context.Context, f airquality.ForecastFeature, issue civil.Date, offset int) (airquality.FeatureValue, error)

// fetchForecastDays fans out one fetch per feature and day offset. Every
// result is keyed by its target day issued+d. When the primary fetch fails,
// the forecast issued the day before is tried once at offset d+1, which
// targets the same day; its value keeps the date of the forecast it came
// from. When both fail, the slot holds an absent value dated issued.
func fetchForecastDays(ctx context.Context, b *base, features []airquality.ForecastFeature, issued civil.Date, fetch dayFetcher) map[airquality.ForecastKey]airquality.FeatureValue {
	var (
		mu     sync.Mutex
		result = make(map[airquality.ForecastKey]airquality.FeatureValue, len(features)*airquality.ForecastDays)
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)
	for _, f := range features {
		for d := 0; d < airquality.ForecastDays; d++ {
			g.Go(func() error {
				fv := fetchForecastDay(gctx, b, f, issued, d, fetch)

				mu.Lock()
				defer mu.Unlock()
				result[airquality.ForecastKey{Feature: f, Day: issued.AddDays(d)}] = fv
				return nil
			})
		}
	}
	_ = g.Wait()

	return result
}

func fetchForecastDay(ctx context.Context, b *base, f airquality.ForecastFeature, issued civil.Date, d int, fetch dayFetcher) airquality.FeatureValue {
	fv, err := fetch(ctx, f, issued, d)
	if err == nil {
		return fv
	}

	log := b.logger.Warn().Err(err).Str("feature", string(f)).Str("issued", issued.String()).Int("offset", d)
	if d+1 >= airquality.ForecastDays {
		log.Msg("forecast unavailable")
		return airquality.MissingOn(issued)
	}
	log.Msg("forecast unavailable, trying previous issue")

	previous := issued.AddDays(-1)
	fv, err = fetch(ctx, f, previous, d+1)
	if err != nil {
		b.logger.Warn().Err(err).
			Str("feature", string(f)).
			Str("issued", previous.String()).
			Int("offset", d+1).
			Msg("previous forecast unavailable")
		return airquality.MissingOn(issued)
	}
	return fv
}

func validateForecast(provider, op string, features []airquality.ForecastFeature, pos airquality.Position, issued civil.Date) error {
	if len(features) == 0 {
		return invalidParameter(provider, op, "no features requested")
	}
	for _, f := range features {
		if !f.Valid() {
			return invalidParameter(provider, op, "unknown feature %q", f)
		}
	}
	if err := pos.Validate(); err != nil {
		return invalidParameter(provider, op, "%w", err)
	}
	if !issued.IsValid() {
		return invalidParameter(provider, op, "invalid issue date %q", issued)
	}
	return nil
}
