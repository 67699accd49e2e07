package irceline

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/breatheroute/irceline/internal/airquality"
)

// RioIfdmClient probes the RIO-IFDM fine grid through the WMS service, one
// request per feature.
type RioIfdmClient struct {
	base
}

// NewRioIfdmClient creates a new RIO-IFDM WMS client.
func NewRioIfdmClient(cfg ClientConfig) *RioIfdmClient {
	return &RioIfdmClient{base: newBase(ProviderRioIfdm, DefaultRioIfdmWMSURL, cfg)}
}

// FetchValues probes every feature at pos concurrently. A probe that fails
// or returns a malformed payload yields an absent value stamped with the
// request time. The call only fails when every probe hit a communication
// error.
func (c *RioIfdmClient) FetchValues(ctx context.Context, features []airquality.RioIfdmFeature, pos airquality.Position) (map[airquality.RioIfdmFeature]airquality.FeatureValue, error) {
	const op = "GetFeatureInfo"

	if len(features) == 0 {
		return nil, invalidParameter(c.provider, op, "no features requested")
	}
	for _, f := range features {
		if !f.Valid() {
			return nil, invalidParameter(c.provider, op, "unknown feature %q", f)
		}
	}
	if err := pos.Validate(); err != nil {
		return nil, invalidParameter(c.provider, op, "%w", err)
	}

	requested := c.now().UTC()
	var (
		mu       sync.Mutex
		result   = make(map[airquality.RioIfdmFeature]airquality.FeatureValue, len(features))
		failures int
		firstErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for _, f := range features {
		g.Go(func() error {
			fv, err := c.probe(gctx, string(f), pos, nil)
			if err != nil {
				c.logger.Warn().Err(err).Str("feature", string(f)).Msg("rioifdm probe failed")
				fv = airquality.MissingAt(requested)
			}

			mu.Lock()
			defer mu.Unlock()
			result[f] = fv
			if err != nil && !errors.Is(err, errMalformedProbe) {
				failures++
				if firstErr == nil {
					firstErr = err
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	if failures == len(features) {
		return nil, firstErr
	}
	return result, nil
}

// Capabilities returns the layers offered by the RIO-IFDM WMS service.
func (c *RioIfdmClient) Capabilities(ctx context.Context) ([]string, error) {
	return c.wmsCapabilities(ctx, c.baseURL)
}
