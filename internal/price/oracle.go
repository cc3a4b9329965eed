package price

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Oracle queries its sources in order. It holds no price of its own; the
// dashboard controller keeps the last good value.
type Oracle struct {
	sources []Source
	logger  logrus.FieldLogger
}

// NewOracle returns an oracle trying sources in the given order.
func NewOracle(logger logrus.FieldLogger, sources ...Source) *Oracle {
	return &Oracle{sources: sources, logger: logger}
}

// Fetch returns the first price any source produces. ok is false when every
// source failed.
func (o *Oracle) Fetch(ctx context.Context) (float64, bool) {
	for i, src := range o.sources {
		p, err := src.Fetch(ctx)
		if err == nil {
			return p, true
		}
		if i < len(o.sources)-1 {
			o.logger.WithField("source", src.Name()).Warnf("price source failed, falling back: %v", err)
		} else {
			o.logger.WithField("source", src.Name()).Errorf("all price sources failed: %v", err)
		}
	}
	return 0, false
}
