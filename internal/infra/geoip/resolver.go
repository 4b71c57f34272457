// Package geoip resolves client addresses to countries for payment routing.
package geoip

import (
	"context"
	"log/slog"
	"net"

	"github.com/oschwald/geoip2-golang"
	"github.com/pkg/errors"
	"go.uber.org/fx"

	"coursehub/config"
	"coursehub/internal/domain/service"
)

// maxmindResolver looks countries up in a local MaxMind database.
type maxmindResolver struct {
	db     *geoip2.Reader
	logger *slog.Logger
}

// noopResolver is used when no database is configured. Every lookup is
// unknown, which routes checkout to the default provider.
type noopResolver struct{}

func (noopResolver) CountryCode(string) string { return "" }

// Params holds dependencies for the resolver, injected by Fx.
type Params struct {
	fx.In
	fx.Lifecycle

	Config *config.Config
	Logger *slog.Logger
}

// NewRegionResolver opens the MaxMind country database named in the
// configuration. Without one the resolver degrades to unknown-country.
func NewRegionResolver(params Params) (service.RegionResolver, error) {
	if params.Config.GeoIP == nil || params.Config.GeoIP.DatabasePath == "" {
		params.Logger.Info("GeoIP not configured, using default provider routing")

		return noopResolver{}, nil
	}

	db, err := geoip2.Open(params.Config.GeoIP.DatabasePath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open GeoIP database")
	}

	params.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return db.Close()
		},
	})

	return &maxmindResolver{db: db, logger: params.Logger}, nil
}

// CountryCode returns the ISO country code for an address, or empty when
// the address is unparsable or not in the database.
func (r *maxmindResolver) CountryCode(ip string) string {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return ""
	}

	record, err := r.db.Country(parsed)
	if err != nil {
		r.logger.Debug("GeoIP lookup failed", slog.String("ip", ip), slog.Any("error", err))

		return ""
	}

	return record.Country.IsoCode
}
