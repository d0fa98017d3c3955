package redis

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"

	"ridehail/internal/domain"
	"ridehail/internal/geo"
)

const (
	driverLocationKey    = "drivers:locations"
	driverPresencePrefix = "drivers:presence:"

	// Unavailable drivers are filtered after the geo search, so fetch extra.
	presenceOversample = 4
)

// PresenceStore reads the driver presence feed. The feed is written by the
// driver apps: positions in the GEO set drivers:locations and flags in the
// hash drivers:presence:<uid>.
type PresenceStore struct {
	client *redis.Client
}

// NewPresenceStore creates a new PresenceStore.
func NewPresenceStore(client *redis.Client) *PresenceStore {
	return &PresenceStore{client: client}
}

// NearbyAvailableDrivers returns online, available drivers within radiusKm of
// center, nearest first.
func (s *PresenceStore) NearbyAvailableDrivers(ctx context.Context, center geo.Point, radiusKm float64, limit int) ([]domain.DriverPresence, error) {
	query := &redis.GeoSearchLocationQuery{
		GeoSearchQuery: redis.GeoSearchQuery{
			Longitude:  center.Lng,
			Latitude:   center.Lat,
			Radius:     radiusKm,
			RadiusUnit: "km",
			Sort:       "ASC",
		},
		WithCoord: true,
		WithDist:  true,
	}
	if limit > 0 {
		query.Count = limit * presenceOversample
	}

	results, err := s.client.GeoSearchLocation(ctx, driverLocationKey, query).Result()
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}

	// Fetch every presence hash in one round trip.
	pipe := s.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(results))
	for i, r := range results {
		cmds[i] = pipe.HGetAll(ctx, driverPresencePrefix+r.Name)
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, err
	}

	drivers := make([]domain.DriverPresence, 0, len(results))
	for i, r := range results {
		fields, err := cmds[i].Result()
		if err != nil {
			continue
		}

		p := presenceFromHash(r.Name, fields)
		if !p.IsOnline || !p.IsAvailable {
			continue
		}
		p.Location = geo.Point{Lat: r.Latitude, Lng: r.Longitude}
		p.DistanceKm = r.Dist
		drivers = append(drivers, p)

		if limit > 0 && len(drivers) == limit {
			break
		}
	}

	return drivers, nil
}

// presenceFromHash decodes the presence flags. Missing flags read as false.
func presenceFromHash(driverID string, fields map[string]string) domain.DriverPresence {
	return domain.DriverPresence{
		DriverID:    driverID,
		IsOnline:    parseFlag(fields["isOnline"]),
		IsAvailable: parseFlag(fields["isAvailable"]),
	}
}

func parseFlag(v string) bool {
	b, err := strconv.ParseBool(v)
	return err == nil && b
}
