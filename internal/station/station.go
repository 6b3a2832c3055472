package station

import "context"

// Station identifies one monitored radio stream. Immutable once a
// session starts; a re-resolved URL yields a new Station value.
type Station struct {
	ID          string
	DisplayName string
	StreamURL   string
}

type Criteria struct {
	Filter string
	Limit  int
}

type Directory interface {
	ResolveStations(ctx context.Context, criteria Criteria) ([]Station, error)
	ResolveStreamURL(ctx context.Context, stationID string) (string, error)
}
