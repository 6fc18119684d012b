// Pacote geofence valida a localização reportada pelo dispositivo contra o raio da sessão.
package geofence

import (
	"math"

	"github.com/marcelojr/votacao-campus/internal/domain"
)

// EarthRadiusMeters é o raio médio da Terra usado pela fórmula de haversine.
const EarthRadiusMeters = 6_371_000.0

type Result string

const (
	Inside          Result = "inside"
	Outside         Result = "outside"
	Skipped         Result = "skipped"
	MissingLocation Result = "missing_location"
	InvalidConfig   Result = "invalid_config"
)

// Rejection traduz o resultado no motivo de recusa correspondente.
func (r Result) Rejection() (domain.RejectionKind, bool) {
	switch r {
	case Outside:
		return domain.RejectOutOfRange, true
	case MissingLocation:
		return domain.RejectLocationRequired, true
	case InvalidConfig:
		return domain.RejectInvalidGeofenceConfig, true
	default:
		return "", false
	}
}

func Check(g domain.Geofence, reported *domain.Location) Result {
	if !g.Enabled || g.OffCampusAllowed {
		return Skipped
	}
	if reported == nil {
		return MissingLocation
	}
	center := domain.Location{Lat: g.CenterLat, Lng: g.CenterLng}
	if !validCoordinate(center) || !validCoordinate(*reported) {
		return InvalidConfig
	}
	if math.IsNaN(g.RadiusMeters) || g.RadiusMeters < 0 {
		return InvalidConfig
	}
	if Distance(center, *reported) <= g.RadiusMeters {
		return Inside
	}
	return Outside
}

// Distance devolve a distância em metros sobre a esfera terrestre.
func Distance(a, b domain.Location) float64 {
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dLat := radians(b.Lat - a.Lat)
	dLng := radians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * EarthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}

// ValidateConfig é usada na criação da sessão: geofence habilitada exige centro válido e raio positivo.
func ValidateConfig(g domain.Geofence) bool {
	if !g.Enabled {
		return true
	}
	if !validCoordinate(domain.Location{Lat: g.CenterLat, Lng: g.CenterLng}) {
		return false
	}
	return !math.IsNaN(g.RadiusMeters) && !math.IsInf(g.RadiusMeters, 0) && g.RadiusMeters > 0
}

func validCoordinate(l domain.Location) bool {
	if math.IsNaN(l.Lat) || math.IsNaN(l.Lng) {
		return false
	}
	return l.Lat >= -90 && l.Lat <= 90 && l.Lng >= -180 && l.Lng <= 180
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
