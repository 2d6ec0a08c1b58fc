package geo

import (
	"math"
	"sort"

	"crm-backend/models"
)

// NearbyCustomer is a customer with its distance from the query center.
type NearbyCustomer struct {
	models.Customer
	DistanceKm float64 `json:"distance_km"`
}

// Nearby returns located customers within radiusKm of (lat, lng), closest first,
// at most limit entries. Distances are rounded to two decimals.
func Nearby(customers []models.Customer, lat, lng, radiusKm float64, limit int) []NearbyCustomer {
	out := make([]NearbyCustomer, 0)
	for _, c := range customers {
		if !c.HasLocation() {
			continue
		}
		km := Haversine(lat, lng, *c.LocationLat, *c.LocationLng) / 1000.0
		if km > radiusKm {
			continue
		}
		out = append(out, NearbyCustomer{Customer: c, DistanceKm: math.Round(km*100) / 100})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DistanceKm < out[j].DistanceKm
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
