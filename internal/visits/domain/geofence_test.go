package domain

import (
	"math"
	"testing"
)

func TestDistanceMetersIdenticalPoints(t *testing.T) {
	p := Coordinates{Lat: 19.4326, Lng: -99.1332}
	if d := DistanceMeters(p, p); d != 0 {
		t.Fatalf("distance between identical points = %f, want 0", d)
	}
}

func TestDistanceMetersKnownPair(t *testing.T) {
	// Zócalo to Bellas Artes, Mexico City. A bit under a kilometer.
	zocalo := Coordinates{Lat: 19.4326, Lng: -99.1332}
	bellasArtes := Coordinates{Lat: 19.4352, Lng: -99.1412}

	d := DistanceMeters(zocalo, bellasArtes)
	if d < 800 || d > 1200 {
		t.Fatalf("distance = %f, want roughly 900m", d)
	}
}

func TestDistanceMetersSymmetry(t *testing.T) {
	a := Coordinates{Lat: 19.4326, Lng: -99.1332}
	b := Coordinates{Lat: 19.5, Lng: -99.2}

	if d1, d2 := DistanceMeters(a, b), DistanceMeters(b, a); math.Abs(d1-d2) > 1e-9 {
		t.Fatalf("distance not symmetric: %f vs %f", d1, d2)
	}
}

func TestWithinGeofence(t *testing.T) {
	site := Coordinates{Lat: 19.4326, Lng: -99.1332}

	// Roughly 0.00045 degrees of latitude is 50m.
	near := Coordinates{Lat: site.Lat + 0.00045, Lng: site.Lng}
	if !WithinGeofence(near, site, DefaultGeofenceThresholdMeters) {
		t.Fatalf("point %.0fm away rejected", DistanceMeters(near, site))
	}

	far := Coordinates{Lat: site.Lat + 0.0045, Lng: site.Lng}
	if WithinGeofence(far, site, DefaultGeofenceThresholdMeters) {
		t.Fatalf("point %.0fm away accepted", DistanceMeters(far, site))
	}
}

func TestWithinGeofenceBoundaryIsInside(t *testing.T) {
	site := Coordinates{Lat: 19.4326, Lng: -99.1332}
	point := Coordinates{Lat: site.Lat + 0.0010, Lng: site.Lng}

	d := DistanceMeters(point, site)
	if !WithinGeofence(point, site, d) {
		t.Fatal("point exactly on the boundary must count as inside")
	}
}
