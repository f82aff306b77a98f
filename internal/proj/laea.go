// Package proj converts between geographic WGS84-style coordinates and the
// European Lambert azimuthal equal-area frame (EPSG:3035 parameterization)
// used for all distance and buffer math.
package proj

import (
	"math"

	"github.com/rotisserie/eris"
)

// GRS80 ellipsoid and ETRS89-LAEA projection parameters.
const (
	semiMajor = 6378137.0
	flattening = 1.0 / 298.257222101

	centralLonDeg = 10.0
	centralLatDeg = 52.0
	falseEasting  = 4321000.0
	falseNorthing = 3210000.0
)

var (
	e2 = flattening * (2 - flattening)
	e  = math.Sqrt(e2)

	lon0 = centralLonDeg * math.Pi / 180
	lat0 = centralLatDeg * math.Pi / 180

	qp    = authalicQ(math.Pi / 2)
	beta0 = math.Asin(authalicQ(lat0) / qp)
	rq    = semiMajor * math.Sqrt(qp/2)
	d     = semiMajor * math.Cos(lat0) /
		math.Sqrt(1-e2*math.Sin(lat0)*math.Sin(lat0)) / (rq * math.Cos(beta0))
)

// authalicQ is Snyder's q function: the authalic latitude integrand evaluated
// at geodetic latitude phi (radians).
func authalicQ(phi float64) float64 {
	s := math.Sin(phi)
	return (1 - e2) * (s/(1-e2*s*s) - (1/(2*e))*math.Log((1-e*s)/(1+e*s)))
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// ToPlanar projects geographic lon/lat (degrees) to planar x/y (meters).
// Non-finite input is rejected, never coerced.
func ToPlanar(lon, lat float64) (x, y float64, err error) {
	if !finite(lon, lat) {
		return 0, 0, eris.Errorf("proj: non-finite geographic input (%v, %v)", lon, lat)
	}

	lam := lon*math.Pi/180 - lon0
	phi := lat * math.Pi / 180

	beta := math.Asin(clamp(authalicQ(phi)/qp, -1, 1))
	sinB, cosB := math.Sin(beta), math.Cos(beta)
	sinB0, cosB0 := math.Sin(beta0), math.Cos(beta0)

	b := rq * math.Sqrt(2/(1+sinB0*sinB+cosB0*cosB*math.Cos(lam)))

	x = falseEasting + b*d*cosB*math.Sin(lam)
	y = falseNorthing + (b/d)*(cosB0*sinB-sinB0*cosB*math.Cos(lam))
	return x, y, nil
}

// ToGeographic is the inverse of ToPlanar: planar x/y (meters) back to
// geographic lon/lat (degrees).
func ToGeographic(x, y float64) (lon, lat float64, err error) {
	if !finite(x, y) {
		return 0, 0, eris.Errorf("proj: non-finite planar input (%v, %v)", x, y)
	}

	xr := (x - falseEasting) / d
	yr := d * (y - falseNorthing)

	rho := math.Hypot(xr, yr)
	if rho == 0 {
		return centralLonDeg, centralLatDeg, nil
	}

	ce := 2 * math.Asin(clamp(rho/(2*rq), -1, 1))
	sinCe, cosCe := math.Sin(ce), math.Cos(ce)
	sinB0, cosB0 := math.Sin(beta0), math.Cos(beta0)

	q := qp * (cosCe*sinB0 + yr*sinCe*cosB0/rho)
	lam := math.Atan2(xr*sinCe, rho*cosB0*cosCe-yr*sinB0*sinCe)

	lat = inverseAuthalic(q) * 180 / math.Pi
	lon = (lon0 + lam) * 180 / math.Pi
	return lon, lat, nil
}

// inverseAuthalic recovers geodetic latitude from q by Snyder's iteration.
func inverseAuthalic(q float64) float64 {
	phi := math.Asin(clamp(q/2, -1, 1))
	for i := 0; i < 15; i++ {
		s := math.Sin(phi)
		den := 1 - e2*s*s
		delta := (den * den / (2 * math.Cos(phi))) *
			(q/(1-e2) - s/den + (1/(2*e))*math.Log((1-e*s)/(1+e*s)))
		phi += delta
		if math.Abs(delta) < 1e-12 {
			break
		}
	}
	return phi
}

// ToPlanarBatch projects many points at once; any non-finite pair fails the
// whole batch.
func ToPlanarBatch(lons, lats []float64) (xs, ys []float64, err error) {
	if len(lons) != len(lats) {
		return nil, nil, eris.Errorf("proj: batch length mismatch (%d vs %d)", len(lons), len(lats))
	}
	xs = make([]float64, len(lons))
	ys = make([]float64, len(lons))
	for i := range lons {
		xs[i], ys[i], err = ToPlanar(lons[i], lats[i])
		if err != nil {
			return nil, nil, err
		}
	}
	return xs, ys, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
