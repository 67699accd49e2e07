package airquality

import "math"

// Projector maps a WGS84 position to the planar coordinates of a grid.
type Projector interface {
	Project(p Position) (x, y float64)
}

// ProjectorFunc adapts a function to the Projector interface.
type ProjectorFunc func(p Position) (x, y float64)

func (f ProjectorFunc) Project(p Position) (x, y float64) { return f(p) }

type ellipsoid struct {
	a, f float64
}

func (e ellipsoid) e2() float64 { return e.f * (2 - e.f) }

var (
	wgs84         = ellipsoid{a: 6378137, f: 1 / 298.257223563}
	international = ellipsoid{a: 6378388, f: 1 / 297.0}
)

// helmert holds a position-vector datum shift from a local datum to WGS84.
// Rotations are in arc seconds, scale in parts per million.
type helmert struct {
	dx, dy, dz float64
	rx, ry, rz float64
	ds         float64
}

// Belgian Datum 1972 to WGS84.
var bd72 = helmert{
	dx: -106.8686, dy: 52.2978, dz: -103.7239,
	rx: 0.3366, ry: -0.457, rz: 1.8422,
	ds: -1.2747,
}

// Lambert72 projects positions to Belgian Lambert 72 (EPSG:31370), the grid
// of the RIO feature service.
type Lambert72 struct {
	n, af, rho0 float64
}

// NewLambert72 returns a Belgian Lambert 72 projector.
func NewLambert72() *Lambert72 {
	const (
		lat1 = 51.16666723333333
		lat2 = 49.8333339
		lat0 = 90.0
	)
	e := math.Sqrt(international.e2())
	phi1, phi2, phi0 := radians(lat1), radians(lat2), radians(lat0)

	m1, m2 := lccM(phi1, e), lccM(phi2, e)
	t1, t2, t0 := lccT(phi1, e), lccT(phi2, e), lccT(phi0, e)

	n := (math.Log(m1) - math.Log(m2)) / (math.Log(t1) - math.Log(t2))
	af := international.a * m1 / (n * math.Pow(t1, n))
	return &Lambert72{n: n, af: af, rho0: af * math.Pow(t0, n)}
}

// Project returns easting and northing in metres.
func (l *Lambert72) Project(p Position) (x, y float64) {
	const (
		lon0 = 4.367486666666666
		x0   = 150000.013
		y0   = 5400088.438
	)

	lat, lon := toLocalDatum(p, bd72, international)

	e := math.Sqrt(international.e2())
	rho := l.af * math.Pow(lccT(radians(lat), e), l.n)
	theta := l.n * radians(lon-lon0)

	x = x0 + rho*math.Sin(theta)
	y = y0 + l.rho0 - rho*math.Cos(theta)
	return x, y
}

// toLocalDatum converts a WGS84 position to geodetic coordinates on the
// local ellipsoid by applying the inverse of h.
func toLocalDatum(p Position, h helmert, local ellipsoid) (lat, lon float64) {
	x, y, z := geodeticToECEF(radians(p.Lat), radians(p.Lon), wgs84)

	const arcsec = math.Pi / (180 * 3600)
	rx, ry, rz := h.rx*arcsec, h.ry*arcsec, h.rz*arcsec
	s := 1 + h.ds*1e-6

	x, y, z = x-h.dx, y-h.dy, z-h.dz
	x, y, z = x/s, y/s, z/s
	// Transpose of the small-angle rotation matrix.
	lx := x + rz*y - ry*z
	ly := -rz*x + y + rx*z
	lz := ry*x - rx*y + z

	phi, lambda := ecefToGeodetic(lx, ly, lz, local)
	return degrees(phi), degrees(lambda)
}

func geodeticToECEF(phi, lambda float64, el ellipsoid) (x, y, z float64) {
	e2 := el.e2()
	sin := math.Sin(phi)
	n := el.a / math.Sqrt(1-e2*sin*sin)
	x = n * math.Cos(phi) * math.Cos(lambda)
	y = n * math.Cos(phi) * math.Sin(lambda)
	z = n * (1 - e2) * sin
	return x, y, z
}

func ecefToGeodetic(x, y, z float64, el ellipsoid) (phi, lambda float64) {
	e2 := el.e2()
	p := math.Hypot(x, y)
	lambda = math.Atan2(y, x)
	phi = math.Atan2(z, p*(1-e2))
	for i := 0; i < 10; i++ {
		sin := math.Sin(phi)
		n := el.a / math.Sqrt(1-e2*sin*sin)
		phi = math.Atan2(z+e2*n*sin, p)
	}
	return phi, lambda
}

func lccM(phi, e float64) float64 {
	sin := math.Sin(phi)
	return math.Cos(phi) / math.Sqrt(1-e*e*sin*sin)
}

func lccT(phi, e float64) float64 {
	sin := math.Sin(phi)
	return math.Tan(math.Pi/4-phi/2) / math.Pow((1-e*sin)/(1+e*sin), e/2)
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

func degrees(rad float64) float64 { return rad * 180 / math.Pi }
