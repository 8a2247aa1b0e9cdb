package colordiff

import "math"

// CIE constants for the XYZ to L*a*b* transform.
const (
	epsilon = 0.008856
	kappa   = 903.3
)

// Lab is a color in CIE L*a*b* space.
type Lab struct {
	L float64
	A float64
	B float64
}

// XYZToLab converts normalized XYZ coordinates to L*a*b* relative to a
// reference white of (1, 1, 1). Inputs are clamped to [0, 1] before the
// nonlinear transform and L is clamped to [0, 100] after it.
func XYZToLab(x, y, z float64) Lab {
	fx := labF(clamp01(x))
	fy := labF(clamp01(y))
	fz := labF(clamp01(z))

	l := 116*fy - 16
	if l < 0 {
		l = 0
	} else if l > 100 {
		l = 100
	}

	return Lab{
		L: l,
		A: 500 * (fx - fy),
		B: 200 * (fy - fz),
	}
}

func labF(t float64) float64 {
	if t > epsilon {
		return math.Cbrt(t)
	}
	return (kappa*t + 16) / 116
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// DeltaE2000 computes the CIEDE2000 color difference between two L*a*b*
// colors with parametric weighting factors kL = kC = kH = 1.
//
// The implementation follows Sharma, Wu & Dalal, "The CIEDE2000
// Color-Difference Formula: Implementation Notes" including all branch
// conditions on hue differences.
func DeltaE2000(lab1, lab2 Lab) float64 {
	const pow25To7 = 6103515625.0 // 25^7

	deg360 := deg2Rad(360)
	deg180 := deg2Rad(180)

	// Step 1: C', h'
	c1 := math.Hypot(lab1.A, lab1.B)
	c2 := math.Hypot(lab2.A, lab2.B)
	barC := (c1 + c2) / 2

	g := 0.5 * (1 - math.Sqrt(math.Pow(barC, 7)/(math.Pow(barC, 7)+pow25To7)))
	a1Prime := (1 + g) * lab1.A
	a2Prime := (1 + g) * lab2.A

	cPrime1 := math.Hypot(a1Prime, lab1.B)
	cPrime2 := math.Hypot(a2Prime, lab2.B)

	hPrime1 := huePrime(a1Prime, lab1.B, deg360)
	hPrime2 := huePrime(a2Prime, lab2.B, deg360)

	// Step 2: deltaL', deltaC', deltaH'
	deltaLPrime := lab2.L - lab1.L
	deltaCPrime := cPrime2 - cPrime1

	cPrimeProduct := cPrime1 * cPrime2
	var deltahPrime float64
	if cPrimeProduct != 0 {
		deltahPrime = hPrime2 - hPrime1
		if deltahPrime < -deg180 {
			deltahPrime += deg360
		} else if deltahPrime > deg180 {
			deltahPrime -= deg360
		}
	}
	deltaHPrime := 2 * math.Sqrt(cPrimeProduct) * math.Sin(deltahPrime/2)

	// Step 3: weighted combination
	barLPrime := (lab1.L + lab2.L) / 2
	barCPrime := (cPrime1 + cPrime2) / 2

	var barhPrime float64
	hPrimeSum := hPrime1 + hPrime2
	if cPrimeProduct == 0 {
		barhPrime = hPrimeSum
	} else if math.Abs(hPrime1-hPrime2) <= deg180 {
		barhPrime = hPrimeSum / 2
	} else if hPrimeSum < deg360 {
		barhPrime = (hPrimeSum + deg360) / 2
	} else {
		barhPrime = (hPrimeSum - deg360) / 2
	}

	t := 1 -
		0.17*math.Cos(barhPrime-deg2Rad(30)) +
		0.24*math.Cos(2*barhPrime) +
		0.32*math.Cos(3*barhPrime+deg2Rad(6)) -
		0.20*math.Cos(4*barhPrime-deg2Rad(63))

	deltaTheta := deg2Rad(30) * math.Exp(-math.Pow((barhPrime-deg2Rad(275))/deg2Rad(25), 2))
	rc := 2 * math.Sqrt(math.Pow(barCPrime, 7)/(math.Pow(barCPrime, 7)+pow25To7))
	rt := -math.Sin(2*deltaTheta) * rc

	sl := 1 + (0.015*math.Pow(barLPrime-50, 2))/math.Sqrt(20+math.Pow(barLPrime-50, 2))
	sc := 1 + 0.045*barCPrime
	sh := 1 + 0.015*barCPrime*t

	const kL, kC, kH = 1.0, 1.0, 1.0

	lTerm := deltaLPrime / (kL * sl)
	cTerm := deltaCPrime / (kC * sc)
	hTerm := deltaHPrime / (kH * sh)

	return math.Sqrt(lTerm*lTerm + cTerm*cTerm + hTerm*hTerm + rt*cTerm*hTerm)
}

// huePrime returns the hue angle in radians within [0, 2*pi), or 0 when
// both components are zero.
func huePrime(aPrime, b, deg360 float64) float64 {
	if b == 0 && aPrime == 0 {
		return 0
	}
	h := math.Atan2(b, aPrime)
	if h < 0 {
		h += deg360
	}
	return h
}

func deg2Rad(deg float64) float64 {
	return deg * (math.Pi / 180)
}
