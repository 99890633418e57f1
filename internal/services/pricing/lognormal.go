package pricing

import (
	"math"

	"FXRisk/internal/domain/models"
)

// NormInv is the standard normal quantile function (Acklam's rational
// approximation, relative error below 1.2e-9). p must lie in (0,1).
func NormInv(p float64) float64 {
	if p <= 0 || p >= 1 {
		panic("NormInv: p must be in (0,1)")
	}

	a := [6]float64{
		-3.969683028665376e+01, 2.209460984245205e+02, -2.759285104469687e+02,
		1.383577518672690e+02, -3.066479806614716e+01, 2.506628277459239e+00,
	}
	b := [5]float64{
		-5.447609879822406e+01, 1.615858368580409e+02, -1.556989798598866e+02,
		6.680131188771972e+01, -1.328068155288572e+01,
	}
	c := [6]float64{
		-7.784894002430293e-03, -3.223964580411365e-01, -2.400758277161838e+00,
		-2.549732539343734e+00, 4.374664141464968e+00, 2.938163982698783e+00,
	}
	d := [4]float64{
		7.784695709041462e-03, 3.224671290700398e-01, 2.445134137142996e+00,
		3.754408661907416e+00,
	}

	const plow = 0.02425
	tail := func(q float64) float64 {
		return (((((c[0]*q+c[1])*q+c[2])*q+c[3])*q+c[4])*q + c[5]) /
			((((d[0]*q+d[1])*q+d[2])*q+d[3])*q + 1)
	}
	switch {
	case p < plow:
		return tail(math.Sqrt(-2 * math.Log(p)))
	case p > 1-plow:
		return -tail(math.Sqrt(-2 * math.Log(1-p)))
	}
	q := p - 0.5
	r := q * q
	return (((((a[0]*r+a[1])*r+a[2])*r+a[3])*r+a[4])*r + a[5]) * q /
		(((((b[0]*r+b[1])*r+b[2])*r+b[3])*r+b[4])*r + 1)
}

// Forward is the covered-interest-parity forward of spot over t years.
func Forward(spot, domesticRate, foreignRate, t float64) float64 {
	return spot * math.Exp((domesticRate-foreignRate)*t)
}

// LognormalStrike returns the strike at which the binary instrument pays with
// its probability under a driftless lognormal forward.
func LognormalStrike(fwd, sigma, t float64, inst models.BinaryInstrument) float64 {
	if t <= 0 || sigma <= 0 {
		return fwd
	}
	sd := sigma * math.Sqrt(t)
	z := NormInv(inst.Probability)
	if inst.Side == models.SideCall {
		z = -z
	}
	return fwd * math.Exp(-0.5*sd*sd+sd*z)
}
