package normalize

import (
	"loanapproval/pkg/serrors"
	"math"

	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
)

// lambdaEpsilon is the distance from 0 (or 2) under which the logarithmic
// branch of the Yeo-Johnson transform is used.
const lambdaEpsilon = 2.220446049250313e-16

// PowerParams is the fitted Yeo-Johnson transform followed by standardization.
// It is defined on the whole real line and is strictly increasing.
type PowerParams struct {
	Lambda float64 `json:"lambda"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
}

// FitPower estimates the Yeo-Johnson shape parameter by maximum likelihood and
// the standardization moments of the transformed training values. A constant
// input keeps lambda at 1 and a unit scale.
func FitPower(x []float64) (PowerParams, error) {
	if len(x) == 0 {
		return PowerParams{}, serrors.With(serrors.ErrInsufficientData, "power transform needs at least one value")
	}
	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return PowerParams{}, serrors.With(serrors.ErrInsufficientData, "power transform input %v is not finite", v)
		}
	}

	lambda := 1.0
	if stat.PopVariance(x, nil) > 0 {
		var err error
		if lambda, err = optimizeLambda(x); err != nil {
			return PowerParams{}, err
		}
	}

	y := make([]float64, len(x))
	for i, v := range x {
		y[i] = yeoJohnson(v, lambda)
	}
	mean, std := stat.PopMeanStdDev(y, nil)
	if std == 0 || math.IsNaN(std) {
		std = 1
	}

	return PowerParams{Lambda: lambda, Mean: mean, Std: std}, nil
}

// Transform applies the frozen transform to v.
func (p PowerParams) Transform(v float64) float64 {
	return (yeoJohnson(v, p.Lambda) - p.Mean) / p.Std
}

// Inverse maps a transformed value back to the original scale.
func (p PowerParams) Inverse(y float64) float64 {
	return yeoJohnsonInverse(y*p.Std+p.Mean, p.Lambda)
}

func optimizeLambda(x []float64) (float64, error) {
	var logTerm float64
	for _, v := range x {
		logTerm += math.Copysign(math.Log1p(math.Abs(v)), v)
	}
	n := float64(len(x))
	y := make([]float64, len(x))

	negLogLikelihood := func(l []float64) float64 {
		for i, v := range x {
			y[i] = yeoJohnson(v, l[0])
		}
		variance := stat.PopVariance(y, nil)
		nll := n/2*math.Log(variance) - (l[0]-1)*logTerm
		if math.IsNaN(nll) || math.IsInf(nll, 0) {
			return math.MaxFloat64
		}

		return nll
	}

	res, err := optimize.Minimize(optimize.Problem{Func: negLogLikelihood}, []float64{1}, nil,
		&optimize.NelderMead{SimplexSize: 0.5})
	if res == nil || math.IsNaN(res.X[0]) || math.IsInf(res.X[0], 0) {
		return 0, serrors.Wrap(serrors.ErrInsufficientData, err, "could not estimate power transform lambda")
	}

	return res.X[0], nil
}

func yeoJohnson(x, lambda float64) float64 {
	if x >= 0 {
		if math.Abs(lambda) < lambdaEpsilon {
			return math.Log1p(x)
		}

		return (math.Pow(x+1, lambda) - 1) / lambda
	}
	if math.Abs(lambda-2) < lambdaEpsilon {
		return -math.Log1p(-x)
	}

	return -(math.Pow(1-x, 2-lambda) - 1) / (2 - lambda)
}

func yeoJohnsonInverse(y, lambda float64) float64 {
	if y >= 0 {
		if math.Abs(lambda) < lambdaEpsilon {
			return math.Expm1(y)
		}

		return math.Pow(y*lambda+1, 1/lambda) - 1
	}
	if math.Abs(lambda-2) < lambdaEpsilon {
		return -math.Expm1(-y)
	}

	return 1 - math.Pow(-(2-lambda)*y+1, 1/(2-lambda))
}
