// Package options prices European options and their sensitivities. Used by
// the task generator to derive options ground truth from locked market data.
package options

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"fabbench/domain/task"
)

var stdNormal = distuv.Normal{Mu: 0, Sigma: 1}

// PricingInput holds the Black-Scholes inputs. TTMYears is time to expiry
// in years; Vol is annualized implied volatility as a decimal.
type PricingInput struct {
	Spot     float64
	Strike   float64
	Rate     float64
	Vol      float64
	TTMYears float64
	Call     bool
}

// Validate rejects inputs the closed-form model cannot price.
func (in PricingInput) Validate() error {
	if in.Spot <= 0 || in.Strike <= 0 {
		return fmt.Errorf("spot and strike must be positive (spot=%.4f strike=%.4f)", in.Spot, in.Strike)
	}
	if in.Vol <= 0 {
		return fmt.Errorf("volatility must be positive (vol=%.4f)", in.Vol)
	}
	if in.TTMYears <= 0 {
		return fmt.Errorf("time to expiry must be positive (ttm=%.4f)", in.TTMYears)
	}
	return nil
}

func d1d2(in PricingInput) (float64, float64) {
	sigmaSqrtT := in.Vol * math.Sqrt(in.TTMYears)
	d1 := (math.Log(in.Spot/in.Strike) + (in.Rate+0.5*in.Vol*in.Vol)*in.TTMYears) / sigmaSqrtT
	return d1, d1 - sigmaSqrtT
}

// Price returns the Black-Scholes value of the option.
func Price(in PricingInput) (float64, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}
	d1, d2 := d1d2(in)
	discount := math.Exp(-in.Rate * in.TTMYears)
	if in.Call {
		return in.Spot*stdNormal.CDF(d1) - in.Strike*discount*stdNormal.CDF(d2), nil
	}
	return in.Strike*discount*stdNormal.CDF(-d2) - in.Spot*stdNormal.CDF(-d1), nil
}

// Greeks returns the option sensitivities in practitioner units: theta per
// calendar day, vega and rho per 1% move.
func Greeks(in PricingInput) (task.GreekSet, error) {
	if err := in.Validate(); err != nil {
		return task.GreekSet{}, err
	}
	d1, d2 := d1d2(in)
	sqrtT := math.Sqrt(in.TTMYears)
	pdfD1 := stdNormal.Prob(d1)
	discount := math.Exp(-in.Rate * in.TTMYears)

	var delta, theta, rho float64
	if in.Call {
		delta = stdNormal.CDF(d1)
		theta = -in.Spot*pdfD1*in.Vol/(2*sqrtT) - in.Rate*in.Strike*discount*stdNormal.CDF(d2)
		rho = in.Strike * in.TTMYears * discount * stdNormal.CDF(d2)
	} else {
		delta = stdNormal.CDF(d1) - 1
		theta = -in.Spot*pdfD1*in.Vol/(2*sqrtT) + in.Rate*in.Strike*discount*stdNormal.CDF(-d2)
		rho = -in.Strike * in.TTMYears * discount * stdNormal.CDF(-d2)
	}

	return task.GreekSet{
		Delta: delta,
		Gamma: pdfD1 / (in.Spot * in.Vol * sqrtT),
		Theta: theta / 365.0,
		Vega:  in.Spot * pdfD1 * sqrtT / 100.0,
		Rho:   rho / 100.0,
	}, nil
}

// Straddle PnL at expiry for a long straddle entered at the given premium.
func StraddlePnL(spotAtExpiry, strike, premiumPaid float64) float64 {
	return math.Abs(spotAtExpiry-strike) - premiumPaid
}
