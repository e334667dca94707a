package analytics

import (
	"gonum.org/v1/gonum/stat"

	"github.com/mol-insights/feestrat-cli/internal/model"
)

// ForecastRequests projects annual request volumes for the years after the
// last observed year using a least-squares trend over the active years.
// With fewer than two active years there is no trend to fit, so the
// historical average is repeated. Projections are clamped at zero.
func ForecastRequests(rec model.ServiceRecord, yearsAhead int) []float64 {
	if yearsAhead <= 0 {
		return nil
	}

	var xs, ys []float64
	for _, year := range model.Years {
		if n := rec.RequestsByYear[year]; n > 0 {
			xs = append(xs, float64(year))
			ys = append(ys, float64(n))
		}
	}

	out := make([]float64, yearsAhead)
	if len(xs) < 2 {
		for i := range out {
			out[i] = rec.AvgRequestsPerYear
		}
		return out
	}

	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	lastYear := model.Years[len(model.Years)-1]
	for i := range out {
		projected := alpha + beta*float64(lastYear+1+i)
		if projected < 0 {
			projected = 0
		}
		out[i] = projected
	}
	return out
}

// ForecastRevenue projects annual revenue by applying a fee to the request
// forecast. Passing a negative fee uses the record's current fee.
func ForecastRevenue(rec model.ServiceRecord, yearsAhead int, fee float64) []float64 {
	if fee < 0 {
		fee = rec.CurrentFee
	}

	requests := ForecastRequests(rec, yearsAhead)
	out := make([]float64, len(requests))
	for i, n := range requests {
		out[i] = n * fee
	}
	return out
}
