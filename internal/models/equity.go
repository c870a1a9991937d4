package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"time"
)

// EquityPoint represents capital at the end of one simulated day
type EquityPoint struct {
	Date     time.Time `json:"date"`
	Capital  float64   `json:"capital"`
	Drawdown float64   `json:"drawdown"`
	DailyPnL float64   `json:"daily_pnl"`
}

// EquityCurve is the ordered time series of capital across a run
type EquityCurve []EquityPoint

// Returns calculates periodic returns between consecutive points
func (e EquityCurve) Returns() []float64 {
	if len(e) < 2 {
		return []float64{}
	}
	returns := make([]float64, 0, len(e)-1)
	for i := 1; i < len(e); i++ {
		prev := e[i-1].Capital
		curr := e[i].Capital
		if prev == 0 {
			returns = append(returns, 0)
			continue
		}
		returns = append(returns, (curr-prev)/prev)
	}
	return returns
}

// Volatility calculates the standard deviation of returns
func (e EquityCurve) Volatility() float64 {
	returns := e.Returns()
	if len(returns) == 0 {
		return 0
	}
	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		diff := r - mean
		variance += diff * diff
	}
	variance /= float64(len(returns))
	return math.Sqrt(variance)
}

// MaxDrawdown calculates the worst peak-to-trough drawdown over the curve
func (e EquityCurve) MaxDrawdown() float64 {
	maxDD := 0.0
	peak := 0.0
	for _, p := range e {
		if p.Capital > peak {
			peak = p.Capital
		}
		if peak == 0 {
			continue
		}
		drawdown := (peak - p.Capital) / peak
		if drawdown > maxDD {
			maxDD = drawdown
		}
	}
	return maxDD
}

// ToCSV exports the equity curve as CSV
func (e EquityCurve) ToCSV() string {
	var buf bytes.Buffer
	buf.WriteString("date,capital,drawdown,daily_pnl\n")
	for _, point := range e {
		buf.WriteString(point.Date.Format("2006-01-02"))
		buf.WriteString(",")
		buf.WriteString(formatFloat(point.Capital))
		buf.WriteString(",")
		buf.WriteString(formatFloat(point.Drawdown))
		buf.WriteString(",")
		buf.WriteString(formatFloat(point.DailyPnL))
		buf.WriteString("\n")
	}
	return buf.String()
}

// ToJSON exports the equity curve as JSON
func (e EquityCurve) ToJSON() string {
	data, _ := json.Marshal(e)
	return string(data)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
