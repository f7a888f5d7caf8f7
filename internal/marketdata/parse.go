package marketdata

import (
	"encoding/json"
	"strconv"

	"chart-advisor/internal/errors"
	"chart-advisor/internal/models"
)

// ParseKlines normalizes a kline payload into candles. Two shapes are
// accepted: an array of OHLCV objects, and the exchange-style positional
// form [[openTimeMillis, "open", "high", "low", "close", "volume", ...], ...].
// The result is validated for per-candle consistency and strictly
// increasing timestamps.
func ParseKlines(raw []byte) ([]models.Candle, error) {
	var probe []json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, errors.NewParseError("kline", -1, "payload is not a JSON array", err)
	}
	if len(probe) == 0 {
		return nil, nil
	}

	var candles []models.Candle
	var err error
	if isArrayElement(probe[0]) {
		candles, err = parsePositional(probe)
	} else {
		candles, err = parseObjects(probe)
	}
	if err != nil {
		return nil, err
	}

	if verr := models.ValidateSeries(candles); verr != nil {
		return nil, errors.Wrap(verr, "kline payload")
	}
	return candles, nil
}

func isArrayElement(raw json.RawMessage) bool {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		case '[':
			return true
		default:
			return false
		}
	}
	return false
}

func parseObjects(elements []json.RawMessage) ([]models.Candle, error) {
	candles := make([]models.Candle, 0, len(elements))
	for i, el := range elements {
		var c models.Candle
		if err := json.Unmarshal(el, &c); err != nil {
			return nil, errors.NewParseError("object", i, "invalid candle object", err)
		}
		candles = append(candles, c)
	}
	return candles, nil
}

func parsePositional(elements []json.RawMessage) ([]models.Candle, error) {
	candles := make([]models.Candle, 0, len(elements))
	for i, el := range elements {
		var fields []interface{}
		if err := json.Unmarshal(el, &fields); err != nil {
			return nil, errors.NewParseError("positional", i, "invalid kline array", err)
		}
		if len(fields) < 6 {
			return nil, errors.NewParseError("positional", i, "kline array needs at least 6 fields", nil)
		}

		openTime, ok := fields[0].(float64)
		if !ok {
			return nil, errors.NewParseError("positional", i, "open time must be numeric", nil)
		}

		values := make([]float64, 5)
		for j := 1; j <= 5; j++ {
			v, err := numericField(fields[j])
			if err != nil {
				return nil, errors.NewParseError("positional", i, "non-numeric OHLCV field", err)
			}
			values[j-1] = v
		}

		candles = append(candles, models.Candle{
			Time:   int64(openTime) / 1000, // exchange klines carry milliseconds
			Open:   values[0],
			High:   values[1],
			Low:    values[2],
			Close:  values[3],
			Volume: values[4],
		})
	}
	return candles, nil
}

func numericField(field interface{}) (float64, error) {
	switch v := field.(type) {
	case float64:
		return v, nil
	case string:
		return strconv.ParseFloat(v, 64)
	default:
		return 0, errors.NewValidationError("field", field, "expected number or numeric string")
	}
}
