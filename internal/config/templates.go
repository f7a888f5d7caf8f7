package config

import (
	"os"
	"path/filepath"
)

const configTemplate = `# chart-advisor configuration

[analysis]
# Strict-extrema window: a candle must exceed every neighbor within this
# many candles on each side to count as a peak or trough.
extrema_window = 10
# Narrower window used for swing points in chart pattern detection.
swing_window = 3
atr_period = 14
# Touch tolerance = ATR * tolerance_multiplier.
tolerance_multiplier = 0.5
min_touches = 2
min_candles = 20
max_proposals = 5
fetch_limit = 200
# Proposals of the same kind within this relative price distance are merged.
dedupe_tolerance = 0.005

[analysis.weights]
touch_points = 0.25
volume_weight = 0.20
timeframe_confluence = 0.20
pattern_confirmation = 0.15
statistical_fit = 0.20

[mtf]
fetch_timeout = "3s"
candle_limit = 100

[cache]
# "memory" or "redis"
backend = "memory"
addr = "localhost:6379"
password = ""
db = 0

[logging]
level = "info"
console = true
file = false
`

func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}
	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return os.WriteFile(path, []byte(configTemplate), 0644)
}
