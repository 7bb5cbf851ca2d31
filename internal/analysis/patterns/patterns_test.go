package patterns

import (
	"testing"

	"github.com/skalibog/alphascan/pkg/models"
)

// series строит серию из OHLC; последняя свеча играет роль формирующейся
func series(t *testing.T, ohlc ...[4]float64) *models.CandleSeries {
	t.Helper()
	candles := make([]models.Candle, len(ohlc))
	for i, c := range ohlc {
		candles[i] = models.Candle{Time: int64(i+1) * 60000, Open: c[0], High: c[1], Low: c[2], Close: c[3]}
	}
	s, err := models.NewCandleSeries(candles)
	if err != nil {
		t.Fatalf("NewCandleSeries returned error: %v", err)
	}
	return s
}

var forming = [4]float64{101, 102, 100, 101}

func TestHammer(t *testing.T) {
	s := series(t,
		[4]float64{105, 106, 99, 100},
		[4]float64{100, 101.2, 96, 101},
		forming,
	)
	if got := Hammer(s, 1); got != Bullish {
		t.Fatalf("expected hammer, got %d", got)
	}
	m, ok := First(Detect(s), BullishBias)
	if !ok || m.Name != "Hammer" {
		t.Fatalf("expected Hammer as first bullish match, got %+v", m)
	}
}

func TestHammerRequiresBearishPredecessor(t *testing.T) {
	s := series(t,
		[4]float64{99, 106, 98, 105},
		[4]float64{100, 101.2, 96, 101},
		forming,
	)
	if got := Hammer(s, 1); got != 0 {
		t.Fatalf("hammer after a bullish candle must not match, got %d", got)
	}
}

func TestShootingStar(t *testing.T) {
	s := series(t,
		[4]float64{100, 106, 99, 105},
		[4]float64{105, 109, 103.8, 104},
		forming,
	)
	if got := ShootingStar(s, 1); got != Bearish {
		t.Fatalf("expected shooting star, got %d", got)
	}
}

func TestEngulfing(t *testing.T) {
	bull := series(t,
		[4]float64{104, 105, 100, 101},
		[4]float64{100.5, 106, 100, 105.5},
		forming,
	)
	if got := Engulfing(bull, 1); got != Bullish {
		t.Fatalf("expected bullish engulfing, got %d", got)
	}

	bear := series(t,
		[4]float64{101, 105, 100, 104},
		[4]float64{104.5, 105, 99, 100},
		forming,
	)
	if got := Engulfing(bear, 1); got != Bearish {
		t.Fatalf("expected bearish engulfing, got %d", got)
	}
}

func TestMorningAndEveningStar(t *testing.T) {
	morning := series(t,
		[4]float64{110, 110.5, 99.5, 100},
		[4]float64{99, 99.8, 97, 98.5},
		[4]float64{99, 107, 98.8, 106.5},
		forming,
	)
	if got := MorningStar(morning, 2); got != Bullish {
		t.Fatalf("expected morning star, got %d", got)
	}

	evening := series(t,
		[4]float64{100, 110.5, 99.5, 110},
		[4]float64{111, 113, 110.2, 111.5},
		[4]float64{111, 111.2, 102, 103},
		forming,
	)
	if got := EveningStar(evening, 2); got != Bearish {
		t.Fatalf("expected evening star, got %d", got)
	}
}

func TestPiercingAndDarkCloud(t *testing.T) {
	piercing := series(t,
		[4]float64{110, 110.5, 99.5, 100},
		[4]float64{99, 107, 98.5, 106},
		forming,
	)
	if got := Piercing(piercing, 1); got != Bullish {
		t.Fatalf("expected piercing, got %d", got)
	}

	dark := series(t,
		[4]float64{100, 110.5, 99.5, 110},
		[4]float64{111, 111.5, 103, 104},
		forming,
	)
	if got := DarkCloudCover(dark, 1); got != Bearish {
		t.Fatalf("expected dark cloud cover, got %d", got)
	}
}

func TestDojiIsNeutral(t *testing.T) {
	s := series(t,
		[4]float64{100, 101, 99, 100.5},
		[4]float64{100, 102, 98, 100.1},
		forming,
	)
	var found bool
	for _, m := range Detect(s) {
		if m.Name == "Doji" {
			found = true
			if m.Bias != Neutral {
				t.Fatalf("doji must be neutral, got %v", m.Bias)
			}
		}
	}
	if !found {
		t.Fatalf("expected doji match")
	}
	if _, ok := First(Detect(s), BullishBias); ok {
		t.Fatalf("doji alone must not produce a bullish match")
	}
}

func TestMarubozuAndHarami(t *testing.T) {
	s := series(t,
		[4]float64{100, 110, 100, 110},
		forming,
	)
	if got := Marubozu(s, 0); got != Bullish {
		t.Fatalf("expected bullish marubozu, got %d", got)
	}

	h := series(t,
		[4]float64{110, 110.5, 99.5, 100},
		[4]float64{103, 106, 102, 105},
		forming,
	)
	if got := Harami(h, 1); got != Bullish {
		t.Fatalf("expected bullish harami, got %d", got)
	}
}

func TestDetectShortSeries(t *testing.T) {
	s := series(t, forming)
	if got := Detect(s); got != nil {
		t.Fatalf("expected no matches for a single candle, got %+v", got)
	}
}
