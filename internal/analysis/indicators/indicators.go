// Package indicators приводит результаты go-talib к сериям с явно
// помеченным периодом прогрева.
package indicators

import (
	"math"

	"github.com/markcheno/go-talib"
)

// Series значения индикатора, выровненные по входным свечам.
// Элементы до Start не определены и содержат NaN.
type Series struct {
	Values []float64
	Start  int
}

// Valid сообщает, определено ли значение в точке i
func (s Series) Valid(i int) bool {
	return i >= s.Start && i >= 0 && i < len(s.Values) && !math.IsNaN(s.Values[i])
}

// At возвращает значение и признак его определенности
func (s Series) At(i int) (float64, bool) {
	if !s.Valid(i) {
		return math.NaN(), false
	}
	return s.Values[i], true
}

// Bands полосы Боллинджера
type Bands struct {
	Upper  Series
	Middle Series
	Lower  Series
}

// MACDResult линии MACD
type MACDResult struct {
	MACD   Series
	Signal Series
	Hist   Series
}

// BollingerBands рассчитывает полосы по SMA и стандартному отклонению генеральной совокупности
func BollingerBands(closes []float64, period int, dev float64) Bands {
	start := period - 1
	if period < 2 || len(closes) <= start {
		return Bands{Upper: undefined(len(closes)), Middle: undefined(len(closes)), Lower: undefined(len(closes))}
	}

	upper, middle, lower := talib.BBands(closes, period, dev, dev, talib.SMA)
	return Bands{
		Upper:  normalize(upper, start),
		Middle: normalize(middle, start),
		Lower:  normalize(lower, start),
	}
}

// RSI индекс относительной силы со сглаживанием Уайлдера
func RSI(closes []float64, period int) Series {
	start := period
	if period < 2 || len(closes) <= start {
		return undefined(len(closes))
	}
	return normalize(talib.Rsi(closes, period), start)
}

// MACD рассчитывает линию MACD, сигнальную линию и гистограмму.
// Линия определена с индекса slow-1, сигнальная линия это EMA(signal) линии,
// начиная с ее первого определенного значения.
func MACD(closes []float64, fast, slow, signal int) MACDResult {
	if fast > slow {
		fast, slow = slow, fast
	}
	lineStart := slow - 1
	start := lineStart + signal - 1
	if fast < 1 || signal < 1 || len(closes) <= start {
		n := len(closes)
		return MACDResult{MACD: undefined(n), Signal: undefined(n), Hist: undefined(n)}
	}

	// talib.Macd сеет сигнальную EMA по нулям до slow+signal-3, поэтому собираем вручную
	fastEMA := talib.Ema(closes, fast)
	slowEMA := talib.Ema(closes, slow)
	line := make([]float64, len(closes))
	for i := lineStart; i < len(closes); i++ {
		line[i] = fastEMA[i] - slowEMA[i]
	}

	sig := make([]float64, len(closes))
	copy(sig[lineStart:], talib.Ema(line[lineStart:], signal))

	hist := make([]float64, len(closes))
	for i := start; i < len(closes); i++ {
		hist[i] = line[i] - sig[i]
	}

	return MACDResult{
		MACD:   normalize(line, lineStart),
		Signal: normalize(sig, start),
		Hist:   normalize(hist, start),
	}
}

// EMA экспоненциальная скользящая средняя, начальное значение равно SMA первых period свечей
func EMA(closes []float64, period int) Series {
	start := period - 1
	if period < 1 || len(closes) <= start {
		return undefined(len(closes))
	}
	return normalize(talib.Ema(closes, period), start)
}

// CrossedAbove: линия A пересекла B снизу вверх между двумя соседними точками
func CrossedAbove(prevA, prevB, curA, curB float64) bool {
	return prevA <= prevB && curA > curB
}

// CrossedBelow: линия A пересекла B сверху вниз
func CrossedBelow(prevA, prevB, curA, curB float64) bool {
	return prevA >= prevB && curA < curB
}

// normalize копирует выход talib и заполняет период прогрева NaN
func normalize(values []float64, start int) Series {
	out := make([]float64, len(values))
	copy(out, values)
	for i := 0; i < start && i < len(out); i++ {
		out[i] = math.NaN()
	}
	return Series{Values: out, Start: start}
}

func undefined(n int) Series {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return Series{Values: out, Start: n}
}
