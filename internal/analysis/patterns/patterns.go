// Package patterns распознает свечные модели на последней закрытой свече.
// Каждая модель возвращает +100 (бычья), -100 (медвежья) или 0.
package patterns

import (
	"math"

	"github.com/skalibog/alphascan/pkg/models"
)

// Пороговые соотношения тела, теней и диапазона свечи
const (
	smallBodyRatio     = 0.35 // тело молота и падающей звезды
	hammerShadowBody   = 2.0  // длинная тень не меньше двух тел
	hammerShadowRange  = 0.6  // и не меньше 60% диапазона
	oppositeShadowMax  = 0.15 // противоположная тень почти отсутствует
	longBodyRatio      = 0.6  // длинная свеча
	starBodyRatio      = 0.3  // тело звезды
	dojiBodyRatio      = 0.1
	marubozuBodyRatio  = 0.95
	haramiBodyFraction = 0.5 // тело харами не больше половины предыдущего
)

const (
	Bullish = 100
	Bearish = -100
)

// Bias направленность модели
type Bias int

const (
	Neutral Bias = iota
	BullishBias
	BearishBias
)

func (b Bias) String() string {
	switch b {
	case BullishBias:
		return "bullish"
	case BearishBias:
		return "bearish"
	default:
		return "neutral"
	}
}

// Recognizer проверяет модель на свече i
type Recognizer func(s *models.CandleSeries, i int) int

// Pattern именованная модель
type Pattern struct {
	Name      string
	Recognize Recognizer
	// Directional=false означает, что знак результата не задает направление (доджи)
	Directional bool
}

// Match найденная модель
type Match struct {
	Name     string
	Strength int
	Bias     Bias
}

// Registry порядок проверки моделей. Первая подходящая по направлению модель выигрывает.
// Знак силы совпадает с направлением для всех моделей, кроме доджи: он возвращает +100,
// но помечен Neutral, и направление следует брать из Match.Bias, а не из знака.
var Registry = []Pattern{
	{Name: "Engulfing", Recognize: Engulfing, Directional: true},
	{Name: "Hammer", Recognize: Hammer, Directional: true},
	{Name: "Shooting Star", Recognize: ShootingStar, Directional: true},
	{Name: "Morning Star", Recognize: MorningStar, Directional: true},
	{Name: "Evening Star", Recognize: EveningStar, Directional: true},
	{Name: "Piercing", Recognize: Piercing, Directional: true},
	{Name: "Dark Cloud Cover", Recognize: DarkCloudCover, Directional: true},
	{Name: "Doji", Recognize: Doji, Directional: false},
	{Name: "Marubozu", Recognize: Marubozu, Directional: true},
	{Name: "Harami", Recognize: Harami, Directional: true},
}

// Detect проверяет все модели на последней закрытой свече
func Detect(s *models.CandleSeries) []Match {
	i := s.LastClosedIndex()
	if i < 0 {
		return nil
	}

	var matches []Match
	for _, p := range Registry {
		v := p.Recognize(s, i)
		if v == 0 {
			continue
		}
		bias := Neutral
		if p.Directional {
			if v > 0 {
				bias = BullishBias
			} else {
				bias = BearishBias
			}
		}
		matches = append(matches, Match{Name: p.Name, Strength: v, Bias: bias})
	}
	return matches
}

// First возвращает первую модель с заданной направленностью
func First(matches []Match, bias Bias) (Match, bool) {
	for _, m := range matches {
		if m.Bias == bias {
			return m, true
		}
	}
	return Match{}, false
}

// Engulfing тело свечи поглощает тело предыдущей свечи противоположного цвета
func Engulfing(s *models.CandleSeries, i int) int {
	if i < 1 || i >= s.Len() {
		return 0
	}
	p := i - 1
	if body(s, i) <= body(s, p) {
		return 0
	}
	switch {
	case isBear(s, p) && isBull(s, i) && s.Open[i] <= s.Close[p] && s.Close[i] >= s.Open[p]:
		return Bullish
	case isBull(s, p) && isBear(s, i) && s.Open[i] >= s.Close[p] && s.Close[i] <= s.Open[p]:
		return Bearish
	}
	return 0
}

// Hammer маленькое тело вверху диапазона и длинная нижняя тень после медвежьей свечи
func Hammer(s *models.CandleSeries, i int) int {
	if i < 1 || i >= s.Len() || !isBear(s, i-1) {
		return 0
	}
	r := rng(s, i)
	if r <= 0 {
		return 0
	}
	b, lower, upper := body(s, i), lowerShadow(s, i), upperShadow(s, i)
	if b <= smallBodyRatio*r && lower >= hammerShadowBody*b && lower >= hammerShadowRange*r && upper <= oppositeShadowMax*r {
		return Bullish
	}
	return 0
}

// ShootingStar зеркальная модель молота после бычьей свечи
func ShootingStar(s *models.CandleSeries, i int) int {
	if i < 1 || i >= s.Len() || !isBull(s, i-1) {
		return 0
	}
	r := rng(s, i)
	if r <= 0 {
		return 0
	}
	b, lower, upper := body(s, i), lowerShadow(s, i), upperShadow(s, i)
	if b <= smallBodyRatio*r && upper >= hammerShadowBody*b && upper >= hammerShadowRange*r && lower <= oppositeShadowMax*r {
		return Bearish
	}
	return 0
}

// MorningStar длинная медвежья свеча, звезда ниже ее закрытия и бычья свеча выше середины первой
func MorningStar(s *models.CandleSeries, i int) int {
	if i < 2 || i >= s.Len() {
		return 0
	}
	a, m := i-2, i-1
	if !isBear(s, a) || !isLong(s, a) || !isBull(s, i) {
		return 0
	}
	if !isStar(s, m, a) || math.Max(s.Open[m], s.Close[m]) > s.Close[a] {
		return 0
	}
	if s.Close[i] > (s.Open[a]+s.Close[a])/2 {
		return Bullish
	}
	return 0
}

// EveningStar зеркальная модель утренней звезды
func EveningStar(s *models.CandleSeries, i int) int {
	if i < 2 || i >= s.Len() {
		return 0
	}
	a, m := i-2, i-1
	if !isBull(s, a) || !isLong(s, a) || !isBear(s, i) {
		return 0
	}
	if !isStar(s, m, a) || math.Min(s.Open[m], s.Close[m]) < s.Close[a] {
		return 0
	}
	if s.Close[i] < (s.Open[a]+s.Close[a])/2 {
		return Bearish
	}
	return 0
}

// Piercing открытие ниже закрытия длинной медвежьей свечи и закрытие выше ее середины внутри тела
func Piercing(s *models.CandleSeries, i int) int {
	if i < 1 || i >= s.Len() {
		return 0
	}
	p := i - 1
	if !isBear(s, p) || !isLong(s, p) || !isBull(s, i) {
		return 0
	}
	mid := (s.Open[p] + s.Close[p]) / 2
	if s.Open[i] < s.Close[p] && s.Close[i] > mid && s.Close[i] < s.Open[p] {
		return Bullish
	}
	return 0
}

// DarkCloudCover зеркальная модель просвета в облаках
func DarkCloudCover(s *models.CandleSeries, i int) int {
	if i < 1 || i >= s.Len() {
		return 0
	}
	p := i - 1
	if !isBull(s, p) || !isLong(s, p) || !isBear(s, i) {
		return 0
	}
	mid := (s.Open[p] + s.Close[p]) / 2
	if s.Open[i] > s.Close[p] && s.Close[i] < mid && s.Close[i] > s.Open[p] {
		return Bearish
	}
	return 0
}

// Doji тело почти отсутствует. Направления не несет.
func Doji(s *models.CandleSeries, i int) int {
	if i < 0 || i >= s.Len() {
		return 0
	}
	r := rng(s, i)
	if r > 0 && body(s, i) <= dojiBodyRatio*r {
		return Bullish
	}
	return 0
}

// Marubozu тело занимает почти весь диапазон
func Marubozu(s *models.CandleSeries, i int) int {
	if i < 0 || i >= s.Len() {
		return 0
	}
	r := rng(s, i)
	if r <= 0 || body(s, i) < marubozuBodyRatio*r {
		return 0
	}
	if isBull(s, i) {
		return Bullish
	}
	return Bearish
}

// Harami маленькое тело внутри тела длинной предыдущей свечи, сигнал против ее цвета
func Harami(s *models.CandleSeries, i int) int {
	if i < 1 || i >= s.Len() {
		return 0
	}
	p := i - 1
	if !isLong(s, p) || body(s, i) > haramiBodyFraction*body(s, p) {
		return 0
	}
	pTop, pBottom := math.Max(s.Open[p], s.Close[p]), math.Min(s.Open[p], s.Close[p])
	top, bottom := math.Max(s.Open[i], s.Close[i]), math.Min(s.Open[i], s.Close[i])
	if top >= pTop || bottom <= pBottom {
		return 0
	}
	if isBear(s, p) {
		return Bullish
	}
	return Bearish
}

func body(s *models.CandleSeries, i int) float64 {
	return math.Abs(s.Close[i] - s.Open[i])
}

func rng(s *models.CandleSeries, i int) float64 {
	return s.High[i] - s.Low[i]
}

func upperShadow(s *models.CandleSeries, i int) float64 {
	return s.High[i] - math.Max(s.Open[i], s.Close[i])
}

func lowerShadow(s *models.CandleSeries, i int) float64 {
	return math.Min(s.Open[i], s.Close[i]) - s.Low[i]
}

func isBull(s *models.CandleSeries, i int) bool {
	return s.Close[i] > s.Open[i]
}

func isBear(s *models.CandleSeries, i int) bool {
	return s.Close[i] < s.Open[i]
}

func isLong(s *models.CandleSeries, i int) bool {
	r := rng(s, i)
	return r > 0 && body(s, i) >= longBodyRatio*r
}

// isStar: тело m мало относительно тела свечи a
func isStar(s *models.CandleSeries, m, a int) bool {
	return body(s, m) <= starBodyRatio*body(s, a)
}
