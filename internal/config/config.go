package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/skalibog/alphascan/pkg/models"
	"gopkg.in/yaml.v2"
)

// Config представляет полную конфигурацию приложения
type Config struct {
	Symbol   string         `yaml:"symbol" default:"BTCUSDT" validate:"required"`
	Binance  BinanceConfig  `yaml:"binance"`
	Scanner  ScannerConfig  `yaml:"scanner"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Backend  BackendConfig  `yaml:"backend"`
	Email    EmailConfig    `yaml:"email"`
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Log      LogConfig      `yaml:"log"`
}

// BinanceConfig содержит настройки получения свечей.
// Endpoints перебираются по порядку, пока один из них не вернет данные.
type BinanceConfig struct {
	Endpoints      []string `yaml:"endpoints" default:"[\"https://api.binance.com\",\"https://api1.binance.com\",\"https://api2.binance.com\",\"https://api3.binance.com\",\"https://data-api.binance.vision\"]" validate:"min=1,dive,url"`
	TimeoutSeconds int      `yaml:"timeout_seconds" default:"5" validate:"gt=0"`
	Limit          int      `yaml:"limit" default:"500" validate:"gt=0,lte=1000"`
}

// ScannerConfig настройки цикла сканирования
type ScannerConfig struct {
	Timeframes          []string `yaml:"timeframes" default:"[\"1m\",\"15m\",\"4h\"]" validate:"min=1,dive,required"`
	PassIntervalSeconds int      `yaml:"pass_interval_seconds" default:"30" validate:"gte=0"`
	TimeframePauseMs    int      `yaml:"timeframe_pause_ms" default:"2000" validate:"gte=0"`
	CooldownSeconds     int      `yaml:"cooldown_seconds" default:"60" validate:"gte=0"`
}

// AnalysisConfig содержит настройки стратегий
type AnalysisConfig struct {
	Technical TechnicalConfig `yaml:"technical"`
	Scalping  ScalpingConfig  `yaml:"scalping"`
}

// TechnicalConfig настройки стратегии конфлюенции BB + RSI + MACD
type TechnicalConfig struct {
	BBPeriod        int     `yaml:"bb_period" default:"20" validate:"gt=1"`
	BBDeviation     float64 `yaml:"bb_deviation" default:"2" validate:"gt=0"`
	RSIPeriod       int     `yaml:"rsi_period" default:"14" validate:"gt=1"`
	RSIOversold     float64 `yaml:"rsi_oversold" default:"30" validate:"gt=0,lt=100"`
	RSIOverbought   float64 `yaml:"rsi_overbought" default:"70" validate:"gt=0,lt=100,gtfield=RSIOversold"`
	MACDFast        int     `yaml:"macd_fast" default:"12" validate:"gt=0"`
	MACDSlow        int     `yaml:"macd_slow" default:"26" validate:"gtfield=MACDFast"`
	MACDSignal      int     `yaml:"macd_signal" default:"9" validate:"gt=0"`
	StopBufferRatio float64 `yaml:"stop_buffer_ratio" default:"0.05" validate:"gte=0"`
	ContextCandles  int     `yaml:"context_candles" default:"100" validate:"gt=0"`
}

// ScalpingConfig настройки скальпинговой стратегии.
// Пустой Timeframe означает самый короткий таймфрейм сканера, "off" отключает стратегию.
type ScalpingConfig struct {
	Timeframe      string  `yaml:"timeframe"`
	MidTimeframe   string  `yaml:"mid_timeframe" default:"5m" validate:"required"`
	HighTimeframe  string  `yaml:"high_timeframe" default:"1h" validate:"required"`
	Limit          int     `yaml:"limit" default:"300" validate:"min=300,gtefield=TrendPeriod,lte=1000"`
	TrendPeriod    int     `yaml:"trend_period" default:"200" validate:"gt=1"`
	TickBuffer     float64 `yaml:"tick_buffer" default:"2" validate:"gte=0"`
	RewardRatio    float64 `yaml:"reward_ratio" default:"1.5" validate:"gt=0"`
	ContextCandles int     `yaml:"context_candles" default:"50" validate:"gt=0"`
}

// BackendConfig адрес сервиса, принимающего сигналы
type BackendConfig struct {
	URL string `yaml:"url" default:"localhost:4000"`
}

// EmailConfig настройки SMTP-уведомлений
type EmailConfig struct {
	SMTPHost string `yaml:"smtp_host" default:"smtp.gmail.com"`
	SMTPPort int    `yaml:"smtp_port" default:"587" validate:"gt=0,lt=65536"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	To       string `yaml:"to" validate:"omitempty,email"`
}

// Enabled сообщает, настроены ли все параметры для отправки почты
func (e EmailConfig) Enabled() bool {
	return e.User != "" && e.Password != "" && e.To != ""
}

// ServerConfig настройки HTTP-сервера проверки здоровья
type ServerConfig struct {
	Port int `yaml:"port" default:"10000" validate:"gt=0,lt=65536"`
}

// StorageConfig настройки хранения телеметрии индикаторов.
// Пустой URL отключает запись.
type StorageConfig struct {
	URL          string `yaml:"url"`
	Token        string `yaml:"token"`
	Organization string `yaml:"organization"`
	Bucket       string `yaml:"bucket" default:"alphascan"`
}

// LogConfig настройки логирования
type LogConfig struct {
	Level string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
	File  string `yaml:"file"`
}

// ScalpingOff значение таймфрейма, отключающее скальпинг
const ScalpingOff = "off"

var validate = validator.New()

// Load загружает конфигурацию из файла и переменных окружения.
// Пустой path означает конфигурацию только из значений по умолчанию и окружения.
func Load(path string) (*Config, error) {
	var config Config
	if err := defaults.Set(&config); err != nil {
		return nil, fmt.Errorf("ошибка установки значений по умолчанию: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения файла конфигурации: %w", err)
		}
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("ошибка разбора файла конфигурации: %w", err)
		}
	}

	applyEnv(&config)
	config.Analysis.Scalping.Timeframe = resolveScalpingTimeframe(config.Analysis.Scalping.Timeframe, config.Scanner.Timeframes)
	config.Backend.URL = NormalizeBackendURL(config.Backend.URL)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate проверяет конфигурацию
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("некорректная конфигурация: %w", err)
	}

	for _, tf := range c.Scanner.Timeframes {
		if _, ok := models.IntervalDuration(tf); !ok {
			return fmt.Errorf("неизвестный таймфрейм: %q", tf)
		}
	}
	for _, tf := range []string{c.Analysis.Scalping.Timeframe, c.Analysis.Scalping.MidTimeframe, c.Analysis.Scalping.HighTimeframe} {
		if tf == "" {
			continue
		}
		if _, ok := models.IntervalDuration(tf); !ok {
			return fmt.Errorf("неизвестный таймфрейм скальпинга: %q", tf)
		}
	}

	return nil
}

// PassInterval пауза между проходами сканера
func (c ScannerConfig) PassInterval() time.Duration {
	return time.Duration(c.PassIntervalSeconds) * time.Second
}

// TimeframePause пауза между таймфреймами внутри прохода
func (c ScannerConfig) TimeframePause() time.Duration {
	return time.Duration(c.TimeframePauseMs) * time.Millisecond
}

// Cooldown окно подавления повторных сигналов
func (c ScannerConfig) Cooldown() time.Duration {
	return time.Duration(c.CooldownSeconds) * time.Second
}

// Timeout ограничение на один запрос к эндпоинту
func (c BinanceConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// NormalizeBackendURL добавляет схему, если она не указана: http для localhost, иначе https
func NormalizeBackendURL(raw string) string {
	raw = strings.TrimRight(strings.TrimSpace(raw), "/")
	if raw == "" || strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	if strings.Contains(raw, "localhost") {
		return "http://" + raw
	}
	return "https://" + raw
}

func applyEnv(c *Config) {
	if v := os.Getenv("SYMBOL"); v != "" {
		c.Symbol = v
	}
	if v := os.Getenv("TIMEFRAMES"); v != "" {
		c.Scanner.Timeframes = splitList(v)
	}
	if v := os.Getenv("BACKEND_URL"); v != "" {
		c.Backend.URL = v
	}
	if v := os.Getenv("SMTP_SERVER"); v != "" {
		c.Email.SMTPHost = v
	}
	c.Email.SMTPPort = intFromEnv("SMTP_PORT", c.Email.SMTPPort)
	if v := os.Getenv("SMTP_USER"); v != "" {
		c.Email.User = v
	}
	if v := os.Getenv("SMTP_PASS"); v != "" {
		c.Email.Password = v
	}
	if v := os.Getenv("EMAIL_TO"); v != "" {
		c.Email.To = v
	}
	c.Server.Port = intFromEnv("PORT", c.Server.Port)
	if v := os.Getenv("INFLUX_URL"); v != "" {
		c.Storage.URL = v
	}
	if v := os.Getenv("INFLUX_TOKEN"); v != "" {
		c.Storage.Token = v
	}
	if v := os.Getenv("INFLUX_ORG"); v != "" {
		c.Storage.Organization = v
	}
	if v := os.Getenv("INFLUX_BUCKET"); v != "" {
		c.Storage.Bucket = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
}

// resolveScalpingTimeframe возвращает таймфрейм скальпинга: явно заданный,
// самый короткий из сканируемых или пустую строку для "off"
func resolveScalpingTimeframe(tf string, timeframes []string) string {
	if strings.EqualFold(tf, ScalpingOff) {
		return ""
	}
	if tf != "" {
		return tf
	}

	var shortest time.Duration
	for _, candidate := range timeframes {
		d, ok := models.IntervalDuration(candidate)
		if !ok {
			continue
		}
		if tf == "" || d < shortest {
			tf, shortest = candidate, d
		}
	}
	return tf
}

func intFromEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
