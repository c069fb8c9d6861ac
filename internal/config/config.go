package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	LogLevel  string          `json:"log_level" yaml:"log_level"`
	Detection DetectionConfig `json:"detection" yaml:"detection"`
	State     StateConfig     `json:"state" yaml:"state"`
	Storage   StorageConfig   `json:"storage" yaml:"storage"`
	Alerts    AlertsConfig    `json:"alerts" yaml:"alerts"`
	Ingest    IngestConfig    `json:"ingest" yaml:"ingest"`
	API       APIConfig       `json:"api" yaml:"api"`
	Decisions DecisionsConfig `json:"decisions" yaml:"decisions"`
}

type DetectionConfig struct {
	HomeCountry            string             `json:"home_country" yaml:"home_country"`
	HighAmountThreshold    float64            `json:"high_amount_threshold" yaml:"high_amount_threshold"`
	ForeignAmountThreshold float64            `json:"foreign_amount_threshold" yaml:"foreign_amount_threshold"`
	HighRiskThreshold      float64            `json:"high_risk_threshold" yaml:"high_risk_threshold"`
	RapidFire              RapidFireConfig    `json:"rapid_fire" yaml:"rapid_fire"`
	Weights                map[string]float64 `json:"weights" yaml:"weights"`
	DefaultWeight          float64            `json:"default_weight" yaml:"default_weight"`
}

type RapidFireConfig struct {
	Window    time.Duration `json:"window" yaml:"window"`
	MinAmount float64       `json:"min_amount" yaml:"min_amount"`
	MinCount  int           `json:"min_count" yaml:"min_count"`
}

type StateConfig struct {
	Driver string `json:"driver" yaml:"driver"`
	DSN    string `json:"dsn" yaml:"dsn"`
}

type StorageConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Driver  string `json:"driver" yaml:"driver"`
	DSN     string `json:"dsn" yaml:"dsn"`
}

type AlertsConfig struct {
	Kafka      KafkaAlertConfig `json:"kafka" yaml:"kafka"`
	StoreLimit int              `json:"store_limit" yaml:"store_limit"`
}

type KafkaAlertConfig struct {
	Enabled bool     `json:"enabled" yaml:"enabled"`
	Brokers []string `json:"brokers" yaml:"brokers"`
	Topic   string   `json:"topic" yaml:"topic"`
}

type IngestConfig struct {
	ChannelBuffer int              `json:"channel_buffer" yaml:"channel_buffer"`
	REST          RESTConfig       `json:"rest" yaml:"rest"`
	Kafka         KafkaConfig      `json:"kafka" yaml:"kafka"`
	FileReplay    FileReplayConfig `json:"file_replay" yaml:"file_replay"`
	TCPStream     TCPStreamConfig  `json:"tcp_stream" yaml:"tcp_stream"`
}

type RESTConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Addr    string `json:"addr" yaml:"addr"`
}

type KafkaConfig struct {
	Enabled bool     `json:"enabled" yaml:"enabled"`
	Brokers []string `json:"brokers" yaml:"brokers"`
	Topic   string   `json:"topic" yaml:"topic"`
	GroupID string   `json:"group_id" yaml:"group_id"`
}

type FileReplayConfig struct {
	Enabled    bool     `json:"enabled" yaml:"enabled"`
	StartAtEnd bool     `json:"start_at_end" yaml:"start_at_end"`
	Files      []string `json:"files" yaml:"files"`
}

type TCPStreamConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Addr    string `json:"addr" yaml:"addr"`
}

type APIConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Addr    string `json:"addr" yaml:"addr"`
}

type DecisionsConfig struct {
	StoreLimit int `json:"store_limit" yaml:"store_limit"`
}

func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Detection: DetectionConfig{
			HomeCountry:            "AU",
			HighAmountThreshold:    1000,
			ForeignAmountThreshold: 500,
			HighRiskThreshold:      0.85,
			RapidFire: RapidFireConfig{
				Window:    60 * time.Second,
				MinAmount: 200,
				MinCount:  3,
			},
			Weights: map[string]float64{
				"HIGH_AMOUNT":  0.6,
				"FOREIGN_HIGH": 0.7,
				"RAPID_FIRE":   0.5,
			},
			DefaultWeight: 0.4,
		},
		State:   StateConfig{Driver: "memory"},
		Storage: StorageConfig{Enabled: false, Driver: "sqlite", DSN: "file:fraudguard.db?_pragma=busy_timeout(5000)"},
		Alerts:  AlertsConfig{Kafka: KafkaAlertConfig{Enabled: false, Topic: "fraud.alerts"}, StoreLimit: 1000},
		Ingest: IngestConfig{
			ChannelBuffer: 10000,
			REST:          RESTConfig{Enabled: true, Addr: ":8080"},
			Kafka:         KafkaConfig{Enabled: false},
			FileReplay:    FileReplayConfig{Enabled: false, StartAtEnd: true},
			TCPStream:     TCPStreamConfig{Enabled: false, Addr: ":9000"},
		},
		API:       APIConfig{Enabled: true, Addr: ":8081"},
		Decisions: DecisionsConfig{StoreLimit: 1000},
	}
}

func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()

	trimmed := strings.TrimSpace(string(content))
	if len(trimmed) == 0 {
		return nil, errors.New("config file is empty")
	}
	var decodeErr error
	if looksLikeJSON(trimmed) {
		decodeErr = json.Unmarshal([]byte(trimmed), cfg)
	} else {
		decodeErr = yaml.Unmarshal([]byte(trimmed), cfg)
	}
	if decodeErr != nil {
		return nil, decodeErr
	}
	ApplyEnv(cfg)
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv builds a config without a file: defaults plus environment overrides.
func FromEnv() (*Config, error) {
	cfg := DefaultConfig()
	ApplyEnv(cfg)
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overlays the enumerated environment settings onto cfg.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("HOME_COUNTRY"); v != "" {
		cfg.Detection.HomeCountry = v
	}
	if v, ok := envFloat("HIGH_AMOUNT"); ok {
		cfg.Detection.HighAmountThreshold = v
	}
	if v, ok := envFloat("FOREIGN_AMOUNT"); ok {
		cfg.Detection.ForeignAmountThreshold = v
	}
	if v, ok := envFloat("HIGH_RISK_THRESHOLD"); ok {
		cfg.Detection.HighRiskThreshold = v
	}
	if v := os.Getenv("STATE_DRIVER"); v != "" {
		cfg.State.Driver = v
	}
	if v := os.Getenv("STATE_DSN"); v != "" {
		cfg.State.DSN = v
	}
	if v := os.Getenv("STORAGE_DSN"); v != "" {
		cfg.Storage.Enabled = true
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("STORAGE_DRIVER"); v != "" {
		cfg.Storage.Driver = v
	}
	if v := os.Getenv("ALERTS_KAFKA_BROKERS"); v != "" {
		cfg.Alerts.Kafka.Enabled = true
		cfg.Alerts.Kafka.Brokers = splitList(v)
	}
	if v := os.Getenv("ALERTS_KAFKA_TOPIC"); v != "" {
		cfg.Alerts.Kafka.Topic = v
	}
}

func envFloat(key string) (float64, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func Save(path string, cfg *Config) error {
	if path == "" || cfg == nil {
		return errors.New("config path or config is empty")
	}
	var data []byte
	var err error
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".json" {
		data, err = json.MarshalIndent(cfg, "", "  ")
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func looksLikeJSON(s string) bool {
	for _, ch := range s {
		if ch == '{' || ch == '[' {
			return true
		}
		if ch > ' ' {
			return false
		}
	}
	return false
}

func applyDefaults(cfg *Config) {
	if cfg.Detection.HomeCountry == "" {
		cfg.Detection.HomeCountry = "AU"
	}
	if cfg.Detection.RapidFire.Window <= 0 {
		cfg.Detection.RapidFire.Window = 60 * time.Second
	}
	if cfg.Detection.RapidFire.MinAmount <= 0 {
		cfg.Detection.RapidFire.MinAmount = 200
	}
	if cfg.Detection.RapidFire.MinCount <= 0 {
		cfg.Detection.RapidFire.MinCount = 3
	}
	if len(cfg.Detection.Weights) == 0 {
		cfg.Detection.Weights = DefaultConfig().Detection.Weights
	}
	if cfg.Detection.DefaultWeight <= 0 {
		cfg.Detection.DefaultWeight = 0.4
	}
	if cfg.State.Driver == "" {
		cfg.State.Driver = "memory"
	}
	if cfg.Ingest.ChannelBuffer <= 0 {
		cfg.Ingest.ChannelBuffer = 10000
	}
	if cfg.Alerts.StoreLimit <= 0 {
		cfg.Alerts.StoreLimit = 1000
	}
	if cfg.Decisions.StoreLimit <= 0 {
		cfg.Decisions.StoreLimit = 1000
	}
}

func Validate(cfg *Config) error {
	if cfg.Detection.HighAmountThreshold <= 0 {
		return errors.New("detection.high_amount_threshold must be > 0")
	}
	if cfg.Detection.ForeignAmountThreshold <= 0 {
		return errors.New("detection.foreign_amount_threshold must be > 0")
	}
	if cfg.Detection.HighRiskThreshold <= 0 || cfg.Detection.HighRiskThreshold > 1 {
		return errors.New("detection.high_risk_threshold must be in (0, 1]")
	}
	for rule, w := range cfg.Detection.Weights {
		if w <= 0 || w > 1 {
			return fmt.Errorf("detection.weights[%s] must be in (0, 1]", rule)
		}
	}
	if cfg.Detection.DefaultWeight <= 0 || cfg.Detection.DefaultWeight > 1 {
		return errors.New("detection.default_weight must be in (0, 1]")
	}
	switch strings.ToLower(cfg.State.Driver) {
	case "memory", "sqlite", "postgres", "postgresql", "redis":
	default:
		return fmt.Errorf("state.driver %q is not supported", cfg.State.Driver)
	}
	if cfg.API.Enabled && cfg.API.Addr == "" {
		return errors.New("api.addr required when api.enabled is true")
	}
	if cfg.Ingest.REST.Enabled && cfg.Ingest.REST.Addr == "" {
		return errors.New("ingest.rest.addr required when ingest.rest.enabled is true")
	}
	if cfg.Ingest.TCPStream.Enabled && cfg.Ingest.TCPStream.Addr == "" {
		return errors.New("ingest.tcp_stream.addr required when ingest.tcp_stream.enabled is true")
	}
	if cfg.Ingest.FileReplay.Enabled && len(cfg.Ingest.FileReplay.Files) == 0 {
		return errors.New("ingest.file_replay.files required when ingest.file_replay.enabled is true")
	}
	if cfg.Ingest.Kafka.Enabled {
		if len(cfg.Ingest.Kafka.Brokers) == 0 || cfg.Ingest.Kafka.Topic == "" || cfg.Ingest.Kafka.GroupID == "" {
			return errors.New("ingest.kafka requires brokers, topic, group_id")
		}
	}
	if cfg.Alerts.Kafka.Enabled {
		if len(cfg.Alerts.Kafka.Brokers) == 0 || cfg.Alerts.Kafka.Topic == "" {
			return errors.New("alerts.kafka requires brokers and topic")
		}
	}
	return nil
}

type Manager struct {
	path    string
	cfg     atomic.Value
	modTime time.Time
}

func NewManager(path string) (*Manager, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	m := &Manager{path: path}
	m.cfg.Store(cfg)
	info, err := os.Stat(path)
	if err == nil {
		m.modTime = info.ModTime()
	}
	return m, nil
}

// NewStatic wraps an already-built config in a Manager with no backing file.
// Reload and Watch are no-ops for a static manager.
func NewStatic(cfg *Config) *Manager {
	m := &Manager{}
	m.cfg.Store(cfg)
	return m
}

func (m *Manager) Get() *Config {
	if v := m.cfg.Load(); v != nil {
		return v.(*Config)
	}
	return DefaultConfig()
}

func (m *Manager) Path() string {
	return m.path
}

func (m *Manager) Reload() (*Config, error) {
	if m.path == "" {
		return m.Get(), nil
	}
	cfg, err := Load(m.path)
	if err != nil {
		return nil, err
	}
	m.cfg.Store(cfg)
	if info, err := os.Stat(m.path); err == nil {
		m.modTime = info.ModTime()
	}
	return cfg, nil
}

func (m *Manager) NeedsReload() (bool, error) {
	if m.path == "" {
		return false, nil
	}
	info, err := os.Stat(m.path)
	if err != nil {
		return false, err
	}
	return info.ModTime().After(m.modTime), nil
}

func (m *Manager) Watch(interval time.Duration, onReload func(*Config), onError func(error), stop <-chan struct{}) {
	if m.path == "" {
		return
	}
	if interval <= 0 {
		interval = 3 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			needs, err := m.NeedsReload()
			if err != nil {
				if onError != nil {
					onError(err)
				}
				continue
			}
			if !needs {
				continue
			}
			cfg, err := m.Reload()
			if err != nil {
				if onError != nil {
					onError(err)
				}
				continue
			}
			if onReload != nil {
				onReload(cfg)
			}
		case <-stop:
			return
		}
	}
}

func ResolvePath(path string) string {
	if path == "" {
		return path
	}
	if filepath.IsAbs(path) {
		return path
	}
	cwd, err := os.Getwd()
	if err != nil {
		return path
	}
	return filepath.Join(cwd, path)
}
