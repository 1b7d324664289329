package config

import (
	"encoding/json"
	"os"

	"github.com/dmaltsev/tasklist/internal/flagx"
	"github.com/dmaltsev/tasklist/internal/timex"
)

// JsonConfig mirrors Config for JSON unmarshalling. Interval fields use
// timex.Duration so files may say "5m" instead of integer nanoseconds.
// Zero values mean "keep the current setting".
type JsonConfig struct {
	EndpointAddr string `json:"endpoint_addr"`
	DatabaseDSN  string `json:"database_dsn"`

	RedisAddr     string `json:"redis_addr"`
	RedisPassword string `json:"redis_password"`
	RedisDB       *int   `json:"redis_db"`

	SecretKey                    string         `json:"secret_key"`
	RefreshTokenCookieName       string         `json:"refresh_token_cookie_name"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity"`
	AccessTokenReissueThreshold  timex.Duration `json:"access_token_reissue_threshold"`

	SignupCodeTTL        timex.Duration `json:"signup_code_ttl"`
	ResetPasswordCodeTTL timex.Duration `json:"reset_password_code_ttl"`

	RateLimitMaxRequests *int           `json:"ratelimit_max_requests"`
	RateLimitWindow      timex.Duration `json:"ratelimit_window"`

	SMTPHost     string `json:"smtp_host"`
	SMTPPort     *int   `json:"smtp_port"`
	SMTPUsername string `json:"smtp_username"`
	SMTPPassword string `json:"smtp_password"`
	SMTPFrom     string `json:"smtp_from"`
}

// parseJson overlays values from the JSON file named by -c/-config, if any.
// Unreadable or malformed files panic: a config file that exists but cannot
// be used is a deployment error, not something to run past.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.EndpointAddr != "" {
		config.EndpointAddr = c.EndpointAddr
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.RedisAddr != "" {
		config.RedisAddr = c.RedisAddr
	}
	if c.RedisPassword != "" {
		config.RedisPassword = c.RedisPassword
	}
	if c.RedisDB != nil {
		config.RedisDB = *c.RedisDB
	}
	if c.SecretKey != "" {
		config.SecretKey = c.SecretKey
	}
	if c.RefreshTokenCookieName != "" {
		config.RefreshTokenCookieName = c.RefreshTokenCookieName
	}
	if c.AccessTokenValidityDuration.Duration != 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration.Duration != 0 {
		config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	}
	if c.AccessTokenReissueThreshold.Duration != 0 {
		config.AccessTokenReissueThreshold = c.AccessTokenReissueThreshold.Duration
	}
	if c.SignupCodeTTL.Duration != 0 {
		config.SignupCodeTTL = c.SignupCodeTTL.Duration
	}
	if c.ResetPasswordCodeTTL.Duration != 0 {
		config.ResetPasswordCodeTTL = c.ResetPasswordCodeTTL.Duration
	}
	if c.RateLimitMaxRequests != nil {
		config.RateLimitMaxRequests = *c.RateLimitMaxRequests
	}
	if c.RateLimitWindow.Duration != 0 {
		config.RateLimitWindow = c.RateLimitWindow.Duration
	}
	if c.SMTPHost != "" {
		config.SMTPHost = c.SMTPHost
	}
	if c.SMTPPort != nil {
		config.SMTPPort = *c.SMTPPort
	}
	if c.SMTPUsername != "" {
		config.SMTPUsername = c.SMTPUsername
	}
	if c.SMTPPassword != "" {
		config.SMTPPassword = c.SMTPPassword
	}
	if c.SMTPFrom != "" {
		config.SMTPFrom = c.SMTPFrom
	}
}
