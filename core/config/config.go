package config

import (
	_ "embed"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

var (
	//go:embed default/config.yaml
	defaultConfigData []byte
)

const (
	ConfigurationName = "config.yaml"
)

type Configuration struct {
	configFs afero.Fs

	Prompt          string `json:"prompt"`
	MaxInputChars   int    `json:"max_input_chars" validate:"gte=1,lte=65536"`
	MaxArgs         int    `json:"max_args" validate:"gte=1,lte=65536"`
	ReapDelayMs     int    `json:"reap_delay_ms" validate:"gte=0,lte=1000"`
	ShutdownGraceMs int    `json:"shutdown_grace_ms" validate:"gte=0,lte=10000"`
	NullDevice      string `json:"null_device" validate:"required"`
	Color           string `json:"color" validate:"oneof=always auto never"`
	AppLog          string `json:"app_log"`
	LogLevel        string `json:"log_level" validate:"oneof=debug info warn error disabled"`
}

// Validate the configuration for basic semantic errors.
func (c *Configuration) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		return name
	})

	return validate.Struct(c)
}

func (c *Configuration) fs() afero.Fs {
	if c.configFs == nil {
		c.configFs = afero.NewOsFs()
	}
	return c.configFs
}

// ReapDelay is the pause after each command before the next prompt.
func (c *Configuration) ReapDelay() time.Duration {
	return time.Duration(c.ReapDelayMs) * time.Millisecond
}

// ShutdownGrace is how long exit waits for children after SIGTERM.
func (c *Configuration) ShutdownGrace() time.Duration {
	return time.Duration(c.ShutdownGraceMs) * time.Millisecond
}

// HasAppLog reports whether a diagnostic log is configured.
func (c *Configuration) HasAppLog() bool {
	return c.AppLog != ""
}

// OpenAppLog opens the application log in an append only state.
func (c *Configuration) OpenAppLog() (afero.File, error) {
	return c.fs().OpenFile(c.AppLog, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
}

// Default returns the built-in configuration.
func Default() *Configuration {
	out := defaultConfig()
	out.configFs = afero.NewOsFs()
	return out
}

func defaultConfig() *Configuration {
	var out Configuration
	if err := yaml.UnmarshalStrict(defaultConfigData, &out); err != nil {
		panic(err)
	}
	return &out
}
