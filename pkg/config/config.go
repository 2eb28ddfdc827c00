package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

const defaultEnvFile = ".env"

var (
	envFilePath string
	parseOnce   sync.Once

	exportMu sync.Mutex
	exported = map[string]bool{}
)

// Validator is implemented by config structs with cross-field rules.
type Validator interface {
	Validate() error
}

func MustNew[T any](prefix string) *T {
	conf, err := New[T](prefix)
	if err != nil {
		panic(err)
	}
	return conf
}

// New loads the env file once per path, then fills T from the environment
// under prefix. When *T is a Validator its rules run before returning.
func New[T any](prefix string) (*T, error) {
	if path := resolveEnvPath(); path != "" {
		if err := exportOnce(path, false); err != nil {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	} else if err := exportOnce(defaultEnvFile, true); err != nil {
		return nil, fmt.Errorf("failed to load default env file: %w", err)
	}

	var conf T
	if err := envconfig.Process(prefix, &conf); err != nil {
		return nil, err
	}
	if v, ok := any(&conf).(Validator); ok {
		if err := v.Validate(); err != nil {
			return nil, err
		}
	}
	return &conf, nil
}

// SetEnvFile fixes the env file path for every later New call. Command trees
// that own flag parsing call it instead of relying on the "env" flag.
func SetEnvFile(path string) {
	parseOnce.Do(func() {})
	envFilePath = strings.TrimSpace(path)
}

func resolveEnvPath() string {
	parseOnce.Do(func() {
		if flag.Lookup("env") == nil {
			flag.StringVar(&envFilePath, "env", "", "path to .env file")
		}
		if !flag.Parsed() {
			flag.Parse()
		}
	})
	return strings.TrimSpace(envFilePath)
}

func exportOnce(path string, optional bool) error {
	exportMu.Lock()
	defer exportMu.Unlock()
	if exported[path] {
		return nil
	}

	if optional {
		info, err := os.Stat(path)
		if errors.Is(err, os.ErrNotExist) || (err == nil && info.IsDir()) {
			return nil
		}
		if err != nil {
			return err
		}
	}

	if err := exportEnvironment(path); err != nil {
		return err
	}
	exported[path] = true
	return nil
}

// exportEnvironment copies the file's keys into the process environment.
// Variables already set by the environment win over the file.
func exportEnvironment(path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return err
	}

	for k, val := range v.AllSettings() {
		key := strings.ToUpper(k)
		if _, ok := os.LookupEnv(key); ok {
			continue
		}
		if err := os.Setenv(key, fmt.Sprint(val)); err != nil {
			return err
		}
	}
	return nil
}
