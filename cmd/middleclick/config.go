package main

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gethiox/middleclick/internal/pkg/logger"
	"github.com/go-ini/ini"
)

type MiddleClick struct {
	DiscoveryRate       time.Duration
	StabilizationPeriod time.Duration
	Grab                bool
	QueueSize           int
	FocusPollRate       time.Duration
}

type UI struct {
	LogViewRate   time.Duration
	LogBufferSize int
}

type Gestures struct {
	File string // absolute, or relative to working directory
}

type MiddleClickConfig struct {
	MiddleClick MiddleClick
	UI          UI
	Gestures    Gestures
}

// rate converts "times per second" key into interval
func rate(key *ini.Key) (time.Duration, error) {
	i, err := key.Int()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key.Name(), err)
	}
	if i <= 0 {
		return 0, fmt.Errorf("%s: rate must be positive, got %d", key.Name(), i)
	}
	return time.Second / time.Duration(i), nil
}

func positive(key *ini.Key) (int, error) {
	i, err := key.Int()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key.Name(), err)
	}
	if i <= 0 {
		return 0, fmt.Errorf("%s: value must be positive, got %d", key.Name(), i)
	}
	return i, nil
}

func LoadMiddleClickConfig(path string) (MiddleClickConfig, error) {
	var c MiddleClickConfig

	cfg, err := ini.Load(path)
	if err != nil {
		return c, fmt.Errorf("cannot load \"%s\": %w", path, err)
	}

	// [middleclick]
	mc := cfg.Section("middleclick")
	c.MiddleClick.DiscoveryRate, err = rate(mc.Key("discovery_rate"))
	if err != nil {
		return c, err
	}
	stabilization, err := mc.Key("stabilization_period").Int()
	if err != nil || stabilization < 0 {
		return c, fmt.Errorf("stabilization_period: invalid value \"%s\"", mc.Key("stabilization_period").String())
	}
	c.MiddleClick.StabilizationPeriod = time.Millisecond * time.Duration(stabilization)
	c.MiddleClick.Grab, err = mc.Key("grab").Bool()
	if err != nil {
		return c, fmt.Errorf("grab: %w", err)
	}
	c.MiddleClick.QueueSize, err = positive(mc.Key("queue_size"))
	if err != nil {
		return c, err
	}
	c.MiddleClick.FocusPollRate, err = rate(mc.Key("focus_poll_rate"))
	if err != nil {
		return c, err
	}

	// [ui]
	ui := cfg.Section("ui")
	c.UI.LogViewRate, err = rate(ui.Key("log_view_rate"))
	if err != nil {
		return c, err
	}
	c.UI.LogBufferSize, err = positive(ui.Key("log_buffer_size"))
	if err != nil {
		return c, err
	}

	// [gestures]
	file := cfg.Section("gestures").Key("file").String()
	if file == "" {
		return c, fmt.Errorf("gestures file is not set")
	}
	if !filepath.IsAbs(file) {
		file = filepath.Join(filepath.Dir(path), file)
	}
	c.Gestures.File = file

	return c, nil
}

//go:embed middleclick-config/middleclick.config
//go:embed middleclick-config/gestures.yaml
var templateConfig embed.FS

const configDir = "middleclick-config"

// createConfigDirectoryIfNeeded creates config directory under root if necessary.
// Missing files are restored from templates, existing ones stay intact.
func createConfigDirectoryIfNeeded(root string) error {
	return fs.WalkDir(templateConfig, configDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		dst := filepath.Join(root, path)

		if d.IsDir() {
			err := os.Mkdir(dst, 0o777)
			if err != nil && !errors.Is(err, os.ErrExist) {
				return fmt.Errorf("cannot create \"%s\" directory: %w", dst, err)
			}
			return nil
		}

		_, err = os.Stat(dst)
		if err == nil {
			return nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("unexpected error when reading \"%s\" file: %w", dst, err)
		}

		data, err := fs.ReadFile(templateConfig, path)
		if err != nil {
			return fmt.Errorf("cannot read \"%s\" template file: %w", path, err)
		}
		err = os.WriteFile(dst, data, 0o666)
		if err != nil {
			return fmt.Errorf("cannot write data into \"%s\" file: %w", dst, err)
		}
		log.Info(fmt.Sprintf("Created \"%s\" file", dst), logger.Info)
		return nil
	})
}
