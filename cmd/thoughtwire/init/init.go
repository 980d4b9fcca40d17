// Package initcmder provides the init command for initializing a local
// .thoughtwire directory in the current working directory.
package initcmder

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/thoughtwire/pkg/cliui"
	"github.com/papercomputeco/thoughtwire/pkg/config"
)

const (
	dirName    = ".thoughtwire"
	configFile = "config.toml"
)

// remoteTimeout bounds fetching a remote preset.
const remoteTimeout = 10 * time.Second

const initLongDesc string = `Initialize a new .thoughtwire/ directory in the current working directory.

Creates a local .thoughtwire/ directory that takes precedence over the
default ~/.thoughtwire/ directory for the saved chat session, storage and
configuration, and writes a config.toml with default values.

Use --preset to start from a deployment preset instead of the defaults:
  local       Relay and API share a SQLite file in the working directory
  postgres    Messages are stored in a local PostgreSQL database
  kafka       SQLite storage plus a Kafka topic of persisted messages

--preset also accepts an http(s) URL serving a config.toml.

Examples:
  thoughtwire init
  thoughtwire init --preset postgres
  thoughtwire init --preset https://example.com/thoughtwire/config.toml`

const initShortDesc string = "Initialize a local .thoughtwire/ directory"

type initCommander struct {
	preset string
	out    io.Writer
}

func NewInitCmd() *cobra.Command {
	cmder := &initCommander{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.out = cmd.OutOrStdout()
			return cmder.run()
		},
	}

	cmd.Flags().StringVar(&cmder.preset, "preset", "", "Deployment preset ("+strings.Join(config.ValidPresetNames(), ", ")+") or a URL to a config.toml")

	return cmd
}

func (c *initCommander) run() error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	dir := filepath.Join(cwd, dirName)
	cfgPath := filepath.Join(dir, configFile)

	info, err := os.Stat(dir)
	existed := err == nil && info.IsDir()

	if !existed {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating .thoughtwire directory: %w", err)
		}
	}

	_, statErr := os.Stat(cfgPath)
	hasConfig := statErr == nil

	// Re-running without a preset keeps whatever is already there.
	if existed && hasConfig && c.preset == "" {
		fmt.Fprintf(c.out, "Already initialized: %s\n", dir)
		return nil
	}

	cfg, err := c.resolveConfig()
	if err != nil {
		return err
	}

	cfger, err := config.NewConfiger(dir)
	if err != nil {
		return err
	}
	if err := cfger.SaveConfig(cfg); err != nil {
		return err
	}

	if existed {
		fmt.Fprintf(c.out, "Updated config: %s\n", cfgPath)
	} else {
		fmt.Fprintf(c.out, "Initialized .thoughtwire directory: %s\n", dir)
	}
	return nil
}

func (c *initCommander) resolveConfig() (*config.Config, error) {
	switch {
	case c.preset == "":
		return config.NewDefaultConfig(), nil
	case strings.HasPrefix(c.preset, "http://"), strings.HasPrefix(c.preset, "https://"):
		var cfg *config.Config
		err := cliui.Step(c.out, "Fetching remote config", func() error {
			var err error
			cfg, err = fetchRemoteConfig(c.preset)
			return err
		})
		return cfg, err
	default:
		return config.PresetConfig(c.preset)
	}
}

func fetchRemoteConfig(url string) (*config.Config, error) {
	client := &http.Client{Timeout: remoteTimeout}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetching remote config: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching remote config: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("fetching remote config: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("fetching remote config: empty response")
	}

	return config.ParseConfigTOML(data)
}
