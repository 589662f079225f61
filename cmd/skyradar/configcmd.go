package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/unklstewy/skyradar/pkg/config"
)

func runConfigInit(c *cli.Context) error {
	path := c.String(flagConfig)
	if _, err := os.Stat(path); err == nil && !c.Bool("force") {
		return fmt.Errorf("%s already exists, use --force to overwrite", path)
	}

	cfg := config.DefaultConfig()
	if err := applyFlags(c, cfg); err != nil {
		return err
	}
	if err := cfg.Save(path); err != nil {
		return err
	}
	log.Info().Str("path", path).Msg("Configuration written")
	return nil
}

func runConfigShow(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	shown := *cfg
	if shown.Source.Password != "" {
		shown.Source.Password = "********"
	}
	if shown.Database.Password != "" {
		shown.Database.Password = "********"
	}

	data, err := json.MarshalIndent(shown, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
