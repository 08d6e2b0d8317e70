/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/allbin/serialcon"
	"github.com/spf13/viper"
)

// initConfig reads in config file and ENV variables if set
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if dir, err := os.UserConfigDir(); err == nil {
		viper.AddConfigPath(filepath.Join(dir, "serialcon"))
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("serialcon")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && cfgFile != "" {
			fmt.Fprintf(os.Stderr, "Error reading config %s: %v\n", cfgFile, err)
			os.Exit(1)
		}
	}
}

// setDefaults mirrors the flag defaults so a bare viper instance behaves
// like the command line
func setDefaults(v *viper.Viper) {
	config := serialcon.DefaultConfig()
	v.SetDefault("baud", config.BaudRate)
	v.SetDefault("escape", string(rune(config.EscapeChar)))
	v.SetDefault("delay", time.Duration(0))
	v.SetDefault("poll", config.PollInterval)
}

// optionsFromViper turns the bound flags, environment and config file into
// relay options
func optionsFromViper(v *viper.Viper) ([]serialcon.Option, error) {
	esc, err := serialcon.ParseEscapeChar(v.GetString("escape"))
	if err != nil {
		return nil, err
	}

	return []serialcon.Option{
		serialcon.WithBaudRate(v.GetInt("baud")),
		serialcon.WithEscapeChar(esc),
		serialcon.WithTranscript(v.GetString("log")),
		serialcon.WithAppend(v.GetBool("append")),
		serialcon.WithTimestamps(v.GetBool("timestamp")),
		serialcon.WithCharDelay(v.GetDuration("delay")),
		serialcon.WithPollInterval(v.GetDuration("poll")),
	}, nil
}

// resolveDevices picks the device list: positional arguments first, then
// the config file's devices, then (with --auto) every port found by list
func resolveDevices(args []string, v *viper.Viper, list func() ([]string, error)) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	if devices := v.GetStringSlice("devices"); len(devices) > 0 {
		return devices, nil
	}
	if v.GetBool("auto") {
		ports, err := list()
		if err != nil {
			return nil, fmt.Errorf("failed to list ports: %w", err)
		}
		if len(ports) > 0 {
			return ports, nil
		}
	}
	return nil, serialcon.ErrNoDevices
}
