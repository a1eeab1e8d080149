package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
	Long:  `Commands for inspecting the reaper's effective configuration.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Print the merged configuration (defaults, config file, environment) as YAML.
Secrets are redacted.`,
	RunE: runConfigShow,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
}

// EffectiveConfig mirrors the configuration surface the reaper consumes.
type EffectiveConfig struct {
	Orchestrator struct {
		URL      string `yaml:"url"`
		Token    string `yaml:"token"`
		CACert   string `yaml:"ca_cert,omitempty"`
		Insecure bool   `yaml:"insecure,omitempty"`
	} `yaml:"orchestrator"`
	Sessions struct {
		URL          string `yaml:"url"`
		TokenURL     string `yaml:"token_url"`
		ClientID     string `yaml:"client_id"`
		ClientSecret string `yaml:"client_secret"`
	} `yaml:"sessions"`
	Reaper struct {
		JobNamePrefix  string `yaml:"job_name_prefix"`
		TimeLimitHours int    `yaml:"time_limit_hours"`
		RetryAttempts  int    `yaml:"retry_attempts"`
		RetryDelay     string `yaml:"retry_delay"`
	} `yaml:"reaper"`
	Workdir struct {
		Root string `yaml:"root"`
	} `yaml:"workdir"`
	Audit struct {
		Path string `yaml:"path,omitempty"`
	} `yaml:"audit"`
	Log struct {
		Level string `yaml:"level"`
		JSON  bool   `yaml:"json"`
	} `yaml:"log"`
	Serve struct {
		Listen   string `yaml:"listen"`
		Interval string `yaml:"interval"`
	} `yaml:"serve"`
}

func redact(value string) string {
	if value == "" {
		return ""
	}
	return "<redacted>"
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	var cfg EffectiveConfig
	cfg.Orchestrator.URL = viper.GetString("orchestrator.url")
	cfg.Orchestrator.Token = redact(viper.GetString("orchestrator.token"))
	cfg.Orchestrator.CACert = viper.GetString("orchestrator.ca_cert")
	cfg.Orchestrator.Insecure = viper.GetBool("orchestrator.insecure")
	cfg.Sessions.URL = viper.GetString("sessions.url")
	cfg.Sessions.TokenURL = viper.GetString("sessions.token_url")
	cfg.Sessions.ClientID = viper.GetString("sessions.client_id")
	cfg.Sessions.ClientSecret = redact(viper.GetString("sessions.client_secret"))
	cfg.Reaper.JobNamePrefix = viper.GetString("reaper.job_name_prefix")
	cfg.Reaper.TimeLimitHours = viper.GetInt("reaper.time_limit_hours")
	cfg.Reaper.RetryAttempts = viper.GetInt("reaper.retry_attempts")
	cfg.Reaper.RetryDelay = viper.GetString("reaper.retry_delay")
	cfg.Workdir.Root = viper.GetString("workdir.root")
	cfg.Audit.Path = viper.GetString("audit.path")
	cfg.Log.Level = viper.GetString("log.level")
	cfg.Log.JSON = viper.GetBool("log.json")
	cfg.Serve.Listen = viper.GetString("serve.listen")
	cfg.Serve.Interval = viper.GetString("serve.interval")

	out, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration: %w", err)
	}
	fmt.Print(string(out))
	return nil
}
