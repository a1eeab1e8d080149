package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/psantana5/compute-reaper/internal/audit"
	"github.com/psantana5/compute-reaper/internal/auth"
	"github.com/psantana5/compute-reaper/internal/orchestrator"
	"github.com/psantana5/compute-reaper/internal/reaper"
	"github.com/psantana5/compute-reaper/internal/sessions"
	"github.com/psantana5/compute-reaper/internal/workdir"
	"github.com/psantana5/compute-reaper/pkg/logging"
	"github.com/psantana5/compute-reaper/pkg/models"
	"github.com/psantana5/compute-reaper/pkg/retry"
	"github.com/psantana5/compute-reaper/pkg/tlsutil"
)

var (
	cfgFile string
	dryRun  bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "reaper",
	Short: "Reclaims zombie compute-server jobs and orphaned working directories",
	Long: `reaper correlates compute-server jobs in the orchestration layer with their
remote compute sessions, classifies each as active or zombie, deletes zombie
jobs, and sweeps working directories that no longer belong to an active session.`,
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.reaper/config.yaml)")
}

// initConfig reads in config file and ENV variables if set
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			os.Exit(1)
		}
		viper.AddConfigPath(filepath.Join(home, ".reaper"))
		viper.AddConfigPath("/etc/reaper")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("REAPER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("reaper.job_name_prefix", models.JobNamePrefix)
	viper.SetDefault("reaper.retry_attempts", 3)
	viper.SetDefault("reaper.retry_delay", "5s")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.json", false)
	viper.SetDefault("serve.listen", ":9753")
	viper.SetDefault("serve.interval", "1h")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
			os.Exit(1)
		}
	}
}

func newLogger(component string) *logging.Logger {
	return logging.New(component, logging.ParseLevel(viper.GetString("log.level")), viper.GetBool("log.json"))
}

// requireString returns a configuration error, fatal before any API call, when
// the key is unset.
func requireString(key string) (string, error) {
	value := viper.GetString(key)
	if value == "" {
		return "", fmt.Errorf("missing required configuration: %s", key)
	}
	return value, nil
}

// buildCoordinator wires the clients, scanner, and optional audit store into
// a coordinator. The returned store is nil when auditing is disabled.
func buildCoordinator(dryRun bool) (*reaper.Coordinator, *audit.Store, error) {
	timeLimit := viper.GetInt("reaper.time_limit_hours")
	if timeLimit <= 0 {
		return nil, nil, fmt.Errorf("missing required configuration: reaper.time_limit_hours")
	}

	orchURL, err := requireString("orchestrator.url")
	if err != nil {
		return nil, nil, err
	}
	orchToken, err := requireString("orchestrator.token")
	if err != nil {
		return nil, nil, err
	}
	sessURL, err := requireString("sessions.url")
	if err != nil {
		return nil, nil, err
	}
	tokenURL, err := requireString("sessions.token_url")
	if err != nil {
		return nil, nil, err
	}
	clientID, err := requireString("sessions.client_id")
	if err != nil {
		return nil, nil, err
	}
	clientSecret, err := requireString("sessions.client_secret")
	if err != nil {
		return nil, nil, err
	}
	scanRoot, err := requireString("workdir.root")
	if err != nil {
		return nil, nil, err
	}

	tlsConfig, err := tlsutil.ClientConfig(viper.GetString("orchestrator.ca_cert"), viper.GetBool("orchestrator.insecure"))
	if err != nil {
		return nil, nil, err
	}

	retryDelay, err := time.ParseDuration(viper.GetString("reaper.retry_delay"))
	if err != nil {
		return nil, nil, fmt.Errorf("invalid reaper.retry_delay: %w", err)
	}

	sessionTokens := auth.NewClientCredentials(tokenURL, clientID, clientSecret, nil)
	jobClient := orchestrator.NewClient(orchURL, auth.StaticTokenSource(orchToken), tlsConfig)
	sessionClient := sessions.NewClient(sessURL, sessionTokens, tlsConfig)
	scanner := workdir.NewScanner(scanRoot)

	var store *audit.Store
	var recorder reaper.Recorder
	if path := viper.GetString("audit.path"); path != "" {
		store, err = audit.NewStore(path)
		if err != nil {
			return nil, nil, err
		}
		recorder = store
	}

	cfg := reaper.Config{
		NamePrefix:     viper.GetString("reaper.job_name_prefix"),
		TimeLimitHours: timeLimit,
		DryRun:         dryRun,
		Retry: retry.Config{
			MaxRetries: viper.GetInt("reaper.retry_attempts"),
			Delay:      retryDelay,
			Multiplier: 1.0,
		},
	}

	coordinator := reaper.New(cfg, sessionTokens, jobClient, sessionClient, scanner, recorder, newLogger("reaper"))
	return coordinator, store, nil
}
