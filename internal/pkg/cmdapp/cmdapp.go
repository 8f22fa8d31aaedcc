package cmdapp

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/heirko/go-contrib/logrusHelper"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	configFile = ""
	envFile    = ".env"
)

// InitApplication prepares config loading for the root command.
// Keys are resolved from env first (jobs.maxConcurrent <- JOBS_MAXCONCURRENT), then from the yaml config
func InitApplication(rootCommand *cobra.Command) {
	Config.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	Config.AutomaticEnv()
	cobra.OnInitialize(initConfig)
	rootCommand.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is config.yaml)")
	rootCommand.PersistentFlags().StringVarP(&envFile, "env", "e", envFile, "dotenv file to preload into the environment")
}

func initConfig() {
	if err := loadEnvFile(envFile); err != nil {
		Log.Warn("Can't read env file: ", err)
	}
	failOnNoFile := false
	if configFile != "" {
		Config.SetConfigFile(configFile)
		failOnNoFile = true
	} else {
		ex, err := os.Executable()
		if err != nil {
			Log.Error("Can't get the app directory:", err)
			panic(1)
		}
		Config.AddConfigPath(filepath.Dir(ex))
		Config.AddConfigPath(".")
		Config.SetConfigName("config")
	}

	if err := Config.ReadInConfig(); err != nil {
		Log.Warn("Can't read config:", err)
		if failOnNoFile {
			Log.Error("Exiting the app")
			panic(1)
		}
	}
	initLog()
	Log.Info("Config loaded from: ", Config.ConfigFileUsed())
}

// loadEnvFile copies KEY=VALUE pairs from a dotenv file into the process env.
// Variables already present in the env are not overwritten
func loadEnvFile(name string) error {
	if name == "" {
		return nil
	}
	if _, err := os.Stat(name); os.IsNotExist(err) {
		return nil
	}
	v := viper.New()
	v.SetConfigFile(name)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return errors.Wrapf(err, "can't parse %s", name)
	}
	for _, k := range v.AllKeys() {
		env := strings.ToUpper(k)
		if _, f := os.LookupEnv(env); f {
			continue
		}
		if err := os.Setenv(env, v.GetString(k)); err != nil {
			return errors.Wrapf(err, "can't set %s", env)
		}
	}
	Log.Infof("Env loaded from: %s", name)
	return nil
}

func initLog() {
	initDefaultLogConfig()
	c := logrusHelper.UnmarshalConfiguration(Config.Sub("logger"))
	err := logrusHelper.SetConfig(Log, c)
	if err != nil {
		Log.Error("Can't init log ", err)
	}
}

func initDefaultLogConfig() {
	Config.SetDefault("logger", map[string]interface{}{
		"level":                              "info",
		"formatter.name":                     "text",
		"formatter.options.full_timestamp":   true,
		"formatter.options.timestamp_format": "2006-01-02T15:04:05.000",
	})
}

func logPanic() {
	if r := recover(); r != nil {
		Log.Error(r)
		os.Exit(1)
	}
}

//Execute runs the root command, a panic inside is logged and exits the app
func Execute(cmd *cobra.Command) {
	defer logPanic()
	if err := cmd.Execute(); err != nil {
		panic(err)
	}
}

//CheckOrPanic panics if err != nil
func CheckOrPanic(err error, msg string) {
	if err != nil {
		if msg == "" {
			panic(err)
		}
		panic(errors.Wrap(err, msg))
	}
}

//LogIf logs error if err != nil
func LogIf(err error) {
	if err != nil {
		Log.Error(err)
	}
}
