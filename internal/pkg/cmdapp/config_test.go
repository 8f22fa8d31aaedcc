package cmdapp

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "test",
		Long:  `test`,
		Run:   run}
}

func run(cmd *cobra.Command, args []string) {
	Log.Info("Starting jobService")
}

func TestReadEnvironmentVariable(t *testing.T) {
	t.Setenv("MONGO_URL", "olia")
	InitApplication(newRootCmd())

	assert.Equal(t, "olia", Config.GetString("mongo.url"))
}

func TestReadConfig(t *testing.T) {
	initAppFromTempFile(t, "transcriber:\n     url: olia\n")

	assert.Equal(t, "olia", Config.GetString("transcriber.url"))
}

func TestEnvBeatsConfig(t *testing.T) {
	t.Setenv("TRANSCRIBER_URL", "xxxx")
	initAppFromTempFile(t, "transcriber:\n     url: olia\n")

	assert.Equal(t, "xxxx", Config.GetString("transcriber.url"))
}

func TestDefaultLogger(t *testing.T) {
	initDefaultLevel()
	initAppFromTempFile(t, "")

	assert.Equal(t, "info", Log.GetLevel().String())
}

func TestLoggerInitFromConfig(t *testing.T) {
	initDefaultLevel()
	initAppFromTempFile(t, "logger:\n    level: trace\n")

	assert.Equal(t, "trace", Log.GetLevel().String())
}

func TestLoggerLevelInitFromEnv(t *testing.T) {
	initDefaultLevel()

	t.Setenv("LOGGER_LEVEL", "trace")
	initAppFromTempFile(t, "logger:\n    level: info\n")

	assert.Equal(t, "trace", Log.GetLevel().String())
}

func TestLoadEnvFile(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "test.env")
	require.Nil(t, os.WriteFile(fn, []byte("ASRJOBS_TEST_A=olia\nASRJOBS_TEST_B=file\n"), 0644))
	t.Setenv("ASRJOBS_TEST_B", "env")
	os.Unsetenv("ASRJOBS_TEST_A")
	defer os.Unsetenv("ASRJOBS_TEST_A")

	err := loadEnvFile(fn)

	assert.Nil(t, err)
	assert.Equal(t, "olia", os.Getenv("ASRJOBS_TEST_A"))
	assert.Equal(t, "env", os.Getenv("ASRJOBS_TEST_B"))
}

func TestLoadEnvFile_Missing(t *testing.T) {
	assert.Nil(t, loadEnvFile(filepath.Join(t.TempDir(), "none.env")))
	assert.Nil(t, loadEnvFile(""))
}

func initAppFromTempFile(t *testing.T, data string) {
	t.Helper()
	fn := filepath.Join(t.TempDir(), "test.yml")
	require.Nil(t, os.WriteFile(fn, []byte(data), 0644))

	rootCmd := newRootCmd()
	InitApplication(rootCmd)
	configFile = fn
	envFile = ""
	rootCmd.SetArgs([]string{})
	rootCmd.Execute()
}

func initDefaultLevel() {
	Log.SetLevel(logrus.ErrorLevel)
}
