package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetConfigFile(t *testing.T) {
	originalCfgFile := cfgFile
	defer func() {
		cfgFile = originalCfgFile
	}()

	tests := []struct {
		name     string
		cfgValue string
		want     string
	}{
		{name: "default config file", cfgValue: "", want: ""},
		{name: "custom config file", cfgValue: "/etc/historytracker/prod.yaml", want: "/etc/historytracker/prod.yaml"},
		{name: "config file with spaces", cfgValue: "/path/to/my config.yaml", want: "/path/to/my config.yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfgFile = tt.cfgValue
			assert.Equal(t, tt.want, GetConfigFile())
		})
	}
}

func TestGetCLIOverrides(t *testing.T) {
	originalLogLevel := logLevel
	originalLogFormat := logFormat
	originalHistoryTable := historyTable
	defer func() {
		logLevel = originalLogLevel
		logFormat = originalLogFormat
		historyTable = originalHistoryTable
	}()

	tests := []struct {
		name         string
		logLevel     string
		logFormat    string
		historyTable string
		want         CLIOverrides
	}{
		{
			name: "empty overrides",
			want: CLIOverrides{},
		},
		{
			name:         "all overrides set",
			logLevel:     "debug",
			logFormat:    "text",
			historyTable: "audit_log",
			want:         CLIOverrides{LogLevel: "debug", LogFormat: "text", HistoryTable: "audit_log"},
		},
		{
			name:     "partial overrides",
			logLevel: "warn",
			want:     CLIOverrides{LogLevel: "warn"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logLevel = tt.logLevel
			logFormat = tt.logFormat
			historyTable = tt.historyTable

			assert.Equal(t, tt.want, GetCLIOverrides())
		})
	}
}

func TestLoadConfigAppliesOverrides(t *testing.T) {
	writeConfig(t, testConfigYAML)

	originalHistoryTable := historyTable
	originalLogLevel := logLevel
	defer func() {
		historyTable = originalHistoryTable
		logLevel = originalLogLevel
	}()
	historyTable = "audit_log"
	logLevel = "debug"

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "audit_log", cfg.Tracking.Table)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, []string{"blog_post", "comment"}, cfg.EntityNames())
}

func TestLoadConfigMissingFile(t *testing.T) {
	originalCfgFile := cfgFile
	defer func() { cfgFile = originalCfgFile }()
	cfgFile = "nonexistent-config.yaml"

	_, err := loadConfig()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config")
}

func TestOpenSessionRejectsInvalidConfig(t *testing.T) {
	writeConfig(t, testConfigYAML+`
logging:
  level: chatty
`)

	_, err := openSession()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logging.level")
}

func TestRootCommandStructure(t *testing.T) {
	assert.NotNil(t, rootCmd)
	assert.Equal(t, "historytracker", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
	assert.Equal(t, Version, rootCmd.Version)
}

func TestRootCommandPersistentFlags(t *testing.T) {
	flags := rootCmd.PersistentFlags()

	configFlag, err := flags.GetString("config")
	assert.NoError(t, err)
	assert.Equal(t, "historytracker.yaml", configFlag)
	assert.Equal(t, "c", flags.Lookup("config").Shorthand)

	logLevelFlag, err := flags.GetString("log-level")
	assert.NoError(t, err)
	assert.Equal(t, "", logLevelFlag)

	logFormatFlag, err := flags.GetString("log-format")
	assert.NoError(t, err)
	assert.Equal(t, "", logFormatFlag)

	historyTableFlag, err := flags.GetString("history-table")
	assert.NoError(t, err)
	assert.Equal(t, "", historyTableFlag)
}

func TestRootCommandSubcommands(t *testing.T) {
	commands := rootCmd.Commands()
	commandNames := make([]string, len(commands))
	for i, cmd := range commands {
		commandNames[i] = cmd.Name()
	}

	expectedCommands := []string{
		"entities",
		"history",
		"migrate",
		"plan",
		"validate",
		"version",
	}
	for _, expected := range expectedCommands {
		assert.Contains(t, commandNames, expected, "root should have %s command", expected)
	}
}

func TestCommandsDocumentExamples(t *testing.T) {
	for _, cmd := range []struct {
		name string
		long string
	}{
		{"entities", entitiesCmd.Long},
		{"history", historyCmd.Long},
		{"migrate", migrateCmd.Long},
		{"plan", planCmd.Long},
		{"validate", validateCmd.Long},
	} {
		assert.Contains(t, cmd.long, "Example:", cmd.name)
		assert.Contains(t, cmd.long, "historytracker "+cmd.name, cmd.name)
	}
}
