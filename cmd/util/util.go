package util

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Wrap is the number of characters to Wrap the help text at.
const Wrap int = 50

// WrapString wraps a string at Wrap characters.
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// SetupTreeFlags adds the flags common to every tree subcommand.
func SetupTreeFlags(cmd *cobra.Command) {
	key := "arena-capacity"
	cmd.PersistentFlags().Int(key, 0, WrapString("Advisory capacity (in bytes) for the in-process arena heap backing the tree; not enforced, the arena is unbounded for any value"))

	key = "offline-free-interval"
	cmd.PersistentFlags().Int(key, 0, WrapString("Seconds between automatic Maintenance() calls that drain the heap's deferred-free queue; 0 disables the background loop"))

	key = "log-level"
	cmd.PersistentFlags().String(key, "info", WrapString("Log level for the tree session (debug, info, warn, error)"))
}

// InitConfig loads .env files and wires viper's environment lookup, the way
// the client commands of the teacher repository do for their RPC flags.
func InitConfig() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	viper.SetEnvPrefix("oradix")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// BindCommandFlags binds a command's flags to viper.
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// ArenaCapacity reads the configured arena capacity.
func ArenaCapacity() int {
	return viper.GetInt("arena-capacity")
}

// OfflineFreeInterval reads the configured maintenance interval in seconds.
func OfflineFreeInterval() int {
	return viper.GetInt("offline-free-interval")
}

// LogLevel reads the configured log level string.
func LogLevel() string {
	return viper.GetString("log-level")
}
