package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	detectorConfigPath string
	verbose            bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "scanner",
	Short: "Insight scanner - 일봉 기반 기술적 신호 스캐너",
	Long: `Insight Scanner CLI

일봉 캔들에서 EMA 크로스, RSI, 돌파, 컵앤핸들 신호를 감지하고
카테고리 가중 종합점수를 저장합니다.

Usage:
  go run ./cmd/scanner [command]

Examples:
  go run ./cmd/scanner scan INFY TCS --date 2024-03-01
  go run ./cmd/scanner scan --all
  go run ./cmd/scanner api --port 8089
  go run ./cmd/scanner scheduler start
  go run ./cmd/scanner detectors`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&detectorConfigPath, "detectors", "", "detector YAML (default: DETECTOR_CONFIG or built-in defaults)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
