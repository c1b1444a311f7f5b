package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wonny/insight/internal/detectorconfig"
	"github.com/wonny/insight/internal/s2_signals"
)

// detectorsCmd prints the registry without touching the store
var detectorsCmd = &cobra.Command{
	Use:   "detectors",
	Short: "등록된 디텍터 목록",
	Long: `현재 설정으로 구성된 디텍터 레지스트리와 설정 해시를 출력합니다.

Example:
  go run ./cmd/scanner detectors
  go run ./cmd/scanner detectors --detectors configs/detectors.yaml`,
	RunE: listDetectors,
}

func init() {
	rootCmd.AddCommand(detectorsCmd)
}

func listDetectors(cmd *cobra.Command, args []string) error {
	cfg, _, det, err := loadSettings()
	if err != nil {
		return err
	}

	registry, err := s2_signals.NewDefaultRegistry(det)
	if err != nil {
		return fmt.Errorf("build detector registry: %w", err)
	}
	hash, err := detectorconfig.Hash(det)
	if err != nil {
		return fmt.Errorf("hash detector config: %w", err)
	}

	PrintHeader("Detector Registry")
	widths := []int{12, 44, 8}
	PrintTableHeader([]string{"DETECTOR", "CODES", "MIN BARS"}, widths)
	for _, d := range registry.Detectors() {
		codes := make([]string, 0, len(d.Codes()))
		for _, c := range d.Codes() {
			codes = append(codes, string(c))
		}
		PrintTableRow([]string{d.Name(), strings.Join(codes, ", "), fmt.Sprintf("%d", d.MinBars())}, widths)
	}
	PrintSeparator()

	source := cfg.Scan.DetectorConfigPath
	if source == "" {
		source = "(built-in defaults)"
	}
	PrintKeyValue("Config", source, 8)
	PrintKeyValue("Hash", hash, 8)
	for _, name := range det.Disabled {
		PrintWarning(fmt.Sprintf("%s disabled", name))
	}
	return nil
}
