package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/fundtrace/internal/export"
	"github.com/wonny/fundtrace/pkg/logger"
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "대시보드 payload 내보내기 (JSON / XLSX)",
	Long: `마트 뷰에서 대시보드 payload 를 읽어 파일로 저장합니다.

Sections:
  dashboard_summary, top_holdings_topn, top_holdings_all,
  sector_allocation, country_allocation,
  search_by_fund, search_by_asset (각 최대 500행)

--out 을 생략하면 stdout 으로 출력합니다 (json 만).

Example:
  go run ./cmd/trace export --out data/dashboard_data.json
  go run ./cmd/trace export --format xlsx --out dashboard.xlsx`,
	RunE: runExport,
}

var (
	exportFormat string
	exportOut    string
)

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "output format (json|xlsx)")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default stdout)")
}

func runExport(cmd *cobra.Command, args []string) error {
	format, err := export.ParseFormat(strings.ToLower(exportFormat))
	if err != nil {
		return err
	}
	if format == export.FormatXLSX && exportOut == "" {
		return fmt.Errorf("--out is required for xlsx")
	}

	a, err := loadApp(0)
	if err != nil {
		return err
	}
	if err := a.connect(); err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if exportOut == "" {
		return exportPayload(ctx, export.NewBuilder(a.reader(), a.log), os.Stdout, format)
	}
	if err := exportFile(ctx, export.NewBuilder(a.reader(), a.log), exportOut, format); err != nil {
		return err
	}
	a.log.WithField("path", exportOut).Info("Dashboard payload written")
	return nil
}

func exportPayload(ctx context.Context, b *export.Builder, w io.Writer, format export.Format) error {
	p, err := b.Build(ctx)
	if err != nil {
		return fmt.Errorf("build payload: %w", err)
	}
	return export.Write(w, format, p)
}

// exportFile writes to a temp file and renames it so readers never see a partial payload
func exportFile(ctx context.Context, b *export.Builder, path string, format export.Format) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".export-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := exportPayload(ctx, b, tmp, format); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

// scheduledExport returns the export step of the scheduled build, or nil when no path is set
func scheduledExport(a *app, path string, log *logger.Logger) func(ctx context.Context) error {
	if path == "" {
		return nil
	}
	format := export.FormatJSON
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		format = export.FormatXLSX
	}
	return func(ctx context.Context) error {
		if err := exportFile(ctx, export.NewBuilder(a.reader(), log), path, format); err != nil {
			return err
		}
		log.WithField("path", path).Info("Dashboard payload written")
		return nil
	}
}
