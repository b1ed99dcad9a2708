package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"epidash/internal/config"
	"epidash/internal/model"
	"epidash/internal/pipeline"
	"epidash/internal/store"
	"epidash/pkg/utils"
)

// runReport is written to <report-dir>/<import id>/report.json.
type runReport struct {
	Run   model.ImportRun   `json:"run"`
	Stats model.ImportStats `json:"stats"`
	Error string            `json:"error,omitempty"`
}

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	reportDir := flag.String("report-dir", "", "write report.json and errors.csv for the run under this directory")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(1)
	}
	level, _ := cfg.LogLevel()
	logger := utils.NewLogger(os.Stderr, level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		logger.Error("❌ failed to open catalog", "err", err)
		os.Exit(1)
	}
	defer st.Close()

	id, stats, runErr := pipeline.NewRunner(st, logger, nil).Run(ctx, cfg.ImportSpec())
	if runErr != nil {
		logger.Error("❌ import failed", "import", id, "err", runErr)
	}

	if *reportDir != "" && id != "" {
		if err := writeReport(utils.NewOutputManager(*reportDir), st, id, stats, runErr); err != nil {
			logger.Error("failed to write report", "err", err)
		} else {
			logger.Info("📁 report written", "dir", *reportDir, "import", id)
		}
	}
	if runErr != nil {
		os.Exit(1)
	}
}

func writeReport(om *utils.OutputManager, st *store.Store, id string, stats model.ImportStats, runErr error) error {
	run, err := st.GetImport(id)
	if err != nil {
		return err
	}
	report := runReport{Run: run, Stats: stats}
	if runErr != nil {
		report.Error = runErr.Error()
	}
	if _, err := om.WriteJSON(id, "report.json", report); err != nil {
		return err
	}

	errs, err := st.GetImportErrors(id)
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(errs))
	for _, e := range errs {
		rows = append(rows, []string{strconv.FormatInt(e.ID, 10), e.Stage, e.Message})
	}
	_, err = om.WriteCSV(id, "errors.csv", []string{"id", "stage", "message"}, rows)
	return err
}
