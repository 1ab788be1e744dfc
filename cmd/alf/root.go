package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/texerai/alf/internal/classify"
	"github.com/texerai/alf/internal/color"
	"github.com/texerai/alf/internal/config"
	"github.com/texerai/alf/internal/logging"
	"github.com/texerai/alf/internal/model"
	"github.com/texerai/alf/internal/patch"
	"github.com/texerai/alf/internal/pipeline"
	"github.com/texerai/alf/internal/selector"
)

var (
	flagVCD              string
	flagFlist            string
	flagUndo             bool
	flagConfig           string
	flagVerbose          bool
	flagClassifyEndpoint string
	flagClassifyModel    string
	flagBackupPath       string
)

func init() {
	rootCmd.Flags().StringVarP(&flagVCD, "vcd", "v", "", "simulation dump (VCD) to mine for design hierarchy")
	rootCmd.Flags().StringVarP(&flagFlist, "flist", "f", "", "file-list enumerating the design's source files")
	rootCmd.Flags().BoolVarP(&flagUndo, "undo", "u", false, "restore sources from ./backup.json and exit")
	rootCmd.Flags().StringVar(&flagConfig, "config", "", "optional YAML config file")
	rootCmd.Flags().BoolVar(&flagVerbose, "verbose", false, "enable structured debug tracing")
	rootCmd.Flags().StringVar(&flagClassifyEndpoint, "classify-endpoint", "", "override the classification oracle's HTTP endpoint")
	rootCmd.Flags().StringVar(&flagClassifyModel, "classify-model", "", "override the classification oracle's model name")
	rootCmd.Flags().StringVar(&flagBackupPath, "backup", "", "override the backup set's path")

	rootCmd.RunE = runRoot
}

func runRoot(cmd *cobra.Command, args []string) error {
	if flagVerbose {
		logging.EnableVerbose()
	}

	if flagUndo {
		return runUndo()
	}

	if flagVCD == "" {
		exitCode = model.Failure.ExitCode()
		return fmt.Errorf("-v/--vcd is required unless --undo is given")
	}
	if flagFlist == "" {
		exitCode = model.Failure.ExitCode()
		return fmt.Errorf("-f/--flist is required unless --undo is given")
	}

	cfg, err := config.Load(flagConfig)
	if err != nil {
		exitCode = model.Failure.ExitCode()
		return err
	}
	if flagClassifyEndpoint != "" {
		cfg.Classify.Endpoint = flagClassifyEndpoint
	}
	if flagClassifyModel != "" {
		cfg.Classify.Model = flagClassifyModel
	}
	backupPath := cfg.Backup.Path
	if flagBackupPath != "" {
		backupPath = flagBackupPath
	}

	classifier := classify.NewHTTPClassifier(
		cfg.Classify.Endpoint, cfg.Classify.Model,
		cfg.Classify.Timeout, cfg.Classify.TokenThreshold, cfg.Classify.BatchInterval,
	)

	modules := selector.NewModulePicker(os.Stdin, os.Stdout)
	signals := selector.NewSignalPicker(os.Stdin, os.Stdout)

	stdinFd := int(os.Stdin.Fd())
	if restore, rawErr := selector.EnterRawMode(stdinFd); rawErr == nil {
		defer restore()
	} else {
		logging.Debugf("stdin is not a terminal, running the selectors unbuffered: %v", rawErr)
	}
	rows := selector.TerminalRows(int(os.Stdout.Fd()))
	modules.Rows = rows
	signals.Rows = rows

	seed := rand.New(rand.NewSource(time.Now().UnixNano())).Int63()
	session := patch.NewSession(seed)

	driver := pipeline.NewDriver(classifier, modules, signals, session, backupPath)

	fmt.Println(color.Header("ALF RTL patcher"))
	rc, err := driver.Run(context.Background(), flagVCD, flagFlist)
	exitCode = rc.ExitCode()

	switch rc {
	case model.Success:
		fmt.Println(color.Okf("patch session complete; run with --undo to restore"))
	case model.Terminate:
		fmt.Println(color.Warn("session terminated by user"))
	case model.Failure:
		fmt.Println(color.Failf("patch session failed"))
	}

	return err
}

func runUndo() error {
	backupPath := flagBackupPath
	if backupPath == "" {
		cfg, err := config.Load(flagConfig)
		if err != nil {
			exitCode = model.Failure.ExitCode()
			return err
		}
		backupPath = cfg.Backup.Path
	}

	if err := patch.Restore(backupPath); err != nil {
		exitCode = model.Failure.ExitCode()
		return fmt.Errorf("restoring from %s: %w", backupPath, err)
	}

	fmt.Println(color.Okf("restored sources from %s", backupPath))
	exitCode = model.Success.ExitCode()
	return nil
}
