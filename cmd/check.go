package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/flashware/flashcheck/internal/archive"
	"github.com/flashware/flashcheck/internal/compat"
	"github.com/flashware/flashcheck/internal/flasherr"
	"github.com/flashware/flashcheck/internal/report"
	"github.com/flashware/flashcheck/internal/runtimeinfo"
	"github.com/flashware/flashcheck/pkg/logger"
)

var (
	apiLevelFlag int
	archFlag     string
)

var checkCmd = &cobra.Command{
	Use:   "check <archive.zip> [archive.zip...]",
	Short: "Check flashable archives and evaluate module compatibility",
	Long: `Check verifies that each archive is a valid installer package, whether it
can be flashed in-app, and evaluates the embedded module manifest against
the device environment and the installer feature set.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.NewLogger("check")
		env := buildEnvironment()

		failed := false
		for _, path := range args {
			if !checkOne(path, env, log) {
				failed = true
			}
		}

		if failed {
			os.Exit(1)
		}
	},
}

func init() {
	checkCmd.Flags().IntVar(&apiLevelFlag, "api-level", 0, "device API level (overrides config and detection)")
	checkCmd.Flags().StringVar(&archFlag, "arch", "", "device architecture (overrides config and detection)")
	RootCmd.AddCommand(checkCmd)
}

// buildEnvironment layers flag and config overrides over detected host info.
func buildEnvironment() compat.Environment {
	detected := runtimeinfo.Detect()

	env := compat.Environment{
		APILevel:          detected.APILevel,
		Arch:              detected.Arch,
		InstallerVersion:  Cfg.Installer.Version,
		InstallerFeatures: Cfg.Installer.FeatureSet(),
	}

	if Cfg.Device.APILevel > 0 {
		env.APILevel = Cfg.Device.APILevel
	}
	if Cfg.Device.Arch != "" {
		env.Arch = Cfg.Device.Arch
	}
	if apiLevelFlag > 0 {
		env.APILevel = apiLevelFlag
	}
	if archFlag != "" {
		env.Arch = runtimeinfo.NormalizeArch(archFlag)
	}

	return env
}

// checkOne checks a single archive and prints its report. It returns false
// when the archive cannot be flashed in-app as-is.
func checkOne(path string, env compat.Environment, log *logger.Logger) bool {
	result, err := archive.CheckFile(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, flasherr.Message(flasherr.InvalidArchive, err))
		return false
	}

	r := report.Build(path, result, env, Cfg.Installer.MinModuleVersion)
	if err := r.Encode(os.Stdout, Cfg.Output.Format); err != nil {
		log.WithError(err).Error("Could not encode report")
		return false
	}

	switch {
	case !result.IsValid():
		fmt.Fprintln(os.Stderr, flasherr.Message(flasherr.InvalidArchive))
		return false
	case !result.IsFlashableInApp():
		fmt.Fprintln(os.Stderr, flasherr.Message(flasherr.NotFlashableInApp))
		return false
	}

	if m := result.Manifest(); m != nil {
		if missing := compat.MissingInstallerFeatures(m, env); len(missing) > 0 {
			compat.ReportMissingFeatures(log, env.InstallerVersion, missing)
			fmt.Fprintln(os.Stderr, flasherr.Message(flasherr.InstallerNeedsUpdate))
			return false
		}
	}

	return true
}
