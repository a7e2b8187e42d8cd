// Package cmd provides the root command and CLI setup for hdlvet.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"hdlvet.dev/pkg/hdlvet/internal/adapter"
	"hdlvet.dev/pkg/hdlvet/internal/controller"
	"hdlvet.dev/pkg/hdlvet/internal/domain"
	m "hdlvet.dev/pkg/hdlvet/internal/model"
)

var container *domain.Container

// builderFlag overrides the compiler named in the project file.
var builderFlag string

// rootFlag selects the project root directory.
var rootFlag string

// formatFlag selects text or yaml output.
var formatFlag string

// noCacheFlag disables the database snapshot when set.
var noCacheFlag bool

// verboseFlag raises the log level to debug.
var verboseFlag bool

// logFileFlag overrides the log file location.
var logFileFlag string

func init() {
	configureRootFlags(rootCmd)

	container = domain.NewContainer(openProject)
}

const rootLongDescription = `Hdlvet keeps an incremental dependency database over the VHDL and
Verilog sources of a project and uses it to compile files in the right
order, with the right library and flags, surfacing compiler and style
diagnostics per file.

The project file (` + adapter.ProjectConfigFilename + ` under the project root) names the
compiler, the source files and their libraries and flags.`

// rootCmd represents the base command when called without any subcommands.
var rootCmd = baseRootCmd()

func baseRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hdlvet",
		Short: "Incremental HDL dependency checker",
		Long:  rootLongDescription,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			configureLogger(logFileFlag, verboseFlag || viper.GetBool(logVerboseKey))
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().
		StringVarP(
			&rootFlag, rootFlagName, "r",
			viper.GetString(rootConfigKey),
			"project root directory",
		)
	bindFlagToConfig(cmd.PersistentFlags().Lookup(rootFlagName), rootConfigKey)

	cmd.PersistentFlags().
		StringVarP(
			&builderFlag, builderFlagName, "b",
			viper.GetString(builderConfigKey),
			"compiler to use (ghdl, msim, fallback); overrides the project file",
		)
	bindFlagToConfig(cmd.PersistentFlags().Lookup(builderFlagName), builderConfigKey)

	cmd.PersistentFlags().
		StringVarP(
			&formatFlag, formatFlagName, "f",
			viper.GetString(formatConfigKey),
			"output format (text or yaml)",
		)
	bindFlagToConfig(cmd.PersistentFlags().Lookup(formatFlagName), formatConfigKey)

	cmd.PersistentFlags().BoolVar(&noCacheFlag, noCacheFlagName, viper.GetBool(noCacheFlagName), "ignore and do not write the database snapshot")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(noCacheFlagName), noCacheFlagName)

	cmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "log at debug level")
	cmd.PersistentFlags().StringVar(&logFileFlag, "log-file", "", "log file location")
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// projectRoot resolves the active project root to an absolute path.
func projectRoot() string {
	root := viper.GetString(rootConfigKey)
	if root == "" {
		root = defaultRoot
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return root
	}

	return abs
}

// workDir is where the compiler working libraries and the database
// snapshot live, under the project root.
func workDir(root string) string {
	return filepath.Join(root, ".hdlvet")
}

// openProject wires one project: project file, compiler adapter,
// database (restored from its snapshot when present) and orchestrator.
func openProject(root string) *domain.Project {
	config, err := adapter.LoadProjectConfig(root)
	if err != nil {
		slog.Warn("Ignoring unreadable project config", "root", root, "error", err)

		config = &adapter.ProjectConfig{}
	}

	builderName := viper.GetString(builderConfigKey)
	if builderName == "" {
		builderName = config.Builder
	}

	builder := adapter.NewCompiler(builderName, workDir(root))
	db := domain.NewDatabase()

	if !viper.GetBool(noCacheFlagName) {
		store := adapter.NewSnapshotStore(workDir(root))

		var state domain.SnapshotState

		ok, err := store.Load(builder.Name(), &state)
		if err != nil {
			slog.Warn("Ignoring unreadable snapshot", "root", root, "error", err)
		} else if ok {
			db.RestoreSnapshot(state)
		}
	}

	db.SetScopeFlags(m.ScopeGlobal, config.Flags.Global)
	db.SetScopeFlags(m.ScopeSingle, config.Flags.Single)
	db.SetScopeFlags(m.ScopeDependencies, config.Flags.Dependencies)

	for _, src := range config.Sources {
		var library *m.Identifier

		if src.Library != "" {
			id := m.VHDLIdentifier(src.Library)
			library = &id
		}

		path := m.NewPath(src.Path, root)
		if err := db.AddSource(path, library, src.Flags); err != nil {
			slog.Warn("Skipping source", "path", src.Path, "error", err)
		}
	}

	return domain.NewProject(root, db, builder)
}

// saveSnapshot persists the project's database state for the next run.
func saveSnapshot(project *domain.Project) {
	if viper.GetBool(noCacheFlagName) {
		return
	}

	store := adapter.NewSnapshotStore(workDir(project.Root))
	if err := store.Save(project.Orc.Builder().Name(), project.DB.Snapshot()); err != nil {
		slog.Warn("Failed to persist snapshot", "root", project.Root, "error", err)
	}
}

func outputFormat() controller.OutputFormat {
	if viper.GetString(formatConfigKey) == string(controller.FormatYAML) {
		return controller.FormatYAML
	}

	return controller.FormatText
}

func parsePaths(root string, args []string) []m.Path {
	paths := make([]m.Path, 0, len(args))
	for _, arg := range args {
		paths = append(paths, m.NewPath(arg, root))
	}

	return paths
}
