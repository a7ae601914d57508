// Package cli parses command-line arguments into an app.Config.
package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/firmware-grid/fwplan/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated Config, a
// boolean indicating the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	flagSet := flag.NewFlagSet("fwplan", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
fwplan - resolves a firmware test specification tree into deduplicated
build units and the test cases bound to them.

Usage:
  fwplan [options] [TREE_ROOT]

Arguments:
  TREE_ROOT
    Root directory of the firmware module's testing tree.

Options:
`)
		flagSet.PrintDefaults()
	}

	treeFlag := flagSet.String("tree", "", "Root directory of the testing tree.")
	dFlag := flagSet.String("d", "", "Root directory of the testing tree (shorthand).")
	cmakeFlag := flagSet.String("cmake-out", "", "Write the plan as CMake test definitions to this file.")
	cFlag := flagSet.String("c", "", "Write the plan as CMake test definitions to this file (shorthand).")
	jsonFlag := flagSet.String("json-out", "", "Write the plan as JSON to this file.")
	moduleURLFlag := flagSet.String("module-url", "", "Source URL of the tested firmware module.")
	moduleBranchFlag := flagSet.String("module-branch", "", "Branch or commit of the tested firmware module.")
	autoAddFlag := flagSet.Bool("auto-add-module", false, "Fold the tested module itself into every build's module set.")
	runFlag := flagSet.Bool("run", false, "Dispatch the plan to the build/test backends after emitting it.")
	buildCmdFlag := flagSet.String("build-command", "", "Backend command template for building one unit (used with --run).")
	testCmdFlag := flagSet.String("test-command", "", "Backend command template for running one test (used with --run).")
	artifactDirFlag := flagSet.String("artifact-dir", "", "Directory for build artifacts (used with --run).")
	workersFlag := flagSet.Int("workers", 4, "Number of concurrent workers for the dispatcher.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	treeRoot := ""
	switch {
	case *treeFlag != "":
		treeRoot = *treeFlag
	case *dFlag != "":
		treeRoot = *dFlag
	case flagSet.NArg() > 0:
		treeRoot = flagSet.Arg(0)
	}

	if treeRoot == "" {
		flagSet.Usage()
		return nil, true, nil
	}

	cmakeOut := *cmakeFlag
	if cmakeOut == "" {
		cmakeOut = *cFlag
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	if *runFlag && (*buildCmdFlag == "" || *testCmdFlag == "") {
		return nil, false, &ExitError{Code: 2, Message: "--run requires --build-command and --test-command"}
	}

	config, err := app.NewConfig(app.Config{
		TreeRoot:      treeRoot,
		CMakeOut:      cmakeOut,
		JSONOut:       *jsonFlag,
		ModuleURL:     *moduleURLFlag,
		ModuleBranch:  *moduleBranchFlag,
		AutoAddModule: *autoAddFlag,
		Run:           *runFlag,
		BuildCommand:  *buildCmdFlag,
		TestCommand:   *testCmdFlag,
		ArtifactDir:   *artifactDirFlag,
		WorkerCount:   *workersFlag,
		LogFormat:     logFormat,
		LogLevel:      logLevel,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	return config, false, nil
}
