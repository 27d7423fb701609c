package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ComedicChimera/olive"
	"github.com/eaburns/pretty"

	"vela/common"
	"vela/logging"
	"vela/scen"
	"vela/sem"
)

// Execute runs the main `vela` application
func Execute() {
	// set up the argument parser and all its extended commands and arguments
	cli := olive.NewCLI("vela", "vela is a type-inference scenario solver", true)
	logLvlArg := cli.AddSelectorArg("loglevel", "ll", "the solver log level", false, []string{"silent", "error", "warning", "verbose"})
	logLvlArg.SetDefaultValue("verbose")

	solveCmd := cli.AddSubcommand("solve", "solve scenario files", true)
	solveCmd.AddPrimaryArg("scenario-path", "the path to a scenario file or directory", true)
	solveCmd.AddFlag("dump", "d", "dump the final solver state of each scenario")
	solveCmd.AddFlag("verbose", "v", "pretty-print the chosen solutions in full")

	cli.AddSubcommand("version", "print the Vela version", false)

	// run the argument parser
	result, err := olive.ParseArgs(cli, os.Args)
	if err != nil {
		logging.PrintErrorMessage("CLI Usage Error", err)
		return
	}

	// process the inputed command line
	subcmdName, subResult, _ := result.Subcommand()
	switch subcmdName {
	case "solve":
		execSolveCommand(subResult, result.Arguments["loglevel"].(string))
	case "version":
		logging.PrintInfoMessage("Vela Version", common.VelaVersion)
	}
}

// execSolveCommand executes the solve subcommand and handles all errors
func execSolveCommand(result *olive.ArgParseResult, loglevel string) {
	scenarioRelPath, _ := result.PrimaryArg()

	scenarioPath, err := filepath.Abs(scenarioRelPath)
	if err != nil {
		logging.PrintErrorMessage("Path Error", err)
		return
	}

	logging.Initialize(loglevel)
	logging.DisplayCheckHeader(scenarioPath)

	scenarios, err := loadScenarios(scenarioPath)
	if err != nil {
		logging.LogConfigError("Scenario Load", err.Error())
		logging.DisplayCheckFinished(false)
		return
	}

	for _, scenario := range scenarios {
		solveScenario(scenario, result.HasFlag("dump"), result.HasFlag("verbose"))
	}

	logging.DisplayCheckFinished(logging.ShouldProceed())
}

// loadScenarios loads one scenario file, or every scenario in a directory
func loadScenarios(path string) ([]*scen.Scenario, error) {
	finfo, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	if finfo.IsDir() {
		return scen.LoadDir(path)
	}

	scenario, err := scen.LoadScenario(path)
	if err != nil {
		return nil, err
	}

	return []*scen.Scenario{scenario}, nil
}

// solveScenario checks one scenario's expression and reports the outcome
func solveScenario(scenario *scen.Scenario, dump, verbose bool) {
	logging.BeginPhase("Solving")

	checker := sem.NewChecker(scenario.Uni, &logging.LogContext{FilePath: scenario.Path})
	solution, ok := checker.Check(scenario.Expr, scenario.Expected)

	if dump {
		checker.Solver().Dump(os.Stdout)
	}

	if !ok {
		// the checker already logged the failure, which closed the phase
		return
	}

	logging.EndPhase(true)
	logging.PrintInfoMessage(scenario.Name, scenario.Expr.Type().Repr())

	if verbose {
		fmt.Println()
		solution.Dump(os.Stdout)
		fmt.Println()
		pretty.Print(solution.Bindings())
		fmt.Println()
	}
}
