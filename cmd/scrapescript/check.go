package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	compilererrors "github.com/scrapescript-lang/scrapescript/compiler/errors"
	"github.com/scrapescript-lang/scrapescript/compiler/lexer"
	"github.com/scrapescript-lang/scrapescript/compiler/parser"
	"github.com/scrapescript-lang/scrapescript/internal/cli/ui"
)

var checkJSON bool

func init() {
	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "Emit machine-readable JSON errors")
}

var checkCmd = &cobra.Command{
	Use:   "check <script>",
	Short: "Validate a script without running it",
	Long:  "Tokenize and parse a ScrapeScript file, reporting syntax errors with positions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scriptPath := args[0]

		source, err := os.ReadFile(scriptPath)
		if err != nil {
			return fmt.Errorf("failed to read script: %w", err)
		}

		errorList := compileErrors(string(source), scriptPath)
		if !errorList.HasErrors() {
			ui.WriteSuccess(os.Stdout, fmt.Sprintf("%s is valid", scriptPath), false)
			return nil
		}

		if checkJSON {
			out, err := errorList.ToJSON()
			if err != nil {
				return err
			}
			fmt.Println(string(out))
		} else {
			for _, compileErr := range errorList {
				fmt.Fprint(os.Stderr, ui.SyntaxError(compileErr, string(source), false))
			}
		}

		os.Exit(1)
		return nil
	},
}

// compileErrors runs the front end and collects every error it reports.
// The lexer accumulates errors; the parser stops at its first.
func compileErrors(source, file string) compilererrors.ErrorList {
	var errorList compilererrors.ErrorList

	tokens, lexErrors := lexer.New(source).ScanTokens()
	for _, lexErr := range lexErrors {
		errorList = append(errorList, compilererrors.FromLexError(lexErr, file))
	}
	if len(errorList) > 0 {
		return errorList
	}

	if _, err := parser.New(tokens).Parse(); err != nil {
		if parseErr, ok := err.(parser.ParseError); ok {
			errorList = append(errorList, compilererrors.FromParseError(parseErr, file))
		}
	}

	return errorList
}
