package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"

	"github.com/dyike/tickerview/internal/models"
)

var errInterrupted = errors.New("interrupted")

// validateTicker is the survey validator for the ticker prompt. Only blank
// input is refused; any other ticker is sent to the webhook upper-cased.
func validateTicker(val interface{}) error {
	str, ok := val.(string)
	if !ok {
		return fmt.Errorf("unexpected answer type %T", val)
	}
	if _, err := models.NewAnalysisRequest(str); err != nil {
		return err
	}
	return nil
}

// PromptForTicker prompts the user to enter a stock ticker symbol
func PromptForTicker() (string, error) {
	var ticker string
	prompt := &survey.Input{
		Message: "Enter the stock ticker symbol (e.g., RELIANCE.NS, TCS.NS, AAPL):",
		Help:    "The ticker is sent to the analysis workflow as-is, upper-cased",
	}

	if err := survey.AskOne(prompt, &ticker, survey.WithValidator(validateTicker)); err != nil {
		if errors.Is(err, terminal.InterruptErr) {
			return "", errInterrupted
		}
		return "", err
	}
	return models.NormalizeTicker(ticker), nil
}

// PromptContinue asks whether to analyze another ticker.
func PromptContinue() (bool, error) {
	again := true
	prompt := &survey.Confirm{
		Message: "Analyze another ticker?",
		Default: true,
	}
	if err := survey.AskOne(prompt, &again); err != nil {
		if errors.Is(err, terminal.InterruptErr) {
			return false, nil
		}
		return false, err
	}
	return again, nil
}

// parseFormat is used by the analyze command's --format flag.
func parseFormat(s string) (outputFormat, error) {
	switch f := outputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case formatText, formatHTML, formatMarkdown:
		return f, nil
	case "md":
		return formatMarkdown, nil
	default:
		return "", fmt.Errorf("unknown format %q (want text, html or markdown)", s)
	}
}
