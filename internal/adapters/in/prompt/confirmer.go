// Package prompt collects the operator's confirmation for destructive
// operations on an interactive terminal.
package prompt

import (
	"context"
	"errors"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"

	"github.com/bnema/lifeboat/internal/boundaries/out"
)

// SurveyConfirmer reads the confirmation token from stdin.
type SurveyConfirmer struct{}

var _ out.IntentConfirmer = SurveyConfirmer{}

// Token prompts and returns the operator's raw input. Ctrl-C comes back as
// an empty token, which downstream treats as a mismatch.
func (SurveyConfirmer) Token(_ context.Context, message string) (string, error) {
	var answer string
	err := survey.AskOne(&survey.Input{Message: message}, &answer)
	if errors.Is(err, terminal.InterruptErr) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return answer, nil
}
