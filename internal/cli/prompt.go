package cli

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
)

func promptString(label, defaultValue string) (string, error) {
	prompt := promptui.Prompt{
		Label:    label,
		Default:  defaultValue,
		Validate: validateNonEmpty,
	}

	result, err := prompt.Run()
	if err != nil {
		if err == promptui.ErrInterrupt {
			os.Exit(0)
		}
		return "", err
	}

	return strings.TrimSpace(result), nil
}

func promptValue(label string) (float64, error) {
	prompt := promptui.Prompt{
		Label:    label,
		Validate: validateValue,
	}

	result, err := prompt.Run()
	if err != nil {
		if err == promptui.ErrInterrupt {
			os.Exit(0)
		}
		return 0, err
	}

	return strconv.ParseFloat(strings.TrimSpace(result), 64)
}

func validateNonEmpty(input string) error {
	if strings.TrimSpace(input) == "" {
		return errors.New("value is required")
	}
	return nil
}

// validateValue only checks the input is a number. Sign and range are left to the service.
func validateValue(input string) error {
	if _, err := strconv.ParseFloat(strings.TrimSpace(input), 64); err != nil {
		return errors.New("conversion value must be a number")
	}
	return nil
}
