package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to path.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to guidebook! Let's point it at your book.")
	fmt.Println()

	cfg := DefaultConfig()

	if dir := DetectBookDir("."); dir != "" {
		fmt.Printf("Detected a built book in %s\n\n", dir)
		cfg.Book = dir
	}

	// 1. Book location.
	bookPrompt := promptui.Prompt{
		Label:   "Book directory or URL",
		Default: cfg.Book,
		Validate: func(s string) error {
			if strings.TrimSpace(s) == "" {
				return fmt.Errorf("book is required")
			}
			return nil
		},
	}
	book, err := bookPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("book location: %w", err)
	}
	cfg.Book = strings.TrimSpace(book)

	// 2. Where reader preferences live.
	storePrompt := promptui.Select{
		Label: "Where should sidebar and reading preferences be kept",
		Items: []string{
			"sqlite file (" + cfg.StorePath + ")",
			"memory only (forgotten on exit)",
		},
	}
	storeIdx, _, err := storePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("store selection: %w", err)
	}
	if storeIdx == 1 {
		cfg.StorePath = ""
	}

	// 3. Server port.
	portPrompt := promptui.Prompt{
		Label:   "Port for guidebook serve",
		Default: strconv.Itoa(cfg.Server.Port),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n < 0 || n > 65535 {
				return fmt.Errorf("not a port number")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("server port: %w", err)
	}
	cfg.Server.Port, _ = strconv.Atoi(portStr)

	// 4. Extra passthrough patterns.
	passPrompt := promptui.Prompt{
		Label:   "Extra full-load link patterns (comma-separated globs, blank for defaults)",
		Default: "",
	}
	passStr, err := passPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("passthrough patterns: %w", err)
	}
	if extra := splitAndTrim(passStr); len(extra) > 0 {
		cfg.Navigation.Passthrough = append(append([]string{}, DefaultPassthrough...), extra...)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

// splitAndTrim splits a comma-separated string and trims whitespace.
func splitAndTrim(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if token := strings.TrimSpace(part); token != "" {
			result = append(result, token)
		}
	}
	return result
}
