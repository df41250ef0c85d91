package common

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/dtnitsch/complexportal/models"
	"github.com/dtnitsch/complexportal/pkg/artifact_manager"
	dbpkg "github.com/dtnitsch/complexportal/pkg/db"
	"github.com/dtnitsch/complexportal/pkg/pipeline"
	"github.com/urfave/cli/v2"
)

// Exit codes shared by every command.
const (
	ExitNoCache = 1
	ExitUsage   = 2
	ExitFailure = 2
)

// ExitError maps a command failure onto the process exit code. Errors
// that already carry a code pass through.
func ExitError(err error) error {
	if err == nil {
		return nil
	}
	var coder cli.ExitCoder
	if errors.As(err, &coder) {
		return err
	}
	if errors.Is(err, pipeline.ErrNoCache) {
		return cli.Exit(err.Error(), ExitNoCache)
	}
	return cli.Exit(err.Error(), ExitFailure)
}

// NewLogger returns the JSON stderr logger; --quiet keeps errors only.
func NewLogger(c *cli.Context) *slog.Logger {
	logLevel := slog.LevelInfo
	if c.Bool("quiet") {
		logLevel = slog.LevelError
	}
	if c.Bool("verbose") {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(c.App.ErrWriter, &slog.HandlerOptions{Level: logLevel}))
}

// LoadConfig reads --config (optional unless set explicitly) and applies
// flag overrides on top.
func LoadConfig(c *cli.Context) (*models.Config, error) {
	path := c.String("config")
	config, err := models.LoadConfig(path, !c.IsSet("config"))
	if err != nil {
		return nil, err
	}

	if c.IsSet("url") {
		config.URL = SanitizeURL(c.String("url"))
	}
	if c.IsSet("cache") {
		config.CachePath = c.String("cache")
	}
	if c.IsSet("timeout") {
		config.Timeout = c.Duration("timeout")
	}
	if c.IsSet("digest") {
		config.DigestAlgorithm = c.String("digest")
	}
	if c.IsSet("chunk-size") {
		config.ChunkSize = c.Int("chunk-size")
	}
	if c.IsSet("db") {
		config.DBPath = c.String("db")
	}

	if err := ValidateURL(config.URL); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// OutputArg returns the single optional positional output path. No
// argument and "-" both mean stdout and come back as "".
func OutputArg(c *cli.Context) (string, error) {
	switch c.NArg() {
	case 0:
		return "", nil
	case 1:
		output := c.Args().First()
		if artifact_manager.IsStdout(output) {
			return "", nil
		}
		return output, nil
	default:
		return "", cli.Exit(fmt.Sprintf("requires 0 or 1 arguments: [OUTPUT], got %d", c.NArg()), ExitUsage)
	}
}

// NewPipeline builds the pipeline for the command. With --record, fetch
// outcomes are stored in the database; the returned func closes it.
func NewPipeline(c *cli.Context, config *models.Config, logger *slog.Logger) (*pipeline.Pipeline, func(), error) {
	p, err := pipeline.New(config, c.App.Writer, c.App.ErrWriter, logger)
	if err != nil {
		return nil, nil, err
	}
	p.Offline = c.Bool("offline")

	cleanup := func() {}
	if c.Bool("record") {
		database, err := dbpkg.Open(config.DBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open database: %w", err)
		}
		p.Recorder = database
		cleanup = func() { _ = database.Close() }
	}
	return p, cleanup, nil
}

// SanitizeURL performs basic cleanup on URLs to handle common copy-paste issues.
// Removes whitespace, trailing punctuation and markdown link syntax.
func SanitizeURL(rawURL string) string {
	cleaned := strings.TrimSpace(rawURL)

	// Extract URL from markdown link format: [text](url) -> url
	markdownLinkPattern := regexp.MustCompile(`^\[.*?\]\(((?:https?|ftp)://[^\)]+)\)$`)
	if matches := markdownLinkPattern.FindStringSubmatch(cleaned); len(matches) > 1 {
		cleaned = matches[1]
	}

	trailingChars := []string{",", ")", "}", "]", "\"", "'", ">", ";"}
	for _, char := range trailingChars {
		cleaned = strings.TrimSuffix(cleaned, char)
	}

	leadingChars := []string{"(", "[", "<", "\"", "'"}
	for _, char := range leadingChars {
		cleaned = strings.TrimPrefix(cleaned, char)
	}

	return strings.TrimSpace(cleaned)
}

// ValidateURL accepts absolute http, https and ftp URLs with a host.
func ValidateURL(rawURL string) error {
	if strings.Contains(rawURL, " ") {
		return fmt.Errorf("invalid URL %q: spaces must be encoded as %%20", rawURL)
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}
	switch parsed.Scheme {
	case "http", "https", "ftp":
	default:
		return fmt.Errorf("invalid URL %q: scheme must be http, https or ftp", rawURL)
	}
	if parsed.Host == "" {
		return fmt.Errorf("invalid URL %q: missing host", rawURL)
	}
	if strings.ContainsAny(parsed.Host, "{}[]<>\"'") {
		return fmt.Errorf("invalid URL %q: malformed host", rawURL)
	}
	return nil
}
