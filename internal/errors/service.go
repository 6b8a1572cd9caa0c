// internal/errors/service.go
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Kind classifies failures for exit codes and user-facing messages
type Kind int

const (
	KindGeneral Kind = iota
	KindConfig
	KindNetwork
	KindParse
	KindOutput
	KindValidation
	KindRateLimit
	KindAuth
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindNetwork:
		return "network"
	case KindParse:
		return "parse"
	case KindOutput:
		return "output"
	case KindValidation:
		return "validation"
	case KindRateLimit:
		return "rate_limit"
	case KindAuth:
		return "auth"
	default:
		return "general"
	}
}

// Error attaches a kind and the failed operation to an error
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap classifies err, returning nil for a nil err
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of the outermost classified error in the chain.
// Unclassified errors, such as envelope messages, are classified by text.
func KindOf(err error) Kind {
	if err == nil {
		return KindGeneral
	}

	var classified *Error
	if stderrors.As(err, &classified) {
		return classified.Kind
	}

	return classifyMessage(err.Error())
}

func classifyMessage(msg string) Kind {
	msg = strings.ToLower(msg)

	switch {
	case strings.Contains(msg, "status code 429") || strings.Contains(msg, "rate limit"):
		return KindRateLimit
	case strings.Contains(msg, "status code 401") || strings.Contains(msg, "status code 403"):
		return KindAuth
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded") ||
		strings.Contains(msg, "no such host") || strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "status code") || strings.Contains(msg, "net::"):
		return KindNetwork
	case strings.Contains(msg, "selector") || strings.Contains(msg, "does not resolve to a list") ||
		strings.Contains(msg, "decode") || strings.Contains(msg, "no root"):
		return KindParse
	case strings.Contains(msg, "yaml") || strings.Contains(msg, "schema file"):
		return KindConfig
	case strings.Contains(msg, "validation"):
		return KindValidation
	default:
		return KindGeneral
	}
}

// Service turns errors into CLI messages and exit codes
type Service struct {
	showTechnical bool
}

// NewService creates a new error service
func NewService() *Service {
	return &Service{}
}

// WithVerbose returns a copy that also prints technical details
func (s *Service) WithVerbose(verbose bool) *Service {
	return &Service{showTechnical: verbose}
}

// GetUserFriendlyError converts technical errors to user-friendly messages
func (s *Service) GetUserFriendlyError(err error) (title, message string, suggestions []string) {
	if err == nil {
		return "", "", nil
	}

	switch KindOf(err) {
	case KindNetwork:
		return "Request Failed",
			"The source could not be fetched or rendered.",
			[]string{
				"Check if the URL is reachable from this machine",
				"Increase the request timeout in the schema",
				"The website might be slow or experiencing issues",
			}
	case KindParse:
		return "Extraction Failed",
			"The fetched content did not match the schema selectors.",
			[]string{
				"Check that the root selector or path is correct",
				"Verify the selectors against the current page",
				"Use the spa engine if the content is rendered by JavaScript",
			}
	case KindConfig:
		return "Schema File Error",
			"The schema file could not be read.",
			[]string{
				"Check YAML indentation (use spaces, not tabs)",
				"Ensure proper quoting of string values",
				"Generate a working example with 'tatooine template'",
			}
	case KindValidation:
		return "Invalid Schema",
			"The schema file contains invalid schemas.",
			[]string{
				"Run 'tatooine validate' to list every problem",
			}
	case KindOutput:
		return "Output Error",
			"The results could not be written.",
			[]string{
				"Check that the output directory is writable",
				"Use --format json, yaml or csv",
			}
	case KindRateLimit:
		return "Rate Limit Exceeded",
			"The source rejected requests as too frequent.",
			[]string{
				"Run fewer schemas against the same host at once",
				"Try again later",
			}
	case KindAuth:
		return "Access Denied",
			"The source requires authentication.",
			[]string{
				"Add the required headers to the schema request",
			}
	default:
		return "Unexpected Error",
			"An unexpected error occurred during the operation.",
			[]string{
				"Try running the command again with --verbose",
			}
	}
}

// GetExitCode returns appropriate exit code for error
func (s *Service) GetExitCode(err error) int {
	if err == nil {
		return 0
	}

	switch KindOf(err) {
	case KindConfig:
		return 2
	case KindNetwork:
		return 3
	case KindParse:
		return 4
	case KindOutput:
		return 5
	case KindValidation:
		return 6
	case KindRateLimit:
		return 7
	case KindAuth:
		return 8
	default:
		return 1
	}
}

// FormatErrorForCLI formats error for command-line display
func (s *Service) FormatErrorForCLI(err error) string {
	title, message, suggestions := s.GetUserFriendlyError(err)

	var sb strings.Builder
	fmt.Fprintf(&sb, "✗ %s\n%s\n", title, message)

	if s.showTechnical {
		fmt.Fprintf(&sb, "\nTechnical details: %s\n", err.Error())
	}

	if len(suggestions) > 0 {
		sb.WriteString("\nSuggestions:\n")
		for _, suggestion := range suggestions {
			fmt.Fprintf(&sb, "  - %s\n", suggestion)
		}
	}

	return sb.String()
}

// Hint returns a one-line hint for a failed envelope message
func (s *Service) Hint(envelopeError string) string {
	if envelopeError == "" {
		return ""
	}
	_, _, suggestions := s.GetUserFriendlyError(stderrors.New(envelopeError))
	if len(suggestions) == 0 {
		return ""
	}
	return suggestions[0]
}
