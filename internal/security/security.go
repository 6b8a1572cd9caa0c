// internal/security/security.go

// Package security guards the server against schemas that point engines at
// places they should not reach.
package security

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/valpere/tatooine/internal/utils"
	"github.com/valpere/tatooine/pkg/types"
)

// ErrSchemaRejected is wrapped by every policy violation
var ErrSchemaRejected = errors.New("schema rejected by policy")

// URLPolicy restricts where client-supplied schemas may point and how they
// may launch the browser
type URLPolicy struct {
	AllowedSchemes []string `yaml:"allowed_schemes" json:"allowed_schemes"`
	BlockedDomains []string `yaml:"blocked_domains" json:"blocked_domains"`
	MaxURLLength   int      `yaml:"max_url_length" json:"max_url_length"`
	// AllowPrivate permits loopback, link-local and private network hosts.
	AllowPrivate bool `yaml:"allow_private" json:"allow_private"`
	// AllowLaunchOverrides lets schemas pick the browser binary, profile
	// directory, sandboxing and command line flags. Otherwise only the
	// server's launcher settings decide them.
	AllowLaunchOverrides bool `yaml:"allow_launch_overrides" json:"allow_launch_overrides"`
}

// DefaultURLPolicy returns the policy used by the server unless configured
func DefaultURLPolicy() URLPolicy {
	return URLPolicy{
		AllowedSchemes: []string{"https", "http"},
		BlockedDomains: []string{},
		MaxURLLength:   2048,
	}
}

// Violation describes why one schema was refused
type Violation struct {
	Index  int    `json:"index"`
	URL    string `json:"url"`
	Reason string `json:"reason"`
}

func (v Violation) Error() string {
	return fmt.Sprintf("schemas[%d]: %s: %s", v.Index, ErrSchemaRejected, v.Reason)
}

func (v Violation) Unwrap() error {
	return ErrSchemaRejected
}

// CheckURL reports why rawURL is not allowed, or nil
func (p URLPolicy) CheckURL(rawURL string) error {
	if p.MaxURLLength > 0 && len(rawURL) > p.MaxURLLength {
		return fmt.Errorf("URL length %d exceeds maximum allowed %d", len(rawURL), p.MaxURLLength)
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL format: %v", err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if !p.isSchemeAllowed(scheme) {
		return fmt.Errorf("scheme %q not in allowed list %s", parsed.Scheme, strings.Join(p.AllowedSchemes, ", "))
	}

	host, err := utils.ExtractDomain(rawURL)
	if err != nil {
		return err
	}
	host = strings.ToLower(host)
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.Trim(host, "[]")

	if p.isDomainBlocked(host) {
		return fmt.Errorf("domain %q is blocked", host)
	}
	if !p.AllowPrivate && isPrivateHost(host) {
		return fmt.Errorf("host %q is on a private network", host)
	}
	return nil
}

// CheckSchemas applies the policy to every built-in schema of a batch.
// Custom engines interpret their options themselves and are not checked.
func (p URLPolicy) CheckSchemas(schemas []*types.Schema) []Violation {
	var violations []Violation
	for i, schema := range schemas {
		if schema == nil || !types.IsBuiltinEngine(schema.Engine) {
			continue
		}
		u := schema.Options.Request.URL
		if err := p.CheckURL(u); err != nil {
			violations = append(violations, Violation{Index: i, URL: u, Reason: err.Error()})
		}
		if err := p.CheckLaunch(schema.Options.Request.Launch); err != nil {
			violations = append(violations, Violation{Index: i, URL: u, Reason: err.Error()})
		}
	}
	return violations
}

// CheckLaunch reports launch options that only the server may set
func (p URLPolicy) CheckLaunch(opts types.LaunchOptions) error {
	if p.AllowLaunchOverrides {
		return nil
	}

	var fields []string
	if opts.ExecPath != "" {
		fields = append(fields, "exec_path")
	}
	if opts.UserDataDir != "" {
		fields = append(fields, "user_data_dir")
	}
	if opts.NoSandbox {
		fields = append(fields, "no_sandbox")
	}
	if len(opts.Flags) > 0 {
		fields = append(fields, "flags")
	}
	if len(fields) > 0 {
		return fmt.Errorf("launch options %s cannot be set by clients", strings.Join(fields, ", "))
	}
	return nil
}

func (p URLPolicy) isSchemeAllowed(scheme string) bool {
	if len(p.AllowedSchemes) == 0 {
		return true
	}
	for _, allowed := range p.AllowedSchemes {
		if scheme == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}

func (p URLPolicy) isDomainBlocked(host string) bool {
	for _, blocked := range p.BlockedDomains {
		blocked = strings.ToLower(blocked)
		if host == blocked || strings.HasSuffix(host, "."+blocked) {
			return true
		}
	}
	return false
}

// isPrivateHost only looks at the host literally, names are not resolved
func isPrivateHost(host string) bool {
	if host == "localhost" || strings.HasSuffix(host, ".localhost") || strings.HasSuffix(host, ".local") {
		return true
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() || ip.IsUnspecified()
}
