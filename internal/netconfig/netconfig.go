// Package netconfig loads the named network profiles used to parameterize
// contract deployment. It is independent of the to-do client.
package netconfig

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownNetwork = errors.New("unknown network")
	ErrUnsetVariable  = errors.New("environment variable not set")
)

// Network is one deployment target. URL and Accounts may reference
// environment variables as ${NAME}.
type Network struct {
	ChainID  int      `yaml:"chainId,omitempty"`
	URL      string   `yaml:"url,omitempty"`
	Accounts []string `yaml:"accounts,omitempty"`
}

// Config is the whole profile file.
type Config struct {
	Compiler string             `yaml:"compiler"`
	Networks map[string]Network `yaml:"networks"`
}

// Default mirrors the stock deployment setup: a local chain plus testnet
// and mainnet profiles fed from the environment.
func Default() Config {
	return Config{
		Compiler: "0.8.17",
		Networks: map[string]Network{
			"hardhat": {ChainID: 1337},
			"mumbai": {
				URL:      "${TESTNET_NODE_RPC_URL}/${INFURA_API_KEY}",
				Accounts: []string{"${WALLET_PRIVATE_KEY}"},
			},
			"mainnet": {
				URL:      "${MAINNET_NODE_RPC_URL}/${INFURA_API_KEY}",
				Accounts: []string{"${WALLET_PRIVATE_KEY}"},
			},
		},
	}
}

// Load reads a profile file. An empty path yields Default.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read networks: %w", err)
	}
	return Parse(b)
}

func Parse(b []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse networks: %w", err)
	}
	if len(cfg.Networks) == 0 {
		return Config{}, errors.New("parse networks: no networks defined")
	}
	return cfg, nil
}

// Names lists the profile names in sorted order.
func (c Config) Names() []string {
	names := make([]string, 0, len(c.Networks))
	for n := range c.Networks {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

var varRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Resolve returns the named profile with every ${VAR} expanded through
// lookup. All unset variables are reported together.
func (c Config) Resolve(name string, lookup func(string) (string, bool)) (Network, error) {
	n, ok := c.Networks[name]
	if !ok {
		return Network{}, fmt.Errorf("%w: %q (have %s)", ErrUnknownNetwork, name, strings.Join(c.Names(), ", "))
	}
	if lookup == nil {
		lookup = os.LookupEnv
	}

	var missing []string
	expand := func(s string) string {
		return varRef.ReplaceAllStringFunc(s, func(ref string) string {
			key := varRef.FindStringSubmatch(ref)[1]
			v, ok := lookup(key)
			if !ok || v == "" {
				missing = append(missing, key)
				return ""
			}
			return v
		})
	}

	out := Network{ChainID: n.ChainID, URL: expand(n.URL)}
	for _, a := range n.Accounts {
		out.Accounts = append(out.Accounts, expand(a))
	}
	if len(missing) > 0 {
		return Network{}, fmt.Errorf("network %s: %w: %s", name, ErrUnsetVariable, strings.Join(dedupe(missing), ", "))
	}
	return out, nil
}

// Mask hides all but the last four characters of a credential.
func Mask(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", len(s)-4) + s[len(s)-4:]
}

func dedupe(in []string) []string {
	seen := map[string]bool{}
	out := in[:0]
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
