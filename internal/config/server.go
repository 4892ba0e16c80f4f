package config

import (
	"fmt"
	"strings"

	"github.com/Veraticus/wallet-topups/internal/common"
)

// Server configures `topups serve`.
type Server struct {
	// Tokens maps bearer token to admin name.
	Tokens    map[string]string
	Addr      string
	CertDir   string
	MondayURL string
	TLS       bool
	Metrics   bool
}

// LoadServerConfig loads HTTP server settings. api.tokens maps admin names
// to bearer tokens; names are keys because viper lowercases map keys.
func LoadServerConfig(v Getter) (*Server, error) {
	cfg := &Server{
		Addr:      v.GetString("server.addr"),
		CertDir:   ExpandPath(v.GetString("server.cert_dir")),
		MondayURL: v.GetString("monday.api_url"),
		TLS:       v.GetBool("server.tls"),
		Metrics:   v.GetBool("server.metrics"),
		Tokens:    map[string]string{},
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.CertDir == "" {
		cfg.CertDir = ExpandPath("~/.config/topups/certs")
	}

	for admin, token := range v.GetStringMapString("api.tokens") {
		token = strings.TrimSpace(token)
		if token == "" {
			return nil, fmt.Errorf("%w: api token for %s is blank", common.ErrConfig, admin)
		}
		if _, dup := cfg.Tokens[token]; dup {
			return nil, fmt.Errorf("%w: admins share an api token", common.ErrConfig)
		}
		cfg.Tokens[token] = admin
	}
	if len(cfg.Tokens) == 0 {
		return nil, fmt.Errorf("%w: api.tokens must define at least one admin token", common.ErrMissingConfig)
	}
	return cfg, nil
}
