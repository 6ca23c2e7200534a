// Copyright 2019 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads the program's settings from the environment,
// an optional .env file and an optional config file.
package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/matta/mailpdf/internal/policy"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Token store kinds.
const (
	TokenStoreFile    = "file"
	TokenStoreKeyring = "keyring"
)

// Config holds the settings read once at startup.
type Config struct {
	// The bot's own address; replies are sent from it.
	BotAddress string

	// The address named in replies for questions and problems.
	MaintainerAddress string

	// Additional allowed senders, individually parsed.
	ExtraSenders []string

	// Path of the OAuth client secrets downloaded from the Google
	// Cloud console.
	CredentialsFile string

	// Where the OAuth token is kept: TokenStoreFile or
	// TokenStoreKeyring.
	TokenStore string

	// Path of the token file when TokenStore is TokenStoreFile.
	TokenFile string

	// Path of the reply journal database.  Empty disables it.
	Journal string

	// The Gmail search query selecting candidate messages.  Empty
	// means the whole mailbox.
	Query string

	LogLevel string
}

// env maps each setting to its environment variable.
var env = map[string]string{
	"bot_address":        "EMAIL_ADDR_PDF_BOT",
	"maintainer_address": "EMAIL_ADDR_PDF_MAINTAINER",
	"allowlist":          "EMAIL_ADDRS_PDF_WHITELIST",
	"credentials_file":   "MAILPDF_CREDENTIALS_FILE",
	"token_store":        "MAILPDF_TOKEN_STORE",
	"token_file":         "MAILPDF_TOKEN_FILE",
	"journal":            "MAILPDF_JOURNAL",
	"query":              "MAILPDF_QUERY",
	"log_level":          "LOG_LEVEL",
}

// Load reads the configuration.  Variables from a .env file in the
// working directory are added to the environment first, if the file
// exists.  If path is not empty the named config file is read too;
// environment variables take precedence over it.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(errors.Cause(err)) {
		return nil, errors.Wrap(err, "unable to read .env")
	}

	v := viper.New()
	v.SetDefault("credentials_file", "credentials.json")
	v.SetDefault("token_store", TokenStoreFile)
	v.SetDefault("token_file", "token.json")
	v.SetDefault("log_level", "info")
	for key, name := range env {
		if err := v.BindEnv(key, name); err != nil {
			return nil, errors.Wrapf(err, "unable to bind %s", name)
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "unable to read config file %q", path)
		}
	}

	cfg := &Config{
		BotAddress:        strings.TrimSpace(v.GetString("bot_address")),
		MaintainerAddress: strings.TrimSpace(v.GetString("maintainer_address")),
		ExtraSenders:      policy.SplitAddresses(v.GetString("allowlist")),
		CredentialsFile:   v.GetString("credentials_file"),
		TokenStore:        strings.ToLower(v.GetString("token_store")),
		TokenFile:         v.GetString("token_file"),
		Journal:           v.GetString("journal"),
		Query:             v.GetString("query"),
		LogLevel:          v.GetString("log_level"),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.BotAddress == "" {
		return errors.Errorf("bot address is not set; set %s", env["bot_address"])
	}
	if c.MaintainerAddress == "" {
		return errors.Errorf("maintainer address is not set; set %s", env["maintainer_address"])
	}
	switch c.TokenStore {
	case TokenStoreFile, TokenStoreKeyring:
	default:
		return errors.Errorf("unknown token store %q", c.TokenStore)
	}
	return nil
}

// AllowList returns the senders the bot answers: itself, the
// maintainer and every extra sender.
func (c *Config) AllowList() policy.AllowList {
	addrs := append([]string{c.BotAddress, c.MaintainerAddress}, c.ExtraSenders...)
	return policy.NewAllowList(addrs...)
}
