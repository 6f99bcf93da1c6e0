// Package collect gathers the environment record for a deployment, either
// by reusing an existing .env or by asking the operator field by field.
package collect

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/tomorrowflow/nextcloud-compose/internal/envfile"
	"github.com/tomorrowflow/nextcloud-compose/internal/telemetry"
)

// Prompter asks the operator one question at a time. Errors are returned
// only for I/O failures or an explicit abort, never for bad answers.
type Prompter interface {
	Ask(label, def string) (string, error)
	Secret(label string) (string, error)
	Confirm(label string, def bool) (bool, error)
}

type Kind int

const (
	Plain Kind = iota
	Domain
	Email
	Region
	Optional
	Secret
	Generated
	Fixed
)

// Field describes one key of the environment record.
type Field struct {
	Key     string
	Label   string
	Kind    Kind
	Default string
	// Length of a Generated value.
	Length int
}

// DefaultFields is the record layout the compose template expects.
func DefaultFields() []Field {
	return []Field{
		{Key: envfile.Domain, Label: "Nextcloud domain", Kind: Domain},
		{Key: envfile.ACMEEmail, Label: "Email for Let's Encrypt", Kind: Email},
		{Key: envfile.TimeZone, Label: "Time zone", Kind: Plain, Default: "Europe/Berlin"},
		{Key: envfile.PhoneRegion, Label: "Default phone region (ISO code, empty to skip)", Kind: Region},
		{Key: envfile.AdminUser, Label: "Nextcloud admin user", Kind: Plain, Default: "admin"},
		{Key: envfile.AdminPassword, Label: "Nextcloud admin password", Kind: Secret},
		{Key: envfile.DashboardUser, Label: "Traefik dashboard user", Kind: Plain, Default: "admin"},
		{Key: envfile.DashboardPassword, Label: "Traefik dashboard password", Kind: Secret},
		{Key: envfile.NotificationURL, Label: "Watchtower notification URL (empty to skip)", Kind: Optional},
		{Key: envfile.DBName, Kind: Fixed, Default: "nextcloud"},
		{Key: envfile.DBUser, Kind: Fixed, Default: "nextcloud"},
		{Key: envfile.DBPassword, Kind: Generated, Length: 32},
		{Key: envfile.DBRootPassword, Kind: Generated, Length: 32},
		{Key: envfile.RedisPassword, Kind: Generated, Length: 32},
		{Key: envfile.SignalingSecret, Kind: Generated, Length: 48},
		{Key: envfile.TurnSecret, Kind: Generated, Length: 48},
	}
}

// Collector is the first stage of a bootstrap run.
type Collector struct {
	Prompter Prompter
	Path     string
	Fields   []Field
	Log      *slog.Logger
	// Rand feeds generated secrets; nil means crypto/rand.
	Rand io.Reader
}

// Collect returns the environment record. An existing file the operator
// chooses to keep is returned as read and never rewritten.
func (c *Collector) Collect(ctx context.Context) (envfile.Record, error) {
	previous := envfile.New()

	if envfile.Exists(c.Path) {
		rec, err := envfile.Read(c.Path)
		if err != nil {
			return envfile.Record{}, fmt.Errorf("read %s: %w", c.Path, err)
		}
		keep, err := c.Prompter.Confirm(fmt.Sprintf("Found %s. Reuse it?", c.Path), true)
		if err != nil {
			return envfile.Record{}, err
		}
		if keep {
			c.Log.InfoContext(ctx, "reusing existing environment", "path", c.Path, "keys", rec.Len())
			return rec, nil
		}
		previous = rec
	}

	rec := envfile.New()
	for _, f := range c.Fields {
		if err := ctx.Err(); err != nil {
			return envfile.Record{}, err
		}
		v, err := c.value(ctx, f, previous)
		if err != nil {
			return envfile.Record{}, fmt.Errorf("%s: %w", f.Key, err)
		}
		rec.Set(f.Key, v)
	}

	if err := envfile.Write(c.Path, rec); err != nil {
		return envfile.Record{}, fmt.Errorf("write %s: %w", c.Path, err)
	}
	telemetry.Success(ctx, c.Log, "environment written", "path", c.Path, "keys", rec.Len())
	return rec, nil
}

func (c *Collector) value(ctx context.Context, f Field, previous envfile.Record) (string, error) {
	switch f.Kind {
	case Fixed:
		return f.Default, nil
	case Generated:
		if v := previous.Get(f.Key); v != "" {
			return v, nil
		}
		return GenerateSecret(c.Rand, f.Length)
	case Secret:
		return c.askSecret(ctx, f)
	}

	def := f.Default
	if v := previous.Get(f.Key); v != "" {
		def = v
	}
	for {
		v, err := c.Prompter.Ask(f.Label, def)
		if err != nil {
			return "", err
		}
		if f.Kind == Region {
			v = strings.ToUpper(v)
		}
		if problem := check(f.Kind, v); problem != "" {
			c.Log.WarnContext(ctx, problem, "field", f.Key, "value", v)
			continue
		}
		return v, nil
	}
}

func (c *Collector) askSecret(ctx context.Context, f Field) (string, error) {
	for {
		first, err := c.Prompter.Secret(f.Label)
		if err != nil {
			return "", err
		}
		if first == "" {
			c.Log.WarnContext(ctx, "value must not be empty", "field", f.Key)
			continue
		}
		if strings.Contains(first, "$") {
			c.Log.WarnContext(ctx, "value must not contain $", "field", f.Key)
			continue
		}
		if err := envfile.CheckValue(first); err != nil {
			c.Log.WarnContext(ctx, err.Error(), "field", f.Key)
			continue
		}
		second, err := c.Prompter.Secret(f.Label + " (repeat)")
		if err != nil {
			return "", err
		}
		if first != second {
			c.Log.WarnContext(ctx, "entries do not match", "field", f.Key)
			continue
		}
		return first, nil
	}
}

// check returns a description of what is wrong with v, or "".
func check(kind Kind, v string) string {
	switch kind {
	case Plain:
		if strings.TrimSpace(v) == "" {
			return "value must not be empty"
		}
	case Domain:
		if !ValidDomain(v) {
			return "invalid domain name"
		}
	case Email:
		if !ValidEmail(v) {
			return "invalid email address"
		}
	case Region:
		if v != "" && !ValidRegion(v) {
			return "region must be a two letter country code"
		}
	}
	if err := envfile.CheckValue(v); err != nil {
		return err.Error()
	}
	return ""
}
