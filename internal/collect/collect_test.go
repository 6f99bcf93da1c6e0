package collect

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomorrowflow/nextcloud-compose/internal/envfile"
)

// scriptedPrompter answers Ask and Secret from one queue and Confirm from
// another. An exhausted queue behaves like closed stdin.
type scriptedPrompter struct {
	answers  []string
	confirms []bool
	labels   []string
}

func (p *scriptedPrompter) Ask(label, def string) (string, error) {
	p.labels = append(p.labels, label)
	if len(p.answers) == 0 {
		return "", io.EOF
	}
	a := p.answers[0]
	p.answers = p.answers[1:]
	if a == "" {
		return def, nil
	}
	return a, nil
}

func (p *scriptedPrompter) Secret(label string) (string, error) {
	p.labels = append(p.labels, label)
	if len(p.answers) == 0 {
		return "", io.EOF
	}
	a := p.answers[0]
	p.answers = p.answers[1:]
	return a, nil
}

func (p *scriptedPrompter) Confirm(label string, def bool) (bool, error) {
	p.labels = append(p.labels, label)
	if len(p.confirms) == 0 {
		return false, io.EOF
	}
	c := p.confirms[0]
	p.confirms = p.confirms[1:]
	return c, nil
}

func newTestCollector(t *testing.T, p Prompter, path string) (*Collector, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	return &Collector{
		Prompter: p,
		Path:     path,
		Fields:   DefaultFields(),
		Log:      slog.New(slog.NewTextHandler(&logs, nil)),
	}, &logs
}

// validAnswers answers every prompted field of DefaultFields in order:
// domain, email, time zone, region, admin user, admin password twice,
// dashboard user, dashboard password twice, notification URL.
func validAnswers() []string {
	return []string{
		"cloud.example.com",
		"ops@example.com",
		"",
		"de",
		"",
		"adminpw", "adminpw",
		"traefik",
		"dashpw", "dashpw",
		"",
	}
}

func TestCollect_NewRecord(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".env")
	p := &scriptedPrompter{answers: validAnswers()}
	c, _ := newTestCollector(t, p, path)

	rec, err := c.Collect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "cloud.example.com", rec.Get(envfile.Domain))
	assert.Equal(t, "ops@example.com", rec.Get(envfile.ACMEEmail))
	assert.Equal(t, "Europe/Berlin", rec.Get(envfile.TimeZone))
	assert.Equal(t, "DE", rec.Get(envfile.PhoneRegion))
	assert.Equal(t, "admin", rec.Get(envfile.AdminUser))
	assert.Equal(t, "adminpw", rec.Get(envfile.AdminPassword))
	assert.Equal(t, "traefik", rec.Get(envfile.DashboardUser))
	assert.Equal(t, "nextcloud", rec.Get(envfile.DBName))
	assert.Len(t, rec.Get(envfile.DBPassword), 32)
	assert.Len(t, rec.Get(envfile.SignalingSecret), 48)
	assert.NotEqual(t, rec.Get(envfile.DBPassword), rec.Get(envfile.DBRootPassword))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, envfile.Mode, info.Mode().Perm())

	onDisk, err := envfile.Read(path)
	require.NoError(t, err)
	assert.Equal(t, rec.Map(), onDisk.Map())
}

func TestCollect_SecretMismatchReprompts(t *testing.T) {
	t.Parallel()

	answers := []string{
		"cloud.example.com", "ops@example.com", "", "", "",
		"one", "two", // mismatch
		"", // empty
		"same", "same",
		"", "dashpw", "dashpw", "",
	}
	path := filepath.Join(t.TempDir(), ".env")
	p := &scriptedPrompter{answers: answers}
	c, logs := newTestCollector(t, p, path)

	rec, err := c.Collect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "same", rec.Get(envfile.AdminPassword))
	assert.Contains(t, logs.String(), "entries do not match")
	assert.Contains(t, logs.String(), "value must not be empty")
}

func TestCollect_SecretMustSurviveReadBack(t *testing.T) {
	t.Parallel()

	answers := []string{
		"cloud.example.com", "ops@example.com", "", "", "",
		`"quoted pass"`,
		"pass word ",
		"pass #word",
		"pa$$word",
		"pass word", "pass word",
		"", "dashpw", "dashpw", "",
	}
	path := filepath.Join(t.TempDir(), ".env")
	p := &scriptedPrompter{answers: answers}
	c, logs := newTestCollector(t, p, path)

	rec, err := c.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "pass word", rec.Get(envfile.AdminPassword))
	assert.Contains(t, logs.String(), "quote")
	assert.Contains(t, logs.String(), "whitespace")

	onDisk, err := envfile.Read(path)
	require.NoError(t, err)
	assert.Equal(t, "pass word", onDisk.Get(envfile.AdminPassword))
}

func TestCollect_NothingPersistedUntilSecretsMatch(t *testing.T) {
	t.Parallel()

	answers := []string{
		"cloud.example.com", "ops@example.com", "", "", "",
		"one", "two",
		"three", "four",
	}
	path := filepath.Join(t.TempDir(), ".env")
	p := &scriptedPrompter{answers: answers}
	c, _ := newTestCollector(t, p, path)

	_, err := c.Collect(context.Background())
	require.ErrorIs(t, err, io.EOF)
	assert.False(t, envfile.Exists(path))
}

func TestCollect_InvalidInputReprompts(t *testing.T) {
	t.Parallel()

	answers := append([]string{"not a domain", "-bad.example.com", "cloud.example.com", "nope", "ops@example.com", "", "DEU"}, validAnswers()[3:]...)
	path := filepath.Join(t.TempDir(), ".env")
	p := &scriptedPrompter{answers: answers}
	c, logs := newTestCollector(t, p, path)

	rec, err := c.Collect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "cloud.example.com", rec.Get(envfile.Domain))
	assert.Equal(t, "DE", rec.Get(envfile.PhoneRegion))
	assert.Equal(t, 2, strings.Count(logs.String(), "invalid domain name"))
	assert.Equal(t, 1, strings.Count(logs.String(), "invalid email address"))
	assert.Equal(t, 1, strings.Count(logs.String(), "two letter country code"))
}

func TestCollect_KeepLeavesFileUnchanged(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".env")
	original := "# hand edited\nDOMAIN=\"cloud.example.com\"\nMYSQL_PASSWORD=abc\n\nEXTRA=1"
	require.NoError(t, os.WriteFile(path, []byte(original), 0o640))
	before, err := os.Stat(path)
	require.NoError(t, err)

	p := &scriptedPrompter{confirms: []bool{true}}
	c, _ := newTestCollector(t, p, path)

	rec, err := c.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "cloud.example.com", rec.Get(envfile.Domain))
	assert.Equal(t, "1", rec.Get("EXTRA"))

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, original, string(after))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, before.Mode(), info.Mode())
	assert.Equal(t, before.ModTime(), info.ModTime())
}

func TestCollect_DeclineKeepsGeneratedSecretsAndOffersDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("DOMAIN=old.example.com\nMYSQL_PASSWORD=keepme\n"), 0o600))

	answers := validAnswers()
	answers[0] = "" // accept the previous domain as default
	p := &scriptedPrompter{answers: answers, confirms: []bool{false}}
	c, _ := newTestCollector(t, p, path)

	rec, err := c.Collect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "old.example.com", rec.Get(envfile.Domain))
	assert.Equal(t, "keepme", rec.Get(envfile.DBPassword))
	assert.Len(t, rec.Get(envfile.RedisPassword), 32)
}

func TestCollect_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	path := filepath.Join(t.TempDir(), ".env")
	c, _ := newTestCollector(t, &scriptedPrompter{answers: validAnswers()}, path)

	_, err := c.Collect(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, envfile.Exists(path))
}
