package readiness

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/sony/gobreaker"
)

// status is the subset of Nextcloud's status.php body the probe reads.
type status struct {
	Installed   bool   `json:"installed"`
	Maintenance bool   `json:"maintenance"`
	Version     string `json:"versionstring"`
}

// HTTPStatus passes when status.php reports an installed instance outside
// maintenance mode.
type HTTPStatus struct {
	URL    string
	Client *http.Client
	CB     *gobreaker.CircuitBreaker
}

func (h *HTTPStatus) Name() string { return "status.php" }

func (h *HTTPStatus) Check(ctx context.Context) error {
	_, err := h.CB.Execute(func() (any, error) {
		return nil, h.get(ctx)
	})
	return err
}

func (h *HTTPStatus) get(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.URL, nil)
	if err != nil {
		return err
	}
	c := h.Client
	if c == nil {
		c = http.DefaultClient
	}
	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status.php returned %d", resp.StatusCode)
	}
	var st status
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64*1024)).Decode(&st); err != nil {
		return fmt.Errorf("decode status.php: %w", err)
	}
	if !st.Installed {
		return fmt.Errorf("nextcloud is not installed yet")
	}
	if st.Maintenance {
		return fmt.Errorf("nextcloud is in maintenance mode")
	}
	return nil
}
