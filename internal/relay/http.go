package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"safetalk/internal/domain"
)

// HTTP is a client for the relay's admin API.
type HTTP struct {
	Base string
	HTTP *http.Client
}

// NewHTTP returns a client for the admin API at base, e.g.
// http://127.0.0.1:8081. A nil client means http.DefaultClient.
func NewHTTP(base string, client *http.Client) *HTTP {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTP{Base: strings.TrimRight(base, "/"), HTTP: client}
}

// FetchStatus returns the relay's current room snapshot.
func (c *HTTP) FetchStatus(ctx context.Context) (domain.RoomStatus, error) {
	var out domain.RoomStatus
	if err := c.getJSON(ctx, "/status", &out); err != nil {
		return domain.RoomStatus{}, err
	}
	return out, nil
}

func (c *HTTP) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Base+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("relay get %s: %s", path, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

var _ domain.RelayStatusClient = (*HTTP)(nil)
