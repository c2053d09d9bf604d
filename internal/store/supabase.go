package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/arbilina/lumi-agent-engine/internal/domain"
)

// Environment variables configuring the remote sink
const (
	EnvSupabaseURL   = "LUMI_SUPABASE_URL"
	EnvSupabaseKey   = "LUMI_SUPABASE_KEY"
	EnvSupabaseTable = "LUMI_SUPABASE_TABLE"
)

const defaultTable = "protocols"

// SupabaseSink appends protocols to a Supabase REST table. Writes are
// single-attempt with a bounded timeout; callers treat failure as
// non-fatal.
type SupabaseSink struct {
	baseURL string
	apiKey  string
	table   string
	client  *http.Client
}

// NewSupabase creates a sink for the given project URL and key
func NewSupabase(baseURL, apiKey, table string) *SupabaseSink {
	if table == "" {
		table = defaultTable
	}
	return &SupabaseSink{
		baseURL: baseURL,
		apiKey:  apiKey,
		table:   table,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// NewSupabaseFromEnv builds a sink from environment configuration
func NewSupabaseFromEnv() (*SupabaseSink, error) {
	url := os.Getenv(EnvSupabaseURL)
	if url == "" {
		return nil, fmt.Errorf("%s environment variable not set", EnvSupabaseURL)
	}
	key := os.Getenv(EnvSupabaseKey)
	if key == "" {
		return nil, fmt.Errorf("%s environment variable not set", EnvSupabaseKey)
	}
	return NewSupabase(url, key, os.Getenv(EnvSupabaseTable)), nil
}

type supabaseRow struct {
	UserID       string           `json:"user_id"`
	ProtocolData domain.Protocol  `json:"protocol_data"`
	RawInputs    domain.RawInputs `json:"raw_inputs"`
}

// SaveProtocol posts one row to the configured table. Implements the
// engine sink.
func (s *SupabaseSink) SaveProtocol(ctx context.Context, userID string, protocol domain.Protocol, raw domain.RawInputs) error {
	payload, err := json.Marshal(supabaseRow{
		UserID:       userID,
		ProtocolData: protocol,
		RawInputs:    raw,
	})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	url := fmt.Sprintf("%s/rest/v1/%s", s.baseURL, s.table)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		return fmt.Errorf("supabase error (status %d): %s", resp.StatusCode, string(body))
	}

	return nil
}
