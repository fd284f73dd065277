// Command sitectl submits a revision to a sitecraft server and shows the
// project's conversation while the request is outstanding.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sitecraft/models"
	"sitecraft/syncloop"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

type client struct {
	http    *http.Client
	baseURL string
	apiKey  string
}

type apiError struct {
	Status  int
	Message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

func (c *client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		var failure struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(data, &failure)
		if failure.Error == "" {
			failure.Error = strings.TrimSpace(string(data))
		}
		return &apiError{Status: resp.StatusCode, Message: failure.Error}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func (c *client) project(ctx context.Context, projectID uuid.UUID) (*models.ProjectDetail, error) {
	var detail models.ProjectDetail
	if err := c.do(ctx, http.MethodGet, "/projects/"+projectID.String(), nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

func (c *client) revise(ctx context.Context, projectID uuid.UUID, message string) (string, error) {
	var result struct {
		Message string `json:"message"`
	}
	err := c.do(ctx, http.MethodPost, "/projects/"+projectID.String()+"/revisions",
		models.RevisionRequest{Message: message}, &result)
	return result.Message, err
}

// printer shows conversation turns that have not been shown yet.
type printer struct {
	seen map[uuid.UUID]bool
}

func (p *printer) show(detail *models.ProjectDetail) {
	for _, turn := range detail.Conversation {
		if p.seen[turn.ID] {
			continue
		}
		p.seen[turn.ID] = true
		fmt.Printf("[%s] %s: %s\n", turn.Timestamp.Format(time.Kitchen), turn.Role, turn.Content)
	}
}

func main() {
	_ = godotenv.Load()

	server := flag.String("server", envOr("SITECRAFT_URL", "http://localhost:8080"), "server base URL")
	apiKey := flag.String("key", os.Getenv("SITECRAFT_API_KEY"), "API key")
	project := flag.String("project", "", "project id")
	message := flag.String("message", "", "revision instruction")
	interval := flag.Duration("interval", syncloop.DefaultInterval, "poll interval while the revision runs")
	flag.Parse()

	if *apiKey == "" {
		log.Fatal("API key not set: use -key or SITECRAFT_API_KEY")
	}
	projectID, err := uuid.Parse(*project)
	if err != nil {
		log.Fatalf("invalid -project %q: %v", *project, err)
	}
	if strings.TrimSpace(*message) == "" {
		log.Fatal("-message is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	c := &client{
		http:    &http.Client{},
		baseURL: strings.TrimRight(*server, "/"),
		apiKey:  *apiKey,
	}
	out := &printer{seen: make(map[uuid.UUID]bool)}

	// Turns that already exist are not part of this revision.
	if detail, err := c.project(ctx, projectID); err == nil {
		for _, turn := range detail.Conversation {
			out.seen[turn.ID] = true
		}
	} else {
		log.Fatalf("Failed to load project: %v", err)
	}

	done := make(chan struct{})
	var reply string
	var reviseErr error
	go func() {
		defer close(done)
		reply, reviseErr = c.revise(ctx, projectID, *message)
	}()

	poller := &syncloop.Poller{
		Interval: *interval,
		Fetch: func(ctx context.Context) (*models.ProjectDetail, error) {
			return c.project(ctx, projectID)
		},
		OnUpdate: out.show,
		OnError: func(err error) {
			log.Printf("Poll error: %v", err)
		},
	}
	if err := poller.Run(ctx, done); err != nil {
		log.Fatalf("Stopped: %v", err)
	}
	<-done

	// One last fetch so the final turn is shown.
	if detail, err := c.project(ctx, projectID); err == nil {
		out.show(detail)
	}

	if reviseErr != nil {
		log.Fatalf("Revision failed: %v", reviseErr)
	}
	fmt.Println(reply)
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
