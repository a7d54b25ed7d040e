// Package antigravity implements the HTTP source adapter for Antigravity
// (Gemini Code)'s local language-server process.
package antigravity

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"time"

	"recap/internal/persistence"
	"recap/internal/workitem"
)

// Connection holds the port and CSRF token extracted from the running
// language-server process's command line.
type Connection struct {
	Port      int
	CSRFToken string
}

// DetectConnection scans the OS process list for a running
// language_server_{macos,linux} process and extracts its port and CSRF
// token from its command-line flags (spec.md §4.6).
func DetectConnection(ctx context.Context) (*Connection, bool) {
	out, err := exec.CommandContext(ctx, "ps", "-axww", "-o", "command").Output()
	if err != nil {
		return nil, false
	}

	processName := "language_server_linux"
	if runtime.GOOS == "darwin" {
		processName = "language_server_macos"
	}

	for _, line := range strings.Split(string(out), "\n") {
		if !strings.Contains(line, processName) {
			continue
		}
		conn, ok := parseConnectionFromCommandLine(line)
		if ok {
			return conn, true
		}
	}
	return nil, false
}

func parseConnectionFromCommandLine(line string) (*Connection, bool) {
	fields := strings.Fields(line)
	var csrfToken string
	var serverPort, extensionServerPort int

	for _, f := range fields {
		switch {
		case strings.HasPrefix(f, "--csrf_token="):
			csrfToken = strings.TrimPrefix(f, "--csrf_token=")
		case strings.HasPrefix(f, "--server_port="):
			serverPort, _ = strconv.Atoi(strings.TrimPrefix(f, "--server_port="))
		case strings.HasPrefix(f, "--extension_server_port="):
			extensionServerPort, _ = strconv.Atoi(strings.TrimPrefix(f, "--extension_server_port="))
		}
	}

	if csrfToken == "" {
		return nil, false
	}
	port := serverPort
	if port == 0 && extensionServerPort != 0 {
		port = extensionServerPort + 1
	}
	if port == 0 {
		return nil, false
	}
	return &Connection{Port: port, CSRFToken: csrfToken}, true
}

// Adapter syncs work items from a locally running Antigravity language
// server over its HTTP RPC surface.
type Adapter struct {
	Store      *persistence.Store
	httpClient *http.Client
}

// SourceName identifies this adapter in sync_status and WorkItem.source.
func (a *Adapter) SourceName() string { return "antigravity" }

// IsAvailable reports whether a language-server process is currently
// running and presenting a usable connection.
func (a *Adapter) IsAvailable(ctx context.Context) bool {
	_, ok := DetectConnection(ctx)
	return ok
}

func (a *Adapter) client() *http.Client {
	if a.httpClient != nil {
		return a.httpClient
	}
	// Self-signed TLS on localhost, per spec.md §4.6.
	a.httpClient = &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, // localhost-only RPC surface
		},
	}
	return a.httpClient
}

const cascadeTrajectoryStepsBatchSize = 100

// trajectory is one project/session unit returned by
// GetAllCascadeTrajectories.
type trajectory struct {
	ID          string    `json:"id"`
	ProjectPath string    `json:"projectPath"`
	Title       string    `json:"title"`
	StartedAt   time.Time `json:"startedAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type trajectoriesResponse struct {
	Trajectories []trajectory `json:"trajectories"`
}

func (a *Adapter) rpcURL(conn *Connection, method string) string {
	return fmt.Sprintf("https://127.0.0.1:%d/exa.language_server_pb.LanguageServerService/%s", conn.Port, method)
}

func (a *Adapter) call(ctx context.Context, conn *Connection, method string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.rpcURL(conn, method), bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Csrf-Token", conn.CSRFToken)

	resp, err := a.client().Do(req)
	if err != nil {
		return fmt.Errorf("antigravity: %s: %w", method, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("antigravity: %s: status %d", method, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// fetchAllTrajectories calls GetAllCascadeTrajectories to retrieve project
// and session metadata.
func (a *Adapter) fetchAllTrajectories(ctx context.Context, conn *Connection) ([]trajectory, error) {
	var resp trajectoriesResponse
	if err := a.call(ctx, conn, "GetAllCascadeTrajectories", struct{}{}, &resp); err != nil {
		return nil, err
	}
	return resp.Trajectories, nil
}

type trajectoryStep struct {
	TrajectoryID string    `json:"trajectoryId"`
	Timestamp    time.Time `json:"timestamp"`
}

type stepsResponse struct {
	Steps []trajectoryStep `json:"steps"`
}

// fetchStepsInBatches calls GetCascadeTrajectorySteps in batches of 100
// trajectory ids (spec.md §4.6).
func (a *Adapter) fetchStepsInBatches(ctx context.Context, conn *Connection, ids []string) ([]trajectoryStep, error) {
	var all []trajectoryStep
	for i := 0; i < len(ids); i += cascadeTrajectoryStepsBatchSize {
		end := i + cascadeTrajectoryStepsBatchSize
		if end > len(ids) {
			end = len(ids)
		}
		var resp stepsResponse
		body := struct {
			TrajectoryIDs []string `json:"trajectoryIds"`
		}{TrajectoryIDs: ids[i:end]}
		if err := a.call(ctx, conn, "GetCascadeTrajectorySteps", body, &resp); err != nil {
			return all, err
		}
		all = append(all, resp.Steps...)
	}
	return all, nil
}

// SyncResult summarizes one sync_sessions call (spec.md §4.6).
type SyncResult struct {
	ProjectsScanned   int
	SessionsProcessed int
	SessionsSkipped   int
	WorkItemsCreated  int
	WorkItemsUpdated  int
}

// SyncSessions fetches trajectory metadata, synthesizes one WorkItem per
// session, then fetches per-step detail in batches. The fetched steps are
// not used further: no snapshots are written from them.
func (a *Adapter) SyncSessions(ctx context.Context, userID string) (SyncResult, error) {
	var result SyncResult

	conn, ok := DetectConnection(ctx)
	if !ok {
		return result, nil // adapter unavailable is not an error, per spec.md §4.6
	}

	trajectories, err := a.fetchAllTrajectories(ctx, conn)
	if err != nil {
		return result, fmt.Errorf("antigravity: fetch trajectories: %w", err)
	}

	projects := map[string]bool{}
	for _, t := range trajectories {
		projects[t.ProjectPath] = true

		contentHash := workitem.AntigravitySessionContentHash(userID, t.ProjectPath, t.ID)
		existed, err := a.Store.WorkItems.ExistsByContentHash(ctx, userID, contentHash)
		if err != nil {
			result.SessionsSkipped++
			continue
		}

		start, end := t.StartedAt, t.UpdatedAt
		_, err = workitem.SynthesizeAntigravitySession(ctx, a.Store.WorkItems, workitem.AntigravitySession{
			UserID:      userID,
			ProjectPath: t.ProjectPath,
			SessionID:   t.ID,
			Date:        start.Format("2006-01-02"),
			Title:       t.Title,
			StartTime:   &start,
			EndTime:     &end,
		})
		if err != nil {
			result.SessionsSkipped++
			continue
		}
		result.SessionsProcessed++
		if existed {
			result.WorkItemsUpdated++
		} else {
			result.WorkItemsCreated++
		}
	}
	result.ProjectsScanned = len(projects)

	ids := make([]string, 0, len(trajectories))
	for _, t := range trajectories {
		ids = append(ids, t.ID)
	}
	if _, err := a.fetchStepsInBatches(ctx, conn, ids); err != nil {
		// A failed step fetch doesn't invalidate the work items already
		// synthesized above.
		return result, nil
	}

	return result, nil
}
