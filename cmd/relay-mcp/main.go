package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// relay-mcp exposes the relay's roster and broadcast operations as MCP tools
// over stdio. Tool calls are relayed to the running daemon via its ops HTTP
// API; the daemon stays the single owner of the roster and the transport.

var apiURL = func() string {
	if v := os.Getenv("RELAY_API_URL"); v != "" {
		return v
	}
	return "http://127.0.0.1:9876"
}()

var httpClient = &http.Client{Timeout: 15 * time.Second}

func apiGet(path string, out any) error {
	resp, err := httpClient.Get(apiURL + path)
	if err != nil {
		return fmt.Errorf("relay API unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return fmt.Errorf("relay API %s: %s", resp.Status, apiErr.Error)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func apiPost(path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}

	resp, err := httpClient.Post(apiURL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("relay API unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return fmt.Errorf("relay API %s: %s", resp.Status, apiErr.Error)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

// Student is a roster entry as returned by the relay API.
type Student struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Surname string `json:"surname"`
	Group   string `json:"group"`
}

// StudentGroup is one group block of the roster listing.
type StudentGroup struct {
	Group    string    `json:"group"`
	Students []Student `json:"students"`
}

// ListStudentsInput is empty - no input needed.
type ListStudentsInput struct{}

// ListStudentsOutput contains the roster grouped by group.
type ListStudentsOutput struct {
	Groups []StudentGroup `json:"groups"`
	Total  int            `json:"total"`
	Error  string         `json:"error,omitempty"`
}

func handleListStudents(ctx context.Context, req *mcp.CallToolRequest, input ListStudentsInput) (*mcp.CallToolResult, ListStudentsOutput, error) {
	var out ListStudentsOutput
	if err := apiGet("/api/students", &out); err != nil {
		return nil, ListStudentsOutput{Error: err.Error()}, nil
	}
	return nil, out, nil
}

// SendMessageInput addresses a single student by roster id.
type SendMessageInput struct {
	StudentID int64  `json:"student_id" jsonschema:"description=The roster id of the student to message"`
	Text      string `json:"text" jsonschema:"description=The message text to send"`
}

// SendOutput reports delivery counts for a broadcast.
type SendOutput struct {
	Sent   int    `json:"sent"`
	Failed int    `json:"failed"`
	Error  string `json:"error,omitempty"`
}

func handleSendMessage(ctx context.Context, req *mcp.CallToolRequest, input SendMessageInput) (*mcp.CallToolResult, SendOutput, error) {
	var out SendOutput
	if err := apiPost("/api/send", map[string]any{"student_id": input.StudentID, "text": input.Text}, &out); err != nil {
		return nil, SendOutput{Error: err.Error()}, nil
	}
	return nil, out, nil
}

// SendGroupInput addresses every member of a named group.
type SendGroupInput struct {
	Group string `json:"group" jsonschema:"description=The group name, e.g. 'Intensive IELTS 18:00'"`
	Text  string `json:"text" jsonschema:"description=The message text to send"`
}

func handleSendGroup(ctx context.Context, req *mcp.CallToolRequest, input SendGroupInput) (*mcp.CallToolResult, SendOutput, error) {
	var out SendOutput
	if err := apiPost("/api/send_group", map[string]any{"group": input.Group, "text": input.Text}, &out); err != nil {
		return nil, SendOutput{Error: err.Error()}, nil
	}
	return nil, out, nil
}

// SendAllInput addresses every registered student.
type SendAllInput struct {
	Text string `json:"text" jsonschema:"description=The message text to send"`
}

func handleSendAll(ctx context.Context, req *mcp.CallToolRequest, input SendAllInput) (*mcp.CallToolResult, SendOutput, error) {
	var out SendOutput
	if err := apiPost("/api/send_all", map[string]any{"text": input.Text}, &out); err != nil {
		return nil, SendOutput{Error: err.Error()}, nil
	}
	return nil, out, nil
}

func main() {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "class-relay-tools",
		Version: "v1.0.0",
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "class_list_students",
		Description: "List all registered students grouped by class group, with roster ids.",
	}, handleListStudents)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "class_send_message",
		Description: "Send a text message to a single student identified by roster id.",
	}, handleSendMessage)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "class_send_group",
		Description: "Send a text message to every student of a named group.",
	}, handleSendGroup)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "class_send_all",
		Description: "Send a text message to every registered student.",
	}, handleSendAll)

	if err := server.Run(context.Background(), &mcp.StdioTransport{}); err != nil {
		log.Fatalf("MCP server error: %v", err)
	}
}
