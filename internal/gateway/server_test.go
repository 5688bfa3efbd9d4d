package gateway_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/namvu/quizbridge/internal/bus"
	"github.com/namvu/quizbridge/internal/config"
	"github.com/namvu/quizbridge/internal/gateway"
	"github.com/namvu/quizbridge/internal/gateway/methods"
	"github.com/namvu/quizbridge/internal/quiz"
	"github.com/namvu/quizbridge/pkg/protocol"
)

type stubTransport struct {
	mu       sync.Mutex
	messages []string
}

func (t *stubTransport) SendMessage(_ context.Context, _, text string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(t.messages, text)
	return nil
}

func (t *stubTransport) SendReaction(context.Context, string, string, string) error { return nil }

// testClient drives the control channel like an agent process would.
type testClient struct {
	t      *testing.T
	conn   *websocket.Conn
	nextID int

	mu     sync.Mutex
	events []protocol.EventFrame
	resCh  chan rawResponse
}

type rawResponse struct {
	ID      string          `json:"id"`
	OK      bool            `json:"ok"`
	Payload json.RawMessage `json:"payload"`
	Error   *protocol.ErrorBody
}

func startTestGateway(t *testing.T, token string) (*testClient, *quiz.Engine, *stubTransport) {
	t.Helper()

	cfg := config.Default()
	cfg.Gateway.Token = token

	msgBus := bus.New()
	transport := &stubTransport{}
	engine := quiz.NewEngine(transport, msgBus)

	server := gateway.NewServer(cfg, msgBus)
	methods.NewQuizMethods(engine).Register(server.Router())

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	addr, start := gateway.StartTestServer(server, ctx)
	go start()

	var conn *websocket.Conn
	var err error
	for i := 0; i < 50; i++ {
		conn, _, err = websocket.DefaultDialer.Dial("ws://"+addr+"/ws", nil)
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("dial gateway: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	c := &testClient{t: t, conn: conn, resCh: make(chan rawResponse, 16)}
	go c.readLoop()
	return c, engine, transport
}

func (c *testClient) readLoop() {
	for {
		var frame struct {
			Type    string          `json:"type"`
			ID      string          `json:"id"`
			OK      bool            `json:"ok"`
			Event   string          `json:"event"`
			Payload json.RawMessage `json:"payload"`
			Error   *protocol.ErrorBody
		}
		if err := c.conn.ReadJSON(&frame); err != nil {
			return
		}
		switch frame.Type {
		case protocol.FrameResponse:
			c.resCh <- rawResponse{ID: frame.ID, OK: frame.OK, Payload: frame.Payload, Error: frame.Error}
		case protocol.FrameEvent:
			c.mu.Lock()
			c.events = append(c.events, protocol.EventFrame{
				Type:    frame.Type,
				Event:   frame.Event,
				Payload: frame.Payload,
			})
			c.mu.Unlock()
		}
	}
}

func (c *testClient) call(method string, params interface{}) rawResponse {
	c.t.Helper()

	c.nextID++
	id := string(rune('a' + c.nextID))
	var raw json.RawMessage
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			c.t.Fatalf("marshal params: %v", err)
		}
		raw = data
	}

	if err := c.conn.WriteJSON(protocol.RequestFrame{
		Type:   protocol.FrameRequest,
		ID:     id,
		Method: method,
		Params: raw,
	}); err != nil {
		c.t.Fatalf("write request: %v", err)
	}

	select {
	case res := <-c.resCh:
		if res.ID != id {
			c.t.Fatalf("response id = %q, want %q", res.ID, id)
		}
		return res
	case <-time.After(2 * time.Second):
		c.t.Fatalf("no response to %s", method)
		return rawResponse{}
	}
}

func (c *testClient) waitEvent(name string) protocol.EventFrame {
	c.t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		c.mu.Lock()
		for _, e := range c.events {
			if e.Event == name {
				c.mu.Unlock()
				return e
			}
		}
		c.mu.Unlock()

		select {
		case <-deadline:
			c.t.Fatalf("event %s never arrived", name)
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestGatewayQuizLifecycle(t *testing.T) {
	client, engine, transport := startTestGateway(t, "")

	res := client.call(protocol.MethodQuizStart, map[string]string{
		"chat_id":  "g1@g.us",
		"question": "Capital of France?",
		"answer":   "Paris",
	})
	if !res.OK {
		t.Fatalf("quiz_start failed: %+v", res.Error)
	}
	client.waitEvent(protocol.EventQuizStarted)

	transport.mu.Lock()
	sent := len(transport.messages)
	transport.mu.Unlock()
	if sent != 1 {
		t.Errorf("question sends = %d, want 1", sent)
	}

	// second start in the same chat is rejected
	res = client.call(protocol.MethodQuizStart, map[string]string{
		"chat_id":  "g1@g.us",
		"question": "Q2",
		"answer":   "A2",
	})
	if res.OK {
		t.Fatal("second quiz_start succeeded")
	}

	// status for the chat
	res = client.call(protocol.MethodQuizStatus, map[string]string{"chat_id": "g1@g.us"})
	if !res.OK {
		t.Fatalf("quiz_status failed: %+v", res.Error)
	}
	var status struct {
		Active bool `json:"active"`
		Quiz   struct {
			Question string `json:"question"`
		} `json:"quiz"`
	}
	if err := json.Unmarshal(res.Payload, &status); err != nil {
		t.Fatalf("unmarshal status: %v", err)
	}
	if !status.Active || status.Quiz.Question != "Capital of France?" {
		t.Errorf("status = %+v", status)
	}

	// end emits quiz_ended with reason cancelled
	res = client.call(protocol.MethodQuizEnd, map[string]string{"chat_id": "g1@g.us"})
	if !res.OK {
		t.Fatalf("quiz_end failed: %+v", res.Error)
	}
	ended := client.waitEvent(protocol.EventQuizEnded)
	var payload struct {
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal(ended.Payload.(json.RawMessage), &payload); err != nil {
		t.Fatalf("unmarshal ended payload: %v", err)
	}
	if payload.Reason != quiz.ReasonCancelled {
		t.Errorf("reason = %q", payload.Reason)
	}
	if engine.Active("g1@g.us") {
		t.Error("session still active after quiz_end")
	}
}

func TestGatewayUnknownMethod(t *testing.T) {
	client, _, _ := startTestGateway(t, "")

	res := client.call("no_such_method", nil)
	if res.OK || res.Error == nil || res.Error.Code != protocol.ErrNotFound {
		t.Fatalf("res = %+v, want NOT_FOUND", res)
	}
}

func TestGatewayAuth(t *testing.T) {
	client, _, _ := startTestGateway(t, "sekret")

	res := client.call(protocol.MethodQuizStatus, nil)
	if res.OK || res.Error.Code != protocol.ErrUnauthorized {
		t.Fatalf("pre-auth call = %+v, want UNAUTHORIZED", res)
	}

	res = client.call(protocol.MethodConnect, map[string]string{"token": "wrong"})
	if res.OK {
		t.Fatal("connect with bad token succeeded")
	}

	res = client.call(protocol.MethodConnect, map[string]string{"token": "sekret"})
	if !res.OK {
		t.Fatalf("connect failed: %+v", res.Error)
	}

	res = client.call(protocol.MethodQuizStatus, nil)
	if !res.OK {
		t.Fatalf("post-auth call failed: %+v", res.Error)
	}
}
