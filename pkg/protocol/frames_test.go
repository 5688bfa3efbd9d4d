package protocol

import (
	"encoding/json"
	"testing"
)

func TestNewOKResponse(t *testing.T) {
	res := NewOKResponse("42", map[string]bool{"sent": true})
	if res.Type != FrameResponse || !res.OK || res.Error != nil {
		t.Errorf("res = %+v", res)
	}
}

func TestNewErrorResponseOmitsPayload(t *testing.T) {
	res := NewErrorResponse("42", ErrNotFound, "unknown method")

	data, err := json.Marshal(res)
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if _, ok := decoded["payload"]; ok {
		t.Error("error response carries a payload field")
	}
	if decoded["ok"] != false {
		t.Error("error response marked ok")
	}
}

func TestNewEvent(t *testing.T) {
	e := NewEvent(EventQuizStarted, nil)
	if e.Type != FrameEvent || e.Event != EventQuizStarted {
		t.Errorf("event = %+v", e)
	}
}
