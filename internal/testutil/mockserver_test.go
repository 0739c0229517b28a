package testutil

import (
	"io"
	"net/http"
	"strings"
	"testing"
)

func TestMockServerDefaultHandlerReceivesBody(t *testing.T) {
	m := NewMockServer()
	defer m.Close()

	m.SetDefaultHandler(func(w http.ResponseWriter, r *http.Request, body []byte) {
		writeJSON(w, http.StatusCreated, map[string]string{"echo": string(body)})
	})

	resp, err := http.Post(m.URL()+"/things", "application/json", strings.NewReader(`{"a":1}`))
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	data, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}
	if !strings.Contains(string(data), `"echo":"{\"a\":1}"`) {
		t.Errorf("handler did not see the request body: %s", data)
	}
	reqs := m.GetRequests()
	if len(reqs) != 1 || string(reqs[0].Body) != `{"a":1}` {
		t.Errorf("recorded requests = %+v", reqs)
	}
}

func TestMockServerThrottleThenDefault(t *testing.T) {
	m := NewMockServer()
	defer m.Close()
	m.SetDefaultHandler(func(w http.ResponseWriter, r *http.Request, _ []byte) {
		writeJSON(w, http.StatusOK, nil)
	})
	m.SetThrottle(1)

	for i, want := range []int{http.StatusTooManyRequests, http.StatusOK} {
		resp, err := http.Get(m.URL() + "/x")
		if err != nil {
			t.Fatalf("GET %d failed: %v", i, err)
		}
		_ = resp.Body.Close()
		if resp.StatusCode != want {
			t.Errorf("request %d status = %d, want %d", i, resp.StatusCode, want)
		}
	}
}
