package engine

import "testing"

func TestStatusMatches_ExactCode(t *testing.T) {
	if !statusMatches(404, "404") {
		t.Error("statusMatches(404, \"404\") = false, want true")
	}
	if statusMatches(404, "200") {
		t.Error("statusMatches(404, \"200\") = true, want false")
	}
}

func TestStatusMatches_ClassPattern(t *testing.T) {
	cases := []struct {
		status int
		want   string
		pass   bool
	}{
		{200, "2xx", true},
		{201, "2xx", true},
		{404, "2xx", false},
		{500, "5xx", true},
	}
	for _, c := range cases {
		if got := statusMatches(c.status, c.want); got != c.pass {
			t.Errorf("statusMatches(%d, %q) = %v, want %v", c.status, c.want, got, c.pass)
		}
	}
}

func TestStatusMatches_EmptyWantAlwaysPasses(t *testing.T) {
	if !statusMatches(500, "") {
		t.Error("statusMatches with empty want = false, want true")
	}
}

func TestExtractVariable_Status(t *testing.T) {
	v, ok := extractVariable(Extraction{Source: "status"}, 204, nil, nil)
	if !ok || v != "204" {
		t.Errorf("extractVariable(status) = %q, %v, want 204, true", v, ok)
	}
}

func TestExtractVariable_Header(t *testing.T) {
	headers := map[string]string{"X-Id": "abc"}
	v, ok := extractVariable(Extraction{Source: "header", Path: "X-Id"}, 0, headers, nil)
	if !ok || v != "abc" {
		t.Errorf("extractVariable(header) = %q, %v, want abc, true", v, ok)
	}
}

func TestExtractVariable_HeaderMissing(t *testing.T) {
	_, ok := extractVariable(Extraction{Source: "header", Path: "X-Missing"}, 0, map[string]string{}, nil)
	if ok {
		t.Error("extractVariable for a missing header = true, want false")
	}
}

func TestExtractVariable_Body(t *testing.T) {
	body := []byte(`{"id": "xyz"}`)
	v, ok := extractVariable(Extraction{Source: "body", Path: "id"}, 0, nil, body)
	if !ok || v != "xyz" {
		t.Errorf("extractVariable(body) = %q, %v, want xyz, true", v, ok)
	}
}

func TestExtractVariable_UnknownSource(t *testing.T) {
	_, ok := extractVariable(Extraction{Source: "nonsense"}, 0, nil, nil)
	if ok {
		t.Error("extractVariable with an unknown source = true, want false")
	}
}
